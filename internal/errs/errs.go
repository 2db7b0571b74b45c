// Package errs implements the counted, suppressible diagnostic
// channel of spec §4.6.
package errs

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Sink is a diagnostic channel: a counter plus a suppression flag,
// per spec §4.6. Each Sink keeps its own count.
type Sink struct {
	out        io.Writer
	count      int
	suppressed bool
}

// New creates a Sink that writes to w (typically os.Stderr).
func New(w io.Writer) *Sink {
	return &Sink{out: w}
}

// Report prints "Error: ..." to the diagnostic stream unless
// suppressed, then increments the counter.
func (s *Sink) Report(format string, args ...interface{}) {
	if !s.suppressed {
		fmt.Fprintf(s.out, "Error: %s\n", fmt.Sprintf(format, args...))
	}
	s.count++
}

// Fatal prints "Fatal Error: ..." and terminates the process with
// exit code 1. The underlying cause is wrapped with a stack via
// github.com/pkg/errors before the process exits, so a caller that
// intercepts os.Exit in tests (FatalFunc) still observes a
// stack-annotated error value.
var FatalFunc = func(err error) {
	fmt.Fprintf(os.Stderr, "Fatal Error: %s\n", err)
	os.Exit(1)
}

func (s *Sink) Fatal(format string, args ...interface{}) {
	err := errors.Errorf(format, args...)
	FatalFunc(err)
}

// Count returns the number of errors reported so far.
func (s *Sink) Count() int { return s.count }

// Suppress toggles output suppression (used by tests).
func (s *Sink) Suppress(suppress bool) { s.suppressed = suppress }
