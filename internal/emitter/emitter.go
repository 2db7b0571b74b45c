// Package emitter is the core of this repository: it walks a parsed
// AST and emits LLVM IR text for a single translation unit, per
// spec §4.5.
package emitter

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gmofishsauce/cc2llvm/internal/ast"
	"github.com/gmofishsauce/cc2llvm/internal/errs"
	"github.com/gmofishsauce/cc2llvm/internal/symtab"
	"github.com/gmofishsauce/cc2llvm/internal/types"
)

// OperandKind tags the four operand shapes of spec §4.5.4.
type OperandKind int

const (
	OKRegister OperandKind = iota
	OKGlobal
	OKConstant
	OKFunction
)

// Operand is the four-field descriptor every expression-lowering
// function returns: a kind, a textual operand name, an LLVM type, and
// an lvalue flag.
type Operand struct {
	Kind     OperandKind
	Name     string
	Type     *types.TypeInfo
	IsLValue bool
}

type internedString struct {
	Label string
	Value string
}

// Emitter holds all per-translation-unit state described in spec
// §4.5's second paragraph.
type Emitter struct {
	out    *bufio.Writer
	body   *bytes.Buffer // active body sink during function emission
	alloca *bytes.Buffer // active alloca-hoisting sink during function emission

	regCounter  int
	labelCounts map[string]int    // per-prefix label numbering
	userLabels  map[string]string // source label name -> "user_label_<name>"

	curRetType     *types.TypeInfo
	breakLabel     string
	continueLabel  string

	strings []internedString

	syms   *symtab.Table
	errors *errs.Sink
	log    *logrus.Logger
}

// New creates an Emitter that writes to w.
func New(w io.Writer, syms *symtab.Table, sink *errs.Sink, log *logrus.Logger) *Emitter {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return &Emitter{
		out:         bufio.NewWriter(w),
		labelCounts: make(map[string]int),
		userLabels:  make(map[string]string),
		syms:       syms,
		errors:     sink,
		log:        log,
	}
}

// Flush flushes the underlying writer.
func (e *Emitter) Flush() error { return e.out.Flush() }

// newReg returns a fresh SSA register name and advances the shared
// register counter, which also backs parameter-name uniquification
// per spec §4.5.2.
func (e *Emitter) newReg() string {
	e.regCounter++
	return fmt.Sprintf("%%%d", e.regCounter)
}

func (e *Emitter) newRegNum() int {
	e.regCounter++
	return e.regCounter
}

// newLabel returns a fresh basic-block label, numbered independently
// per prefix. Labels a construct always creates together share a
// suffix (for_cond0/for_body0/for_incr0/for_end0); a label created
// only in some cases, such as if_else or switch_case, follows its own
// count.
func (e *Emitter) newLabel(prefix string) string {
	n := e.labelCounts[prefix]
	e.labelCounts[prefix] = n + 1
	return fmt.Sprintf("%s%d", prefix, n)
}

// currentSink returns the active non-alloca output destination: the
// in-memory body buffer during function emission, or the real sink
// otherwise.
func (e *Emitter) currentSink() io.Writer {
	if e.body != nil {
		return e.body
	}
	return e.out
}

// emit writes an instruction indented by two spaces, per spec
// §4.5.11. Any instruction whose text contains "= alloca" is diverted
// to the alloca sink instead, so allocas end up hoisted to the
// function's entry block once the buffers are spliced together.
func (e *Emitter) emit(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	if e.alloca != nil && strings.Contains(line, "= alloca") {
		fmt.Fprintf(e.alloca, "  %s\n", line)
		return
	}
	fmt.Fprintf(e.currentSink(), "  %s\n", line)
}

// emitLabel writes a basic-block label on its own line, unindented.
func (e *Emitter) emitLabel(name string) {
	fmt.Fprintf(e.currentSink(), "%s:\n", name)
}

// emitRaw writes unindented text directly to the real output sink,
// used for module-level constructs (header lines, struct types,
// globals, declarations, string constants, function headers/braces).
func (e *Emitter) emitRaw(format string, args ...interface{}) {
	fmt.Fprintf(e.out, format, args...)
}

// Run performs the seven emission passes of spec §4.5.1, in order.
func (e *Emitter) Run(prog *ast.Program) error {
	e.emitHeader()
	e.harvestGlobals(prog)
	e.emitStructTypes()
	for _, d := range prog.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Body != nil {
			e.emitFunction(fd)
		}
	}
	e.emitGlobalVars(prog)
	e.emitFuncDeclarations()
	e.emitStringConstants()
	return e.Flush()
}
