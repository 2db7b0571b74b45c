// Command cc2llvm drives the semantic analyzer and LLVM IR emitter
// over an AST-dump text protocol, playing the role the teacher's
// lang/sem/main.go and lang/yparse/main.go drivers play for their own
// pass chain. It implements exactly the CLI surface of spec §6: a
// positional input path (stdin if absent), -o to redirect output, and
// the informational -v/-a/-t/-d/-h switches.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gmofishsauce/cc2llvm/internal/arena"
	"github.com/gmofishsauce/cc2llvm/internal/astreader"
	"github.com/gmofishsauce/cc2llvm/internal/astwriter"
	"github.com/gmofishsauce/cc2llvm/internal/emitter"
	"github.com/gmofishsauce/cc2llvm/internal/errs"
	"github.com/gmofishsauce/cc2llvm/internal/symtab"
)

var (
	outPath  string
	verbose  bool
	dumpAST  bool
	dumpTok  bool
	debug    bool
	log      = logrus.New()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cc2llvm [input]",
		Short:         "Translate a C-subset AST dump into LLVM IR text",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          run,
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output path (default stdout)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose trace logging")
	cmd.Flags().BoolVarP(&dumpAST, "dump-ast", "a", false, "dump the parsed AST instead of emitting IR")
	cmd.Flags().BoolVarP(&dumpTok, "dump-tokens", "t", false, "dump the token stream (no-op: lexing is out of scope for this core)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "debug-level trace logging")
	return cmd
}

// run implements the exit-code discipline of spec §6 and §7: 0 on
// success, 1 on any diagnostic or I/O failure, matching
// lang/yparse/main.go's and lang/ygen/main.go's exit discipline.
func run(cmd *cobra.Command, args []string) error {
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.InfoLevel)
	}
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	if dumpTok {
		log.Warn("-t/--dump-tokens is a no-op: this core has no lexer, tokens are never materialized")
	}

	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			errs.New(cmd.ErrOrStderr()).Fatal("opening input %s: %v", args[0], err)
			return err
		}
		defer f.Close()
		in = f
	}

	ar := arena.New(1 << 16)
	defer ar.Destroy()

	syms := symtab.New()
	reader := astreader.New(in, syms, ar)
	log.Debug("reading AST-dump protocol")
	prog, err := reader.Read()
	if err != nil {
		sink := errs.New(cmd.ErrOrStderr())
		sink.Fatal("reading AST: %v", err)
		return err
	}

	out := cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			errs.New(cmd.ErrOrStderr()).Fatal("creating output %s: %v", outPath, err)
			return err
		}
		defer f.Close()
		out = f
	}

	if dumpAST {
		log.Debug("dumping AST instead of emitting IR")
		return astwriter.New(out).Write(prog)
	}

	sink := errs.New(cmd.ErrOrStderr())
	em := emitter.New(out, syms, sink, log)
	log.Info("emitting LLVM IR")
	if err := em.Run(prog); err != nil {
		sink.Report("emitting IR: %v", err)
	}
	if sink.Count() > 0 {
		return errCompileFailed
	}
	return nil
}

var errCompileFailed = compileError{}

type compileError struct{}

func (compileError) Error() string { return "compilation failed" }
