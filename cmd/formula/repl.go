package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"unicode"

	"github.com/peterh/liner"

	"github.com/sandrolain/goformula"
	"github.com/sandrolain/goformula/pkg/functions"
	"github.com/sandrolain/goformula/pkg/types"
	"github.com/sandrolain/goformula/pkg/validator"
)

const (
	historyFile = ".goformula_history"
	promptMain  = "=> "
)

var replHelp = `
REPL commands:
  :let name = formula   Bind name to the value of formula
  :unset name           Remove a binding
  :vars                 List bindings
  :funcs                List functions and operators
  :quit                 Exit the REPL
`

// session is the state of one REPL: the bindings and the validator.
type session struct {
	svc      *validator.Service
	bindings types.Bindings
	printer  *valuePrinter
	out      io.Writer
	errOut   io.Writer
}

func cmdRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	bindings, printer, err := common.setup(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 2
	}

	fmt.Printf("goformula %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.\n", goformula.Version())

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetWordCompleter(completeWord(bindings))

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s := &session{
		svc:      validator.New(validator.WithDebug(common.verbose)),
		bindings: bindings,
		printer:  printer,
		out:      os.Stdout,
		errOut:   os.Stderr,
	}

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return 1
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if quit := s.handle(line); quit {
			return 0
		}
	}
}

// handle runs one line of input and reports whether the REPL should exit.
func (s *session) handle(line string) (quit bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ":") {
		s.evaluate(line)
		return false
	}

	cmd, rest, _ := strings.Cut(trimmed, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(cmd) {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprint(s.out, replHelp)
	case ":let":
		s.let(rest)
	case ":unset":
		if _, ok := s.bindings[rest]; !ok {
			fmt.Fprintf(s.errOut, "%s\n", red(fmt.Sprintf("'%s' is not bound", rest)))
			break
		}
		delete(s.bindings, rest)
	case ":vars":
		s.listVars()
	case ":funcs":
		for _, e := range functions.Palette() {
			fmt.Fprintf(s.out, "%-8s %s\n", e.Label, e.Description)
		}
	default:
		fmt.Fprintln(s.errOut, "unknown command. Type :help for commands.")
	}
	return false
}

// evaluate validates a formula against the session bindings and prints the
// preview or the problem.
func (s *session) evaluate(formula string) {
	res := s.svc.Validate(context.Background(), formula, s.bindings)
	switch {
	case res.Valid:
		fmt.Fprintln(s.out, green(s.printer.Format(*res.Preview)))
	case res.Error != nil:
		fmt.Fprintln(s.errOut, red(describeProblem(formula, res.Error)))
	}
}

// let handles ":let name = formula". The formula must evaluate to a number.
func (s *session) let(arg string) {
	name, formula, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || !isName(name) {
		fmt.Fprintln(s.errOut, red("usage: :let name = formula"))
		return
	}
	res := s.svc.Validate(context.Background(), formula, s.bindings)
	switch {
	case res.Error != nil:
		fmt.Fprintln(s.errOut, red(describeProblem(formula, res.Error)))
	case !res.Valid:
		fmt.Fprintln(s.errOut, red("usage: :let name = formula"))
	case !res.Preview.IsNumber():
		fmt.Fprintln(s.errOut, red(fmt.Sprintf("'%s' must be bound to a number, got %s", name, res.Preview.Kind())))
	default:
		s.bindings[name] = res.Preview.Float()
		fmt.Fprintf(s.out, "%s = %s\n", name, s.printer.Value(*res.Preview))
	}
}

func (s *session) listVars() {
	names := make([]string, 0, len(s.bindings))
	for name := range s.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(s.out, "%s = %s\n", name, s.printer.Value(types.Number(s.bindings[name])))
	}
}

// isName reports whether s is a valid variable name.
func isName(s string) bool {
	if s == "" || s == "true" || s == "false" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// completeWord completes function names and bound variables at the cursor.
func completeWord(bindings types.Bindings) liner.WordCompleter {
	return func(line string, pos int) (head string, completions []string, tail string) {
		// pos counts runes, not bytes.
		runes := []rune(line)
		if pos > len(runes) {
			pos = len(runes)
		}
		start := pos
		for start > 0 {
			r := runes[start-1]
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				break
			}
			start--
		}
		head, tail = string(runes[:start]), string(runes[pos:])
		word := string(runes[start:pos])
		if word == "" {
			return head, nil, tail
		}
		for _, name := range functions.Names() {
			if strings.HasPrefix(name, word) {
				completions = append(completions, name+"(")
			}
		}
		var vars []string
		for name := range bindings {
			if strings.HasPrefix(name, word) {
				vars = append(vars, name)
			}
		}
		sort.Strings(vars)
		return head, append(completions, vars...), tail
	}
}
