// Command formula evaluates, checks and edits formulas from the terminal.
//
//	formula eval -b width=4 -b height=5 'width * height'
//	formula check -bindings quote.yaml 'ceil(area / coverage) * unitCost'
//	formula funcs
//	formula repl
//	formula tui
//	formula mcp
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gopkg.in/yaml.v3"

	"github.com/sandrolain/goformula"
	"github.com/sandrolain/goformula/pkg/functions"
	"github.com/sandrolain/goformula/pkg/types"
	"github.com/sandrolain/goformula/pkg/validator"
)

const appName = "formula"

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "eval":
		os.Exit(cmdEval(os.Args[2:], os.Stdout, os.Stderr))
	case "check":
		os.Exit(cmdCheck(os.Args[2:], os.Stdout, os.Stderr))
	case "funcs":
		os.Exit(cmdFuncs(os.Args[2:], os.Stdout, os.Stderr))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "tui":
		os.Exit(cmdTUI(os.Args[2:]))
	case "mcp":
		os.Exit(cmdMCP(os.Args[2:]))
	case "version":
		fmt.Println(goformula.Version())
		return
	case "-h", "--help", "help":
		usage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `goformula %s

Usage:
  %s eval  [flags] <formula>    Evaluate a formula and print its value.
  %s check [flags] <formula>    Validate a formula and print the result as JSON.
  %s funcs [-json]              List functions and operators.
  %s repl  [flags]              Interactive formula shell.
  %s tui   [flags]              Full-screen formula editor.
  %s mcp   [flags]              Serve validation tools over MCP (stdio).
  %s version                    Print the version.

Flags for eval, check, repl and tui:
  -b name=value    Bind a variable (repeatable).
  -bindings file   Load bindings from a YAML or JSON file.
  -lang tag        Print numbers for a locale, e.g. de or en-IN.
  -v               Verbose (debug) logging on stderr.

`, goformula.Version(), appName, appName, appName, appName, appName, appName, appName)
}

// bindingFlags collects repeated -b name=value flags.
type bindingFlags struct {
	values types.Bindings
}

func (b *bindingFlags) String() string {
	if b == nil || len(b.values) == 0 {
		return ""
	}
	parts := make([]string, 0, len(b.values))
	for name, v := range b.values {
		parts = append(parts, name+"="+strconv.FormatFloat(v, 'g', -1, 64))
	}
	return strings.Join(parts, ",")
}

func (b *bindingFlags) Set(s string) error {
	name, value, err := parseBinding(s)
	if err != nil {
		return err
	}
	if b.values == nil {
		b.values = types.Bindings{}
	}
	b.values[name] = value
	return nil
}

// parseBinding splits "name=value" and parses the value as a number.
func parseBinding(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, fmt.Errorf("binding %q: want name=value", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("binding %q: %w", s, err)
	}
	return name, v, nil
}

// commonFlags are the flags shared by the formula-evaluating subcommands.
type commonFlags struct {
	bindings     bindingFlags
	bindingsFile string
	lang         string
	verbose      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.Var(&c.bindings, "b", "bind a variable, name=value (repeatable)")
	fs.StringVar(&c.bindingsFile, "bindings", "", "YAML or JSON file of variable bindings")
	fs.StringVar(&c.lang, "lang", "", "locale for printed numbers (BCP 47 tag)")
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
}

// setup installs the logger and resolves bindings and the printer.
func (c *commonFlags) setup(stderr io.Writer) (types.Bindings, *valuePrinter, error) {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	bindings := types.Bindings{}
	if c.bindingsFile != "" {
		fromFile, err := loadBindings(c.bindingsFile)
		if err != nil {
			return nil, nil, err
		}
		for k, v := range fromFile {
			bindings[k] = v
		}
	}
	for k, v := range c.bindings.values {
		bindings[k] = v
	}

	printer, err := newValuePrinter(c.lang)
	if err != nil {
		return nil, nil, err
	}
	return bindings, printer, nil
}

// loadBindings reads a flat mapping of names to numbers. YAML is a superset
// of JSON, so one decoder serves both.
func loadBindings(path string) (types.Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bindings: %w", err)
	}
	var b types.Bindings
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bindings %s: %w", path, err)
	}
	if b == nil {
		b = types.Bindings{}
	}
	return b, nil
}

// valuePrinter prints preview values, optionally for a locale.
type valuePrinter struct {
	p *message.Printer
}

func newValuePrinter(lang string) (*valuePrinter, error) {
	if lang == "" {
		return &valuePrinter{}, nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("invalid -lang %q: %w", lang, err)
	}
	return &valuePrinter{p: message.NewPrinter(tag)}, nil
}

// Format renders v as "<value> (<type>)".
func (vp *valuePrinter) Format(v types.Value) string {
	return vp.Value(v) + " (" + v.Kind().String() + ")"
}

// Value renders v alone.
func (vp *valuePrinter) Value(v types.Value) string {
	if vp.p == nil || !v.IsNumber() {
		return v.String()
	}
	return vp.p.Sprintf("%v", number.Decimal(v.Float(), number.MaxFractionDigits(15)))
}

// formulaArg joins the positional arguments into one formula so that
// unquoted input such as `formula eval 2 + 3` works.
func formulaArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() == 0 {
		return "", errors.New("missing formula")
	}
	return strings.Join(fs.Args(), " "), nil
}

// describeProblem renders a problem with a caret line under the formula.
func describeProblem(formula string, p *validator.Problem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]: %s", p.Kind, p.Code, p.Message)
	if caret := p.Caret(formula); caret != "" {
		b.WriteString("\n")
		b.WriteString(caret)
	}
	return b.String()
}

// -----------------------------------------------------------------------------
// eval
// -----------------------------------------------------------------------------

func cmdEval(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	formula, err := formulaArg(fs)
	if err != nil {
		fmt.Fprintf(stderr, "usage: %s eval [flags] <formula>\n", appName)
		return 2
	}
	bindings, printer, err := common.setup(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 2
	}

	res := validator.New(validator.WithDebug(common.verbose)).Validate(context.Background(), formula, bindings)
	switch {
	case res.Valid:
		fmt.Fprintln(stdout, printer.Format(*res.Preview))
		return 0
	case res.Empty():
		fmt.Fprintf(stderr, "%s: empty formula\n", appName)
		return 1
	default:
		fmt.Fprintln(stderr, red(describeProblem(formula, res.Error)))
		return 1
	}
}

// -----------------------------------------------------------------------------
// check
// -----------------------------------------------------------------------------

func cmdCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// An absent formula is checked as the empty formula.
	formula := strings.Join(fs.Args(), " ")
	bindings, _, err := common.setup(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 2
	}

	res := validator.New(validator.WithDebug(common.verbose)).Validate(context.Background(), formula, bindings)
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return 1
	}
	if !res.Valid {
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// funcs
// -----------------------------------------------------------------------------

func cmdFuncs(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("funcs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print the palette as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	palette := functions.Palette()
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(palette); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", appName, err)
			return 1
		}
		return 0
	}

	for _, e := range palette {
		fmt.Fprintf(stdout, "%-8s %-9s %s\n", e.Label, e.Kind, e.Description)
	}
	return 0
}
