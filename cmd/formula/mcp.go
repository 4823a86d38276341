package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sandrolain/goformula"
	"github.com/sandrolain/goformula/pkg/functions"
	"github.com/sandrolain/goformula/pkg/types"
	"github.com/sandrolain/goformula/pkg/validator"
)

// mcpTools serves formula validation to MCP clients.
type mcpTools struct {
	svc *validator.Service
}

// jsonResult marshals v as the text of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

// bindingsArg reads the optional "bindings" object argument.
func bindingsArg(request mcp.CallToolRequest) (types.Bindings, error) {
	raw, ok := request.GetArguments()["bindings"]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("bindings must be an object of numbers")
	}
	bindings := make(types.Bindings, len(obj))
	for name, v := range obj {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("binding '%s' must be a number", name)
		}
		bindings[name] = f
	}
	return bindings, nil
}

// handleValidate validates a formula. An invalid formula is a successful
// tool call whose result carries the problem.
func (t *mcpTools) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formula, err := request.RequireString("formula")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bindings, err := bindingsArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(t.svc.Validate(ctx, formula, bindings))
}

func (t *mcpTools) handleListFunctions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(functions.Palette())
}

func newMCPServer(svc *validator.Service) *server.MCPServer {
	tools := &mcpTools{svc: svc}

	s := server.NewMCPServer(
		"goformula",
		goformula.Version(),
		server.WithToolCapabilities(false),
	)

	s.AddTool(
		mcp.NewTool("validate_formula",
			mcp.WithDescription("Tokenize, parse and evaluate a formula. Returns {valid, error, preview}; error carries code, kind, message and byte offset."),
			mcp.WithString("formula",
				mcp.Required(),
				mcp.Description("Formula to validate, e.g. ceil(width * height / coverage) * unitCost"),
			),
			mcp.WithObject("bindings",
				mcp.Description("Variable values by name, e.g. {\"width\": 4, \"height\": 2.5}"),
			),
		),
		tools.handleValidate,
	)

	s.AddTool(
		mcp.NewTool("list_functions",
			mcp.WithDescription("List the built-in functions and operators a formula may use."),
		),
		tools.handleListFunctions,
	)

	return s
}

func cmdMCP(args []string) int {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "verbose logging on stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	// stdout carries the protocol; logs go to stderr.
	var common commonFlags
	common.verbose = *verbose
	if _, _, err := common.setup(os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 2
	}

	if err := server.ServeStdio(newMCPServer(validator.New(validator.WithDebug(*verbose)))); err != nil {
		fmt.Fprintf(os.Stderr, "%s: mcp server: %v\n", appName, err)
		return 1
	}
	return 0
}
