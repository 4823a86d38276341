//go:build wasip1

// Command goformula-wasm-wasi is the WASI (wasip1) entrypoint for embedding
// the formula validator in any host that runs WebAssembly System Interface
// modules.
//
// Protocol: single JSON object on stdin, single JSON object on stdout.
//
//	stdin:  { "formula": "<formula>", "bindings": { "name": <number>, ... } }
//	stdout: { "valid": true, "preview": { "type": "number", "value": 20 } }
//	        { "valid": false, "error": { "code": "...", "kind": "...", "message": "...", "offset": 4 } }
//	        { "valid": false }                                 for an empty formula
//
// The exit code is 0 when the request was processed, whatever the formula's
// validity, and 1 when the request itself could not be decoded.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o goformula.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"formula":"a * 2","bindings":{"a":21}}' | wasmtime goformula.wasm
package main

import (
	"encoding/json"
	"os"

	"github.com/sandrolain/goformula"
	"github.com/sandrolain/goformula/pkg/types"
)

type request struct {
	Formula  string         `json:"formula"`
	Bindings types.Bindings `json:"bindings"`
}

type failure struct {
	Error string `json:"error"`
}

func writeResponse(v any, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(v)
	os.Exit(exitCode)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(failure{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	writeResponse(goformula.Validate(req.Formula, req.Bindings), 0)
}
