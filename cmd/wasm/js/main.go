//go:build js && wasm

// Command goformula-wasm-js is the WebAssembly entrypoint for browser formula
// editors and Node.js.
//
// It exposes a global `goformula` object with the following API:
//
//	goformula.version()                       → string
//	goformula.validate(formula, bindingsJSON) → resultJSON
//	goformula.palette()                       → paletteJSON
//
// validate never throws for a broken formula: the problem is part of the
// result. It throws only when bindingsJSON is not a JSON object of numbers.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o goformula.wasm ./cmd/wasm/js/
//
// Usage in a browser:
//
//	<script src="wasm_exec.js"></script>
//	<script>
//	  const go = new Go()
//	  WebAssembly.instantiateStreaming(fetch('goformula.wasm'), go.importObject)
//	    .then(r => { go.run(r.instance)
//	      const res = JSON.parse(goformula.validate('ceil(a / 3)', '{"a": 10}'))
//	      console.log(res.valid, res.preview) // true { type: 'number', value: 4 }
//	    })
//	</script>
package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/goformula"
	"github.com/sandrolain/goformula/pkg/functions"
	"github.com/sandrolain/goformula/pkg/types"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

// jsValidate implements goformula.validate(formula, bindingsJSON) → resultJSON.
func jsValidate(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("goformula.validate requires a formula (string) and optional bindings (JSON string)")
	}
	formula := args[0].String()

	var bindings types.Bindings
	if len(args) > 1 && args[1].Type() == js.TypeString && args[1].String() != "" {
		if err := json.Unmarshal([]byte(args[1].String()), &bindings); err != nil {
			jsThrow(fmt.Sprintf("goformula.validate: invalid bindings JSON: %v", err))
		}
	}

	out, err := json.Marshal(goformula.Validate(formula, bindings))
	if err != nil {
		jsThrow(fmt.Sprintf("goformula.validate: marshal result: %v", err))
	}
	return string(out)
}

// jsPalette implements goformula.palette() → paletteJSON.
func jsPalette(_ js.Value, _ []js.Value) interface{} {
	out, err := json.Marshal(functions.Palette())
	if err != nil {
		jsThrow(fmt.Sprintf("goformula.palette: %v", err))
	}
	return string(out)
}

func main() {
	api := map[string]interface{}{
		"validate": js.FuncOf(jsValidate),
		"palette":  js.FuncOf(jsPalette),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return goformula.Version()
		}),
	}
	js.Global().Set("goformula", js.ValueOf(api))

	// The JS event loop owns execution from here.
	select {}
}
