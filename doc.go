// Package wast parses the WAST script dialect used by WebAssembly
// conformance test suites.
//
// A script interleaves module definitions with commands and assertions
// that drive an execution engine: instantiate this module, call that
// export, expect this result or that trap. This library produces the
// structured form of such a script; executing it is the engine's job.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	wast/            Root package with the Parse entry points
//	├── script/      Directive parser and the parsed AST
//	├── wat/         Inline module compiler (structural pass)
//	├── lexer/       Tokenizer and the two-token lookahead buffer
//	└── errors/      Structured error types for diagnostics
//
// # Quick Start
//
// Parse a script and walk its directives:
//
//	root, err := wast.ParseFile("spec/i32.wast")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, d := range root.Directives {
//		fmt.Println(script.DirectiveName(d))
//	}
//
// Parsers are cheap to create and each parse is independent; parse
// distinct scripts from as many goroutines as you like.
package wast
