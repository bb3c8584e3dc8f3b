// Package script parses WAST spec-test scripts into an ordered list of
// directives.
//
// A script mixes module payloads (inline, quoted source text, or raw
// binary), function invocations, registrations, and assertions about
// return values, traps and validation failures. Parse returns a Root
// whose Directives preserve source order exactly; the execution engine
// consuming the Root runs them in sequence.
//
//	root, err := script.Parse(source)
//	if err != nil {
//		// err is a *errors.Error with kind and byte offset
//	}
//	for _, d := range root.Directives {
//		switch d := d.(type) {
//		case *script.AssertReturn:
//			...
//		}
//	}
//
// The parser is a recursive descent over a two-token lookahead buffer.
// The one non-LL(1) spot is the (module ...) directive, which may be an
// embedded quote/binary form or a full inline definition: the parser
// snapshots the buffer, attempts the embedded form, and on failure
// restores the snapshot and delegates to the inline module compiler.
// Parsing is single-threaded and aborts on the first error; no partial
// Root is ever returned.
package script
