// Package wat parses inline module definitions out of a WAST token
// stream.
//
// The directive parser hands its lookahead buffer to a Compiler when a
// (module ...) directive turns out not to be an embedded quote/binary
// form. The Compiler validates the module-level grammar, captures the
// exact source span of the definition, and yields the buffer back
// positioned at the next directive. Instruction-level compilation of
// the captured span is left to the execution engine consuming the
// parsed script.
package wat
