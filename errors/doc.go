// Package errors provides the structured error types used across the
// WAST toolchain.
//
// Every error carries a processing phase (lex, parse, compile), a kind
// describing the defect, and the byte offset in the source text where
// it occurred. Parse errors produced after a discarded speculative
// parse additionally carry that discarded attempt in Prev, bounded to
// exactly one level so diagnostics stay readable.
package errors
