// Package compiler translates CACT source into LLVM-compatible textual IR.
//
// Pipeline: source → Lex → Parse (with constant folding) → Generate
// (checking and IR emission in one walk) → ir.Module text
package compiler
