// Package symexpr implements a symbolic expression engine.
//
// The syntax of expressions is intended to be close to math you'd write in
// your notes. Adjacency is multiplication, so "2x sin x" is a product of
// three factors with "sin" applied to the last. "-x^2" is "-(x^2)", "5!" is
// a factorial, and "50%" is a half. Parsed expressions are immutable trees:
// evaluation, simplification, differentiation, integration, substitution,
// and equation solving each return a new tree and never modify their input.
//
// Numbers live in a tower of kinds. Exact integers promote to doubles,
// doubles to imaginary and complex values, and any of them to
// arbitrary-precision floats when a Context requests more bits. Simplify
// never forces an inexact result, so "sin(1) + sin(1)" becomes "2*sin(1)"
// rather than a decimal.
package symexpr
