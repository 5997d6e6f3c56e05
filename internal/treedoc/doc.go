// Package treedoc loads cst trees from CUE tree documents.
//
// A tree document is the serialized form of a front end's output: a
// translation unit already annotated with macro provenance and
// sentinel markings. It exists so non-C front ends (and test fixtures)
// can hand macrolens a fully built tree without going through
// tree-sitter.
package treedoc
