// Package cst defines the source-level statement and expression tree
// that front ends hand to lowering.
//
// This package contains type definitions only, in the same spirit as
// mir: sealed Stmt and Expr interfaces with marker methods, so lowering
// can type-switch exhaustively and no other package can invent node
// shapes.
//
// How a tree gets built is a front-end concern (tree-sitter parsing in
// internal/frontend, CUE documents in internal/treedoc); this package
// only fixes the shapes both produce.
package cst
