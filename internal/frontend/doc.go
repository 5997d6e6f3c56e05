// Package frontend parses C translation units into cst trees using
// tree-sitter.
//
// The parser carries a catalog of the kernel idiom macros. Since it
// sees unpreprocessed source, a recognized invocation is expanded from
// the catalog's fixed template for that macro, producing the same
// expanded shape the preprocessor would have handed a compiler-based
// front end, wrapped in macro provenance nodes. The catalog also owns
// the safety convention: expanding the safety macro mints the sentinel
// literal and registers its identity in the session's sentinel set.
//
// Anything the parser does not model becomes an opaque raw expression;
// opaque subtrees are never candidates for rewriting.
package frontend
