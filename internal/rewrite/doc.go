// Package rewrite holds the kernel idiom pattern library and the
// driver that applies it across a mir module.
//
// Each rule recognizes one macro idiom by name and shape and replaces
// the matched subtree with a semantically explicit node. Matching is
// conservative: a rule that cannot fully validate the shape it targets
// declines and leaves the tree untouched. Declining is normal control
// flow, never an error, and a rule either rewrites atomically or does
// nothing at all.
//
// The rule table is assembled once at process start and read-only
// afterwards; per-invocation state lives on the Rewriter.
package rewrite
