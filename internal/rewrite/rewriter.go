package rewrite

import (
	"github.com/macrolens/macrolens/internal/cst"
	"github.com/macrolens/macrolens/internal/mir"
)

// Rewriter carries the per-invocation state rules need: the module
// root (for use redirection), a builder over the session's arena (for
// replacement nodes), and the session's sentinel set (for the
// safe_unsafe fallback rule).
type Rewriter struct {
	root      *mir.Node
	b         *mir.Builder
	sentinels *cst.SentinelSet
	rules     []Rule
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithSentinels supplies the session's sentinel set to the safe_unsafe
// fallback rule. Without it the rule never matches.
func WithSentinels(s *cst.SentinelSet) Option {
	return func(rw *Rewriter) { rw.sentinels = s }
}

// WithDisabledRules removes the named rules from this rewriter's
// active set. The shared Patterns table is never mutated.
func WithDisabledRules(names ...string) Option {
	return func(rw *Rewriter) {
		disabled := make(map[string]bool, len(names))
		for _, n := range names {
			disabled[n] = true
		}
		active := make([]Rule, 0, len(rw.rules))
		for _, r := range rw.rules {
			if !disabled[r.Name] {
				active = append(active, r)
			}
		}
		rw.rules = active
	}
}

// NewRewriter creates a rewriter for one module.
func NewRewriter(root *mir.Node, arena *mir.Arena, opts ...Option) *Rewriter {
	rw := &Rewriter{
		root:  root,
		b:     mir.NewBuilder(arena),
		rules: Patterns,
	}
	for _, opt := range opts {
		opt(rw)
	}
	return rw
}

// Builder returns the rewriter's builder for assembling replacements.
func (rw *Rewriter) Builder() *mir.Builder { return rw.b }

// Replace swaps old for repl at old's site, redirecting all uses under
// the module root and preserving old's location.
func (rw *Rewriter) Replace(old, repl *mir.Node) {
	mir.Replace(rw.root, old, repl)
}
