// Package session owns the per-invocation state of one translation
// unit: the node arena, the literal identity arena, the sentinel set,
// and the mode flag gating conversion.
//
// One session processes exactly one unit, sequentially. Processing
// several units means several independent sessions; nothing mutable is
// shared between them.
package session

import (
	"github.com/macrolens/macrolens/internal/cst"
	"github.com/macrolens/macrolens/internal/emit"
	"github.com/macrolens/macrolens/internal/lower"
	"github.com/macrolens/macrolens/internal/mir"
	"github.com/macrolens/macrolens/internal/rewrite"
)

// Session is the translation state for one unit.
type Session struct {
	convert   bool
	disabled  []string
	arena     *mir.Arena
	lits      *cst.LitArena
	sentinels *cst.SentinelSet
}

// Option configures a session.
type Option func(*Session)

// WithConvert requests that the kernel idiom conversion pass run after
// lowering. Without it the tree is emitted exactly as constructed,
// with only safety tagging applied.
func WithConvert() Option {
	return func(s *Session) { s.convert = true }
}

// WithDisabledRules disables named pattern-library rules for this
// session.
func WithDisabledRules(names ...string) Option {
	return func(s *Session) { s.disabled = append(s.disabled, names...) }
}

// WithSource adopts externally built literal and sentinel arenas, for
// callers that construct the source tree before opening the session.
func WithSource(lits *cst.LitArena, sentinels *cst.SentinelSet) Option {
	return func(s *Session) {
		s.lits = lits
		s.sentinels = sentinels
	}
}

// New creates a session.
func New(opts ...Option) *Session {
	s := &Session{
		arena:     mir.NewArena(),
		lits:      cst.NewLitArena(),
		sentinels: cst.NewSentinelSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Arena returns the session's node arena.
func (s *Session) Arena() *mir.Arena { return s.arena }

// Lits returns the session's literal identity arena. Front ends draw
// literal IDs from here while building the source tree.
func (s *Session) Lits() *cst.LitArena { return s.lits }

// Sentinels returns the session's sentinel set. Front ends populate it
// before lowering; it is read-only afterwards.
func (s *Session) Sentinels() *cst.SentinelSet { return s.sentinels }

// Run lowers the unit and, when conversion was requested, applies the
// pattern library. The returned module is owned by the session and
// torn down with it.
func (s *Session) Run(tu *cst.TranslationUnit) *mir.Node {
	lw := lower.New(s.arena, s.sentinels)
	mod := lw.LowerTranslationUnit(tu)
	if s.convert {
		opts := []rewrite.Option{rewrite.WithSentinels(s.sentinels)}
		if len(s.disabled) > 0 {
			opts = append(opts, rewrite.WithDisabledRules(s.disabled...))
		}
		rw := rewrite.NewRewriter(mod, s.arena, opts...)
		rw.Apply()
	}
	return mod
}

// EmitText serializes a module in the stable textual form.
func (s *Session) EmitText(mod *mir.Node) (string, error) {
	return emit.EmitString(mod)
}
