// Package harness runs end-to-end translation scenarios for tests: a
// scenario builds one source unit, runs it through a session, and
// yields the emitted text for golden comparison.
package harness

import (
	"fmt"

	"github.com/macrolens/macrolens/internal/cst"
	"github.com/macrolens/macrolens/internal/mir"
	"github.com/macrolens/macrolens/internal/session"
	"github.com/macrolens/macrolens/internal/testutil"
)

// Scenario describes one end-to-end translation.
type Scenario struct {
	Name     string
	Convert  bool
	Disabled []string

	// Build constructs the unit against the scenario's tree builder,
	// so literal identities and sentinels flow into the session.
	Build func(tb *testutil.TreeBuilder) (*cst.TranslationUnit, error)
}

// Result holds the outcome of a scenario run.
type Result struct {
	Module *mir.Node
	Text   string
}

// Run executes a scenario: build the unit, lower it, optionally
// convert, and emit.
func Run(sc *Scenario) (*Result, error) {
	if sc.Build == nil {
		return nil, fmt.Errorf("scenario %s: no Build function", sc.Name)
	}

	tb := testutil.NewTreeBuilder(sc.Name + ".c")
	unit, err := sc.Build(tb)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: build: %w", sc.Name, err)
	}

	opts := []session.Option{session.WithSource(tb.Lits, tb.Sentinels)}
	if sc.Convert {
		opts = append(opts, session.WithConvert())
	}
	if len(sc.Disabled) > 0 {
		opts = append(opts, session.WithDisabledRules(sc.Disabled...))
	}
	sess := session.New(opts...)

	mod := sess.Run(unit)
	text, err := sess.EmitText(mod)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: emit: %w", sc.Name, err)
	}
	return &Result{Module: mod, Text: text}, nil
}
