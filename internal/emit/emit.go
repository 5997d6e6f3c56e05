// Package emit serializes a mir module to a stable, parseable textual
// form for downstream tooling.
//
// One node per line: an optional result number (the node's arena ID,
// so untouched nodes print identically before and after a conversion
// pass), a dialect-qualified mnemonic, operand references, attributes
// in sorted key order, nested regions in braces, and the source
// location. Every kind in the closed enumeration has a mnemonic; an
// unknown kind is an emission error, not a silent skip.
package emit

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/macrolens/macrolens/internal/mir"
)

// mnemonics maps every node kind to its stable printed name. The
// emitter fails loudly on a kind missing here; the completeness test
// walks the whole enumeration.
var mnemonics = map[mir.Kind]string{
	mir.KindModule:         "mir.module",
	mir.KindFunc:           "mir.func",
	mir.KindBlock:          "mir.block",
	mir.KindRegionArg:      "mir.region_arg",
	mir.KindDecl:           "mir.decl",
	mir.KindIntLit:         "mir.int_lit",
	mir.KindSymbolRef:      "mir.symbol_ref",
	mir.KindUnOp:           "mir.unop",
	mir.KindBinOp:          "mir.binop",
	mir.KindAssign:         "mir.assign",
	mir.KindMember:         "mir.member",
	mir.KindCast:           "mir.cast",
	mir.KindCall:           "mir.call",
	mir.KindOpaque:         "mir.opaque",
	mir.KindFor:            "mir.for",
	mir.KindIf:             "mir.if",
	mir.KindMacroExpansion: "macro.expansion",
	mir.KindUnsafeRegion:   "safety.unsafe_region",
	mir.KindGetUser:        "kernel.get_user",
	mir.KindOffsetOf:       "kernel.offset_of",
	mir.KindContainerOf:    "kernel.container_of",
	mir.KindRCUDereference: "kernel.rcu_dereference",
	mir.KindRCUReadLock:    "kernel.rcu_read_lock",
	mir.KindRCUReadUnlock:  "kernel.rcu_read_unlock",
	mir.KindMemoryBarrier:  "kernel.memory_barrier",
	mir.KindListIteration:  "kernel.list_iteration",
}

// valueless kinds never print a result number; nothing references them
// as an operand.
var valueless = map[mir.Kind]bool{
	mir.KindModule:        true,
	mir.KindFunc:          true,
	mir.KindBlock:         true,
	mir.KindFor:           true,
	mir.KindIf:            true,
	mir.KindUnsafeRegion:  true,
	mir.KindMemoryBarrier: true,
	mir.KindRCUReadLock:   true,
	mir.KindRCUReadUnlock: true,
	mir.KindListIteration: true,
}

// Emit writes the module to w.
func Emit(w io.Writer, root *mir.Node) error {
	bw := bufio.NewWriter(w)
	e := &emitter{w: bw}
	if err := e.node(root, 0); err != nil {
		return err
	}
	return bw.Flush()
}

// EmitString renders the module to a string.
func EmitString(root *mir.Node) (string, error) {
	var sb strings.Builder
	if err := Emit(&sb, root); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type emitter struct {
	w *bufio.Writer
}

func (e *emitter) node(n *mir.Node, depth int) error {
	mnemonic, ok := mnemonics[n.Kind()]
	if !ok {
		return fmt.Errorf("emit: no mnemonic for kind %q (%d)", n.Kind(), int(n.Kind()))
	}

	e.ws(depth)
	if !valueless[n.Kind()] {
		fmt.Fprintf(e.w, "%%%d = ", n.ID())
	}
	e.w.WriteString(mnemonic)

	if n.NumOperands() > 0 {
		e.w.WriteByte('(')
		for i, op := range n.Operands() {
			if i > 0 {
				e.w.WriteString(", ")
			}
			fmt.Fprintf(e.w, "%%%d", op.ID())
		}
		e.w.WriteByte(')')
	}

	if names := n.AttrNames(); len(names) > 0 {
		e.w.WriteString(" {")
		for i, name := range names {
			if i > 0 {
				e.w.WriteString(", ")
			}
			v, _ := n.Attr(name)
			fmt.Fprintf(e.w, "%s = %s", name, mir.FormatAttr(v))
		}
		e.w.WriteByte('}')
	}

	for _, r := range n.Regions() {
		e.w.WriteString(" {")
		if len(r.Args()) > 0 {
			e.w.WriteString(" args(")
			for i, arg := range r.Args() {
				if i > 0 {
					e.w.WriteString(", ")
				}
				fmt.Fprintf(e.w, "%%%d", arg.ID())
			}
			e.w.WriteByte(')')
		}
		e.w.WriteByte('\n')
		for _, sub := range r.Nodes() {
			if err := e.node(sub, depth+1); err != nil {
				return err
			}
		}
		e.ws(depth)
		e.w.WriteByte('}')
	}

	if loc := n.Loc(); !loc.Unknown() {
		fmt.Fprintf(e.w, " loc(%q:%d:%d)", loc.File, loc.Line, loc.Col)
	}
	e.w.WriteByte('\n')
	return nil
}

func (e *emitter) ws(depth int) {
	for i := 0; i < depth; i++ {
		e.w.WriteString("  ")
	}
}
