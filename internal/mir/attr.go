package mir

import (
	"fmt"
	"strconv"
)

// AttrValue is a sealed interface over the literal values a node
// attribute may hold. Only AttrString, AttrInt, and AttrSymbol
// implement it, which keeps emission exhaustive over a fixed set of
// attribute shapes.
type AttrValue interface {
	attrValue() // Sealed - only types in this package implement it
}

// AttrString is a plain string attribute (e.g. raw macro argument text).
type AttrString string

func (AttrString) attrValue() {}

// AttrInt is an integer attribute. Always int64, never a float.
type AttrInt int64

func (AttrInt) attrValue() {}

// AttrSymbol is a reference to a named symbol (a type name, member
// name, or callee). It prints differently from AttrString so downstream
// tooling can tell a name reference from opaque text.
type AttrSymbol string

func (AttrSymbol) attrValue() {}

// FormatAttr renders an attribute value in the stable textual form used
// by the emitter: strings quoted, integers bare, symbols prefixed @.
func FormatAttr(v AttrValue) string {
	switch val := v.(type) {
	case AttrString:
		return strconv.Quote(string(val))
	case AttrInt:
		return strconv.FormatInt(int64(val), 10)
	case AttrSymbol:
		return "@" + string(val)
	default:
		// Unreachable for sealed AttrValue; keep emission total anyway.
		return fmt.Sprintf("<?%T>", v)
	}
}
