// Package types implements the source-level type model of lygos.
// Types are structural, immutable once built, and carry the source
// position they were written at.
package types

import "github.com/you-not-fish/lygos/internal/src"

// Type is the interface implemented by all types.
type Type interface {
	// Pos returns the position the type was written at.
	Pos() src.Pos

	// String returns the full rendered name of the type. Type equality
	// is defined on this name (see Matches).
	String() string

	// aType is a marker method to restrict implementations to this package.
	aType()
}

// typ is a base struct for all type implementations.
type typ struct {
	pos src.Pos
}

func (t typ) Pos() src.Pos { return t.pos }
func (typ) aType()         {}
