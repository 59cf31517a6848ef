// Package typesys computes type_of(Expr) and validates assignments and
// overload calls. Types are interned — equality is identity —
// so query.Func's early-cutoff check over a type_of result stays O(1)
// exactly like every other query output.
package typesys

import (
	"fmt"
	"strings"
	"sync"

	"github.com/termfx/nova/internal/intern"
)

// Primitive enumerates Java's primitive kinds plus void, which behaves
// like a primitive for typing purposes (no value, no subtyping targets).
type Primitive int

const (
	PrimBoolean Primitive = iota
	PrimByte
	PrimShort
	PrimChar
	PrimInt
	PrimLong
	PrimFloat
	PrimDouble
	PrimVoid
)

func (p Primitive) String() string {
	switch p {
	case PrimBoolean:
		return "boolean"
	case PrimByte:
		return "byte"
	case PrimShort:
		return "short"
	case PrimChar:
		return "char"
	case PrimInt:
		return "int"
	case PrimLong:
		return "long"
	case PrimFloat:
		return "float"
	case PrimDouble:
		return "double"
	case PrimVoid:
		return "void"
	default:
		return "?"
	}
}

// widenRank orders primitive numeric widening per the JLS: a lower-rank
// type widens to any higher-rank type in the same chain (byte/short/char
// all widen to int and beyond, and byte widens to short; char and short
// share a rank, and widens rejects every widening to or from char below
// int).
var widenRank = map[Primitive]int{
	PrimByte: 1, PrimShort: 2, PrimChar: 2,
	PrimInt: 3, PrimLong: 4, PrimFloat: 5, PrimDouble: 6,
}

// WildcardBound tags a Wildcard type's bound kind.
type WildcardBound int

const (
	Unbounded WildcardBound = iota
	Extends
	Super
)

// Tag discriminates Type's variants.
type Tag int

const (
	TagPrimitive Tag = iota
	TagClass
	TagArray
	TagTypeVar
	TagWildcard
	TagIntersection
	TagNull
	TagError
)

// Type is one interned type value. Only the fields relevant to Tag are
// meaningful; the rest are zero. Construct Types only through an
// Interner so identical shapes collapse to the same TypeId.
type Type struct {
	Tag Tag

	Primitive Primitive // TagPrimitive

	ClassDef intern.TypeId // TagClass: the generic declaration's own id
	ClassArgs []intern.TypeId // TagClass: type arguments, empty if raw

	ElemType intern.TypeId // TagArray

	VarName intern.Name // TagTypeVar

	WildcardKind  WildcardBound // TagWildcard
	WildcardBound intern.TypeId // TagWildcard, zero if Unbounded

	Parts []intern.TypeId // TagIntersection

	// ClassName carries a class type's canonical name for declarations
	// that are not (yet) backed by a resolved symbol — e.g. java.lang
	// builtins registered directly by name. Zero for structural
	// class-applications built from an existing ClassDef id.
	ClassName intern.Name
}

// key renders a structural fingerprint for interning: two Types with
// equal keys intern to the same TypeId.
func (t Type) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|", t.Tag)
	switch t.Tag {
	case TagPrimitive:
		fmt.Fprintf(&b, "%d", t.Primitive)
	case TagClass:
		fmt.Fprintf(&b, "%d|%d|", t.ClassDef, t.ClassName)
		for _, a := range t.ClassArgs {
			fmt.Fprintf(&b, "%d,", a)
		}
	case TagArray:
		fmt.Fprintf(&b, "%d", t.ElemType)
	case TagTypeVar:
		fmt.Fprintf(&b, "%d", t.VarName)
	case TagWildcard:
		fmt.Fprintf(&b, "%d|%d", t.WildcardKind, t.WildcardBound)
	case TagIntersection:
		for _, p := range t.Parts {
			fmt.Fprintf(&b, "%d,", p)
		}
	case TagNull, TagError:
		// singleton, no payload
	}
	return b.String()
}

// Interner hands out stable TypeIds for structurally distinct Types
//. One Interner is shared process-wide,
// passed explicitly like every other dependency.
type Interner struct {
	mu     sync.RWMutex
	byKey  map[string]intern.TypeId
	byID   []Type
	names  *intern.Names
	errID  intern.TypeId
	nullID intern.TypeId
}

// NewInterner creates an Interner sharing names for TagTypeVar/TagClass
// name payloads, pre-registering the Error and Null singletons.
func NewInterner(names *intern.Names) *Interner {
	in := &Interner{byKey: map[string]intern.TypeId{}, byID: make([]Type, 1), names: names}
	in.errID = in.intern(Type{Tag: TagError})
	in.nullID = in.intern(Type{Tag: TagNull})
	return in
}

func (in *Interner) intern(t Type) intern.TypeId {
	k := t.key()
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.byKey[k]; ok {
		return id
	}
	id := intern.TypeId(len(in.byID))
	in.byID = append(in.byID, t)
	in.byKey[k] = id
	return id
}

// Lookup resolves id back to its Type.
func (in *Interner) Lookup(id intern.TypeId) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) <= 0 || int(id) >= len(in.byID) {
		return Type{}, false
	}
	return in.byID[id], true
}

// Error is the sentinel "type of a failed computation".
func (in *Interner) Error() intern.TypeId { return in.errID }

// Null is the type of the null literal; `null <: any reference` in
// subtyping.
func (in *Interner) Null() intern.TypeId { return in.nullID }

// Primitive interns (or returns the existing id for) a primitive type.
func (in *Interner) Primitive(p Primitive) intern.TypeId { return in.intern(Type{Tag: TagPrimitive, Primitive: p}) }

// Class interns a named class/interface type with the given generic
// definition id and type arguments (empty args means "raw type").
func (in *Interner) Class(def intern.TypeId, name intern.Name, args...intern.TypeId) intern.TypeId {
	return in.intern(Type{Tag: TagClass, ClassDef: def, ClassName: name, ClassArgs: args})
}

// NamedClass interns a class type identified purely by canonical name
// (used for java.lang/library builtins that have no in-workspace
// declaration to serve as ClassDef).
func (in *Interner) NamedClass(name intern.Name, args...intern.TypeId) intern.TypeId {
	return in.intern(Type{Tag: TagClass, ClassName: name, ClassArgs: args})
}

// Array interns an array type with the given element type.
func (in *Interner) Array(elem intern.TypeId) intern.TypeId {
	return in.intern(Type{Tag: TagArray, ElemType: elem})
}

// TypeVar interns a type-variable reference by name.
func (in *Interner) TypeVar(name intern.Name) intern.TypeId {
	return in.intern(Type{Tag: TagTypeVar, VarName: name})
}

// Wildcard interns a wildcard type-argument.
func (in *Interner) Wildcard(kind WildcardBound, bound intern.TypeId) intern.TypeId {
	return in.intern(Type{Tag: TagWildcard, WildcardKind: kind, WildcardBound: bound})
}

// Intersection interns an intersection type (e.g. a cast's "A & B").
func (in *Interner) Intersection(parts...intern.TypeId) intern.TypeId {
	return in.intern(Type{Tag: TagIntersection, Parts: parts})
}

// NameText resolves a class/type-variable Type's interned Name back to
// text, for diagnostics.
func (in *Interner) NameText(t Type) string {
	switch t.Tag {
	case TagClass:
		if s, ok := in.names.Text(t.ClassName); ok {
			return s
		}
	case TagTypeVar:
		if s, ok := in.names.Text(t.VarName); ok {
			return s
		}
	}
	return ""
}
