package typesys

import "github.com/termfx/nova/internal/intern"

// ClassIndex answers the class-hierarchy questions subtyping needs that
// this package cannot derive from a bare TypeId alone: a class type's
// direct supertypes (superclass first, then implemented interfaces, per
// declaration order — the same inheritance order name resolution uses,
// reused here for subtyping's transitive closure). It is supplied by the caller (backed
// by item trees across the workspace), keeping typesys itself free of a
// direct dependency on itemtree/resolve.
type ClassIndex interface {
	Supertypes(def intern.TypeId) []intern.TypeId
}

// IsSubtype implements Java's subtyping relation: reflexivity,
// primitive widening, class-chain subtyping (via idx), array covariance
// for reference element types, null <: any reference, and the three
// fixed array supertypes (Object, Cloneable, Serializable).
func (in *Interner) IsSubtype(idx ClassIndex, sub, sup intern.TypeId) bool {
	if sub == sup {
		return true
	}
	subT, ok := in.Lookup(sub)
	if !ok {
		return false
	}
	supT, ok2 := in.Lookup(sup)
	if !ok2 {
		return false
	}

	// Error is compatible with everything — it must never cascade a
	// second diagnostic on top of whatever produced it.
	if subT.Tag == TagError || supT.Tag == TagError {
		return true
	}

	switch subT.Tag {
	case TagPrimitive:
		if supT.Tag != TagPrimitive {
			return false
		}
		return in.widens(subT.Primitive, supT.Primitive)
	case TagNull:
		// null <: any reference type (anything but a primitive or void).
		return supT.Tag != TagPrimitive
	case TagArray:
		return in.arraySubtype(idx, subT, supT)
	case TagClass:
		return in.classSubtype(idx, sub, supT)
	case TagTypeVar:
		// A bare type-variable reference only ever equals itself here;
		// bound-based subtyping is resolved by the caller substituting
		// the variable's upper bound before calling IsSubtype.
		return false
	case TagIntersection:
		for _, p := range subT.Parts {
			if in.IsSubtype(idx, p, sup) {
				return true
			}
		}
		return false
	case TagWildcard:
		return false
	default:
		return false
	}
}

func (in *Interner) widens(from, to Primitive) bool {
	if from == to {
		return true
	}
	// char shares short's rank but neither widens to the other, and
	// nothing widens to char.
	if to == PrimChar || (from == PrimChar && to == PrimShort) {
		return false
	}
	fr, fok := widenRank[from]
	tr, tok := widenRank[to]
	if !fok || !tok {
		return false
	}
	return fr <= tr
}

var objectArrayBounds = map[string]bool{"Object": true, "Cloneable": true, "Serializable": true}

func (in *Interner) arraySubtype(idx ClassIndex, sub, sup Type) bool {
	if sup.Tag == TagClass {
		if name := in.NameText(sup); objectArrayBounds[simpleName(name)] {
			return true
		}
	}
	if sup.Tag != TagArray {
		return false
	}
	subElem, ok1 := in.Lookup(sub.ElemType)
	supElem, ok2 := in.Lookup(sup.ElemType)
	if !ok1 || !ok2 {
		return false
	}
	// Primitive arrays are invariant; only reference element types are
	// covariant.
	if subElem.Tag == TagPrimitive || supElem.Tag == TagPrimitive {
		return sub.ElemType == sup.ElemType
	}
	return in.IsSubtype(idx, sub.ElemType, sup.ElemType)
}

func (in *Interner) classSubtype(idx ClassIndex, subID intern.TypeId, sup Type) bool {
	subT, ok := in.Lookup(subID)
	if !ok {
		return false
	}
	if sup.Tag != TagClass {
		return false
	}
	if sameClassDef(subT, sup) {
		return true
	}
	if idx == nil || subT.ClassDef == 0 {
		return false
	}
	for _, superID := range idx.Supertypes(subT.ClassDef) {
		if in.classSubtype(idx, superID, sup) {
			return true
		}
	}
	return false
}

func sameClassDef(a, b Type) bool {
	if a.ClassDef != 0 && b.ClassDef != 0 {
		return a.ClassDef == b.ClassDef
	}
	return a.ClassName != 0 && a.ClassName == b.ClassName
}

func simpleName(qualified string) string {
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' {
			return qualified[i+1:]
		}
	}
	return qualified
}
