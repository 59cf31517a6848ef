package typesys

import "github.com/termfx/nova/internal/intern"

// Candidate is one overload of a call target: its parameter types (in
// declaration order) and whether its last parameter is a varargs array.
type Candidate struct {
	Symbol    intern.SymbolId
	ParamTypes []intern.TypeId
	Varargs   bool
}

// MethodResolutionKind tags resolve_method's sentinel outcome.
type MethodResolutionKind int

const (
	MethodFound MethodResolutionKind = iota
	MethodAmbiguous
	MethodNotFound
)

// MethodResolution is resolve_method's result: Found carries the
// winning Candidate; Ambiguous carries every tied candidate plus a
// human-readable Reason built from the tie-break rules that failed to
// separate them.
type MethodResolution struct {
	Kind       MethodResolutionKind
	Found      Candidate
	Candidates []Candidate
	Reason     string
}

// Eq implements query.Value.
func (m MethodResolution) Eq(v any) bool {
	o, ok := v.(MethodResolution)
	if !ok || m.Kind != o.Kind {
		return false
	}
	switch m.Kind {
	case MethodFound:
		return m.Found.Symbol == o.Found.Symbol
	case MethodAmbiguous:
		if len(m.Candidates) != len(o.Candidates) {
			return false
		}
		for i := range m.Candidates {
			if m.Candidates[i].Symbol != o.Candidates[i].Symbol {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// applicability is the per-candidate verdict phase 2 produces: whether it
// applies at all, and if so, how (tie-break inputs for phase 3).
type applicability struct {
	cand        Candidate
	ok          bool
	usedVarargs bool
	boxingUsed  bool
}

// ResolveOverload runs the three-phase algorithm: gather candidates
// (the caller already did, passing them in), filter by applicability,
// then pick the most specific.
func (in *Interner) ResolveOverload(idx ClassIndex, candidates []Candidate, argTypes []intern.TypeId) MethodResolution {
	var applicable []applicability
	for _, c := range candidates {
		if a, ok := in.applicable(idx, c, argTypes); ok {
			applicable = append(applicable, a)
		}
	}
	if len(applicable) == 0 {
		return MethodResolution{Kind: MethodNotFound}
	}
	if len(applicable) == 1 {
		return MethodResolution{Kind: MethodFound, Found: applicable[0].cand}
	}

	best := applicable[0]
	tie := false
	for _, other := range applicable[1:] {
		switch in.compareSpecificity(idx, best, other) {
		case 1:
			// best stays more specific
		case -1:
			best = other
			tie = false
		default:
			tie = true
		}
	}
	if tie {
		// Re-verify best actually dominates every other candidate; a
		// single pairwise tie anywhere means no unique maximum exists.
		for _, other := range applicable {
			if other.cand.Symbol == best.cand.Symbol {
				continue
			}
			if in.compareSpecificity(idx, best, other) != 1 {
				cands := make([]Candidate, len(applicable))
				for i, a := range applicable {
					cands[i] = a.cand
				}
				return MethodResolution{Kind: MethodAmbiguous, Candidates: cands, Reason: "no single most-specific applicable method"}
			}
		}
	}
	return MethodResolution{Kind: MethodFound, Found: best.cand}
}

// applicable implements phase 2: arity (with varargs expansion considered
// separately) and per-argument assignment compatibility, boxing/unboxing
// considered last.
func (in *Interner) applicable(idx ClassIndex, c Candidate, args []intern.TypeId) (applicability, bool) {
	if !c.Varargs {
		if len(c.ParamTypes) != len(args) {
			return applicability{}, false
		}
		boxing := false
		for i, p := range c.ParamTypes {
			ok, usedBoxing := in.assignable(idx, args[i], p)
			if !ok {
				return applicability{}, false
			}
			boxing = boxing || usedBoxing
		}
		return applicability{cand: c, ok: true, boxingUsed: boxing}, true
	}

	fixed := len(c.ParamTypes) - 1
	if len(args) < fixed {
		return applicability{}, false
	}
	boxing := false
	for i := 0; i < fixed; i++ {
		ok, usedBoxing := in.assignable(idx, args[i], c.ParamTypes[i])
		if !ok {
			return applicability{}, false
		}
		boxing = boxing || usedBoxing
	}
	varargType, ok := in.Lookup(c.ParamTypes[fixed])
	if !ok || varargType.Tag != TagArray {
		return applicability{}, false
	}
	// Exact arity with the last arg already an array of the right type is
	// a non-varargs-shaped call and preferred over expansion; callers
	// needing that distinction compare usedVarargs across candidates.
	if len(args) == len(c.ParamTypes) {
		if ok2, _ := in.assignable(idx, args[fixed], c.ParamTypes[fixed]); ok2 {
			return applicability{cand: c, ok: true, usedVarargs: false}, true
		}
	}
	for i := fixed; i < len(args); i++ {
		ok, usedBoxing := in.assignable(idx, args[i], varargType.ElemType)
		if !ok {
			return applicability{}, false
		}
		boxing = boxing || usedBoxing
	}
	return applicability{cand: c, ok: true, usedVarargs: true, boxingUsed: boxing}, true
}

// boxedNames maps each primitive to its java.lang wrapper's simple name,
// the only class names autobox/auto-unbox conversions are allowed to
// cross.
var boxedNames = map[Primitive]string{
	PrimBoolean: "Boolean", PrimByte: "Byte", PrimShort: "Short", PrimChar: "Character",
	PrimInt: "Integer", PrimLong: "Long", PrimFloat: "Float", PrimDouble: "Double",
}

// assignable reports whether arg is assignment-compatible with param,
// and whether getting there required treating the pairing as a boxing
// conversion — widening is preferred over boxing per the tie-break rules,
// so this fact alone doesn't reject the conversion, only ranks it lower.
func (in *Interner) assignable(idx ClassIndex, arg, param intern.TypeId) (ok bool, boxing bool) {
	if in.IsSubtype(idx, arg, param) {
		return true, false
	}
	argT, aok := in.Lookup(arg)
	paramT, pok := in.Lookup(param)
	if !aok || !pok {
		return false, false
	}
	if argT.Tag == TagPrimitive && paramT.Tag == TagClass {
		if boxedNames[argT.Primitive] == simpleName(in.NameText(paramT)) {
			return true, true // autobox
		}
		return false, false
	}
	if argT.Tag == TagClass && paramT.Tag == TagPrimitive {
		if boxedNames[paramT.Primitive] == simpleName(in.NameText(argT)) {
			return true, true // auto-unbox
		}
		return false, false
	}
	return false, false
}

// compareSpecificity implements phase 3's pairwise "more specific" test
// plus its tie-breaks: non-varargs beats varargs, boxing-free beats
// boxing, widening is preferred over boxing. Returns 1 if a
// is more specific, -1 if b is, 0 if neither dominates.
func (in *Interner) compareSpecificity(idx ClassIndex, a, b applicability) int {
	if a.usedVarargs != b.usedVarargs {
		if a.usedVarargs {
			return -1
		}
		return 1
	}
	if a.boxingUsed != b.boxingUsed {
		if a.boxingUsed {
			return -1
		}
		return 1
	}
	aMoreSpecific := paramsSubtype(in, idx, a.cand.ParamTypes, b.cand.ParamTypes)
	bMoreSpecific := paramsSubtype(in, idx, b.cand.ParamTypes, a.cand.ParamTypes)
	switch {
	case aMoreSpecific && !bMoreSpecific:
		return 1
	case bMoreSpecific && !aMoreSpecific:
		return -1
	default:
		return 0
	}
}

// paramsSubtype reports whether every parameter type of from is a subtype
// of the corresponding parameter type of to.
func paramsSubtype(in *Interner, idx ClassIndex, from, to []intern.TypeId) bool {
	n := len(from)
	if len(to) < n {
		n = len(to)
	}
	for i := 0; i < n; i++ {
		if !in.IsSubtype(idx, from[i], to[i]) {
			return false
		}
	}
	return true
}
