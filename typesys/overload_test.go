package typesys

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/termfx/nova/internal/intern"
)

func TestResolveOverload_UniqueApplicable(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)

	candidates := []Candidate{
		{Symbol: 1, ParamTypes: []intern.TypeId{in.Primitive(PrimInt)}},
	}
	res := in.ResolveOverload(nil, candidates, []intern.TypeId{in.Primitive(PrimInt)})
	require.Equal(t, MethodFound, res.Kind)
	require.Equal(t, intern.SymbolId(1), res.Found.Symbol)
}

func TestResolveOverload_NonVarargsBeatsVarargs(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)
	intT := in.Primitive(PrimInt)
	intArr := in.Array(intT)

	candidates := []Candidate{
		{Symbol: 1, ParamTypes: []intern.TypeId{intT, intT}},
		{Symbol: 2, ParamTypes: []intern.TypeId{intArr}, Varargs: true},
	}
	res := in.ResolveOverload(nil, candidates, []intern.TypeId{intT, intT})
	require.Equal(t, MethodFound, res.Kind)
	require.Equal(t, intern.SymbolId(1), res.Found.Symbol)
}

func TestResolveOverload_NarrowerParamWins(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)
	object, animal, dog, idx := buildHierarchy(names, in)

	candidates := []Candidate{
		{Symbol: 1, ParamTypes: []intern.TypeId{object}},
		{Symbol: 2, ParamTypes: []intern.TypeId{animal}},
	}
	res := in.ResolveOverload(idx, candidates, []intern.TypeId{dog})
	require.Equal(t, MethodFound, res.Kind)
	require.Equal(t, intern.SymbolId(2), res.Found.Symbol)
}

func TestResolveOverload_Ambiguous(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)

	const aDef, bDef, cDef intern.TypeId = 201, 202, 203
	a := in.intern(Type{Tag: TagClass, ClassDef: aDef, ClassName: names.Intern("A")})
	b := in.intern(Type{Tag: TagClass, ClassDef: bDef, ClassName: names.Intern("B")})
	arg := in.intern(Type{Tag: TagClass, ClassDef: cDef, ClassName: names.Intern("C")})
	idx := fakeIndex{cDef: {a, b}} // C implements both A and B, neither a supertype of the other

	candidates := []Candidate{
		{Symbol: 1, ParamTypes: []intern.TypeId{a}},
		{Symbol: 2, ParamTypes: []intern.TypeId{b}},
	}
	res := in.ResolveOverload(idx, candidates, []intern.TypeId{arg})
	require.Equal(t, MethodAmbiguous, res.Kind)
	require.Len(t, res.Candidates, 2)
	require.NotEmpty(t, res.Reason)
}

func TestResolveOverload_NoneApplicable(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)

	candidates := []Candidate{
		{Symbol: 1, ParamTypes: []intern.TypeId{in.Primitive(PrimBoolean)}},
	}
	res := in.ResolveOverload(nil, candidates, []intern.TypeId{in.NamedClass(names.Intern("String"))})
	require.Equal(t, MethodNotFound, res.Kind)
}

func TestResolveOverload_BoxingLosesToWidening(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)
	intT := in.Primitive(PrimInt)
	longT := in.Primitive(PrimLong)
	integerBoxed := in.NamedClass(names.Intern("Integer"))

	candidates := []Candidate{
		{Symbol: 1, ParamTypes: []intern.TypeId{longT}},        // widening
		{Symbol: 2, ParamTypes: []intern.TypeId{integerBoxed}}, // boxing
	}
	res := in.ResolveOverload(nil, candidates, []intern.TypeId{intT})
	require.Equal(t, MethodFound, res.Kind)
	require.Equal(t, intern.SymbolId(1), res.Found.Symbol)
}
