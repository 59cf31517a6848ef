package typesys

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/termfx/nova/internal/intern"
)

// fakeIndex is a hand-rolled ClassIndex for tests: a map from a class's
// ClassDef id to the already-interned TypeIds of its direct supertypes
// (superclass first), the same shape a real workspace-backed ClassIndex
// would hand back once it resolves each supertype through the same
// Interner the caller is testing against.
type fakeIndex map[intern.TypeId][]intern.TypeId

func (f fakeIndex) Supertypes(def intern.TypeId) []intern.TypeId { return f[def] }

func TestIsSubtype_ReflexivityAndPrimitiveWidening(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)

	require.True(t, in.IsSubtype(nil, in.Primitive(PrimInt), in.Primitive(PrimInt)))
	require.True(t, in.IsSubtype(nil, in.Primitive(PrimInt), in.Primitive(PrimLong)))
	require.True(t, in.IsSubtype(nil, in.Primitive(PrimByte), in.Primitive(PrimDouble)))
	require.False(t, in.IsSubtype(nil, in.Primitive(PrimLong), in.Primitive(PrimInt)))
	require.False(t, in.IsSubtype(nil, in.Primitive(PrimChar), in.Primitive(PrimShort)))
}

func TestIsSubtype_ErrorAndNull(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)

	require.True(t, in.IsSubtype(nil, in.Error(), in.Primitive(PrimInt)))
	require.True(t, in.IsSubtype(nil, in.Primitive(PrimInt), in.Error()))
	require.True(t, in.IsSubtype(nil, in.Null(), in.NamedClass(names.Intern("String"))))
	require.False(t, in.IsSubtype(nil, in.Null(), in.Primitive(PrimInt)))
}

// buildHierarchy interns Object/Animal/Dog with distinct ClassDef
// identities and a fakeIndex describing Dog <: Animal <: Object.
func buildHierarchy(names *intern.Names, in *Interner) (object, animal, dog intern.TypeId, idx fakeIndex) {
	const objectDef, animalDef, dogDef intern.TypeId = 101, 102, 103
	object = in.intern(Type{Tag: TagClass, ClassDef: objectDef, ClassName: names.Intern("Object")})
	animal = in.intern(Type{Tag: TagClass, ClassDef: animalDef, ClassName: names.Intern("Animal")})
	dog = in.intern(Type{Tag: TagClass, ClassDef: dogDef, ClassName: names.Intern("Dog")})
	idx = fakeIndex{dogDef: {animal}, animalDef: {object}}
	return
}

func TestIsSubtype_ClassChain(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)
	object, animal, dog, idx := buildHierarchy(names, in)

	require.True(t, in.IsSubtype(idx, dog, animal))
	require.True(t, in.IsSubtype(idx, dog, object))
	require.False(t, in.IsSubtype(idx, animal, dog))
}

func TestIsSubtype_ArrayCovariance(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)
	object, animal, dog, idx := buildHierarchy(names, in)

	dogArr := in.Array(dog)
	animalArr := in.Array(animal)
	require.True(t, in.IsSubtype(idx, dogArr, animalArr))

	intArr := in.Array(in.Primitive(PrimInt))
	longArr := in.Array(in.Primitive(PrimLong))
	require.False(t, in.IsSubtype(idx, intArr, longArr), "primitive arrays are invariant")

	require.True(t, in.IsSubtype(idx, dogArr, object), "every array widens to Object")
}
