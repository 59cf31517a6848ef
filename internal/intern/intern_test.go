package intern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_InternIsStableAndIdentityEqual(t *testing.T) {
	tbl := NewTable[string]()

	a := tbl.Intern("java.util.List")
	b := tbl.Intern("java.util.List")
	c := tbl.Intern("java.util.Map")

	assert.Equal(t, a, b, "interning the same value twice must return the same ID")
	assert.NotEqual(t, a, c)

	text, ok := tbl.Lookup(a)
	require.True(t, ok)
	assert.Equal(t, "java.util.List", text)
}

func TestTable_LookupMissingIsFalse(t *testing.T) {
	tbl := NewTable[string]()
	_, ok := tbl.Lookup(0)
	assert.False(t, ok, "zero ID is reserved and never resolves")

	_, ok = tbl.Lookup(999)
	assert.False(t, ok)
}

func TestTable_SnapshotRestoreSurvivesRebuild(t *testing.T) {
	tbl := NewTable[string]()
	a := tbl.Intern("A")
	snap := tbl.Snapshot()

	tbl.Intern("B") // simulate further interning before a rebuild discards it

	tbl.Restore(snap)

	text, ok := tbl.Lookup(a)
	require.True(t, ok)
	assert.Equal(t, "A", text)

	// B was interned after the snapshot, so restoring drops it.
	assert.Equal(t, 1, tbl.Len())
}

func TestCounter_NeverReissuesZero(t *testing.T) {
	var c Counter
	first := c.Next()
	second := c.Next()
	assert.NotEqual(t, ID(0), first)
	assert.NotEqual(t, first, second)
}

func TestNamesAndPackages(t *testing.T) {
	names := NewNames()
	n1 := names.Intern("x")
	n2 := names.Intern("x")
	assert.Equal(t, n1, n2)

	pkgs := NewPackages()
	p := pkgs.Intern("java.lang")
	text, ok := pkgs.Text(p)
	require.True(t, ok)
	assert.Equal(t, "java.lang", text)
}
