package warmstart

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, dirty DirtyChecker) *Store {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "warm.db"), false)
	require.NoError(t, err)
	return NewStore(db, dirty)
}

func TestSaveSymbolIndexRoundTrip(t *testing.T) {
	s := testStore(t, nil)

	rows := []SymbolIndexRow{
		{FilePath: "A.java", SymbolName: "com.example.A", Kind: "class"},
		{FilePath: "A.java", SymbolName: "com.example.A.x", Kind: "field"},
	}
	require.NoError(t, s.SaveSymbolIndex("proj", rows))

	got, err := s.LoadSymbolIndex("proj")
	require.NoError(t, err)
	require.Len(t, got, 2)

	var names []string
	for _, r := range got {
		names = append(names, r.SymbolName)
	}
	require.ElementsMatch(t, []string{"com.example.A", "com.example.A.x"}, names)
}

func TestSaveSymbolIndexReplacesPreviousRows(t *testing.T) {
	s := testStore(t, nil)

	require.NoError(t, s.SaveSymbolIndex("proj", []SymbolIndexRow{
		{FilePath: "A.java", SymbolName: "old.A", Kind: "class"},
	}))
	require.NoError(t, s.SaveSymbolIndex("proj", []SymbolIndexRow{
		{FilePath: "B.java", SymbolName: "new.B", Kind: "class"},
	}))

	got, err := s.LoadSymbolIndex("proj")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "new.B", got[0].SymbolName)
}

func TestSaveSymbolIndexRefusesDirtyFiles(t *testing.T) {
	s := testStore(t, func(path string) bool { return path == "Dirty.java" })

	require.NoError(t, s.SaveSymbolIndex("proj", []SymbolIndexRow{
		{FilePath: "Dirty.java", SymbolName: "d.D", Kind: "class"},
		{FilePath: "Clean.java", SymbolName: "c.C", Kind: "class"},
	}))

	got, err := s.LoadSymbolIndex("proj")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "c.C", got[0].SymbolName)
}

func TestStageThenFlushPersists(t *testing.T) {
	s := testStore(t, nil)

	s.StageSymbolIndex("proj", []SymbolIndexRow{
		{FilePath: "A.java", SymbolName: "a.A", Kind: "class"},
	})
	s.StageItemTreeFingerprints("proj", map[string]string{"A.java": "fp-1"})

	// Nothing hits the database until the flush step runs.
	got, err := s.LoadSymbolIndex("proj")
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, s.FlushToDisk())

	got, err = s.LoadSymbolIndex("proj")
	require.NoError(t, err)
	require.Len(t, got, 1)

	fp, ok := s.LoadItemTreeFingerprint("proj", "A.java")
	require.True(t, ok)
	require.Equal(t, "fp-1", fp)
}

func TestFlushIsDrainingNotRepeating(t *testing.T) {
	s := testStore(t, nil)

	s.StageSymbolIndex("proj", []SymbolIndexRow{
		{FilePath: "A.java", SymbolName: "a.A", Kind: "class"},
	})
	require.NoError(t, s.FlushToDisk())

	// A second flush with nothing staged must not wipe what the first
	// one wrote.
	require.NoError(t, s.FlushToDisk())
	got, err := s.LoadSymbolIndex("proj")
	require.NoError(t, err)
	require.Len(t, got, 1)
}
