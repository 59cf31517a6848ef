package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetFileAssignsStableId(t *testing.T) {
	s := New()

	id1, rev1 := s.SetFile("A.java", "class A {}")
	id2, rev2 := s.SetFile("A.java", "class A { int x; }")

	assert.Equal(t, id1, id2, "editing an existing path must not re-issue its FileId")
	assert.Greater(t, rev2, rev1)

	snap := s.Snapshot()
	text, ok := snap.FileText(id1)
	require.True(t, ok)
	assert.Equal(t, "class A { int x; }", text)
}

func TestStore_SnapshotIsIsolatedFromLaterWrites(t *testing.T) {
	s := New()
	id, _ := s.SetFile("A.java", "v1")
	snap := s.Snapshot()

	s.SetFile("A.java", "v2")

	text, ok := snap.FileText(id)
	require.True(t, ok)
	assert.Equal(t, "v1", text, "a snapshot must not observe writes made after it was taken")
}

func TestStore_RenameFilePreservesId(t *testing.T) {
	s := New()
	id, _ := s.SetFile("Old.java", "class Old {}")

	_, err := s.RenameFile(id, "New.java")
	require.NoError(t, err)

	snap := s.Snapshot()
	gotId, ok := snap.FileByPath("New.java")
	require.True(t, ok)
	assert.Equal(t, id, gotId)

	_, ok = snap.FileByPath("Old.java")
	assert.False(t, ok)
}

func TestStore_RemoveFile(t *testing.T) {
	s := New()
	id, _ := s.SetFile("A.java", "class A {}")
	s.RemoveFile(id)

	snap := s.Snapshot()
	_, ok := snap.FileText(id)
	assert.False(t, ok)
}

func TestStore_BatchBumpsRevisionOnce(t *testing.T) {
	s := New()
	before := s.Revision()

	text1, text2 := "class A {}", "class B {}"
	rev, err := s.Batch([]Write{
		{Path: "A.java", Text: &text1},
		{Path: "B.java", Text: &text2},
	})
	require.NoError(t, err)
	assert.Equal(t, before+1, rev)

	snap := s.Snapshot()
	_, ok := snap.FileByPath("A.java")
	assert.True(t, ok)
	_, ok = snap.FileByPath("B.java")
	assert.True(t, ok)
}

func TestStore_ClasspathAndLanguageLevel(t *testing.T) {
	s := New()
	proj := NewProjectId()
	s.SetClasspath(proj, []string{"libs/**/*.jar", "classes/"})
	s.SetLanguageLevel(proj, LanguageLevel{Major: 17, Preview: false})

	snap := s.Snapshot()
	assert.Equal(t, []string{"libs/**/*.jar", "classes/"}, snap.Classpath(proj))
	lv, ok := snap.LanguageLevel(proj)
	require.True(t, ok)
	assert.Equal(t, 17, lv.Major)
}

func TestExpandGlobs(t *testing.T) {
	matches, err := ExpandGlobs("libs/**/*.jar", []string{
		"libs/a.jar", "libs/sub/b.jar", "libs/readme.txt",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"libs/a.jar", "libs/sub/b.jar"}, matches)
}
