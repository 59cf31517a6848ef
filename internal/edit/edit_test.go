package edit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplySingleEdit(t *testing.T) {
	out, err := Apply("hello world", []TextEdit{{Start: 6, End: 11, NewText: "there"}})
	require.NoError(t, err)
	require.Equal(t, "hello there", out)
}

func TestApplyMultipleEditsOutOfOrder(t *testing.T) {
	out, err := Apply("abcdef", []TextEdit{
		{Start: 4, End: 6, NewText: "Z"},
		{Start: 0, End: 2, NewText: "X"},
	})
	require.NoError(t, err)
	require.Equal(t, "XcdZ", out)
}

func TestApplyRejectsOverlap(t *testing.T) {
	_, err := Apply("abcdef", []TextEdit{
		{Start: 0, End: 3, NewText: "X"},
		{Start: 2, End: 4, NewText: "Y"},
	})
	require.Error(t, err)
}

func TestRenderUnifiedDiffShowsChange(t *testing.T) {
	out, err := RenderUnifiedDiff("A.java", "a\nb\nc\n", "a\nB\nc\n", 1)
	require.NoError(t, err)
	require.Contains(t, out, "-b")
	require.Contains(t, out, "+B")
}
