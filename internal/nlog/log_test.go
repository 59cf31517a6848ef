package nlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct{ records []Record }

func (c *captureSink) Emit(r Record) { c.records = append(c.records, r) }

func TestLogger_FiltersBelowMinLevel(t *testing.T) {
	sink := &captureSink{}
	l := New("nova", LevelWarning, sink)

	l.Debug("ignored", nil)
	l.Info("also ignored", nil)
	l.Warning("kept", Fields{"pressure": "high"})
	l.Error("kept too", nil)

	require.Len(t, sink.records, 2)
	assert.Equal(t, "kept", sink.records[0].Message)
	assert.Equal(t, LevelWarning, sink.records[0].Level)
	assert.Equal(t, "high", sink.records[0].Fields["pressure"])
	assert.Equal(t, LevelError, sink.records[1].Level)
}

func TestLogger_WithNamesSubLogger(t *testing.T) {
	sink := &captureSink{}
	l := New("nova", LevelDebug, sink)
	child := l.With("query")
	child.Info("cache hit", nil)

	require.Len(t, sink.records, 1)
	assert.Equal(t, "nova.query", sink.records[0].Logger)
}
