package warmstart

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/internal/persist"
	"github.com/termfx/nova/memory"
)

// namesDump is the on-disk shape of an intern.Names snapshot: just the
// ID-ordered slice of interned strings, since intern.Table.Restore only
// needs byID (byValue is rebuilt from it when LoadFromDisk re-interns
// the strings).
type namesDump struct {
	Project string   `json:"project"`
	Names   []string `json:"names"`
}

// NameTableStore persists the process's interned Name table to a flat
// file via internal/persist's atomic-write/transaction machinery, giving
// the memory manager's flush_to_disk step a home for the artifact that
// the GORM-backed Store (SymbolIndexRow, ItemTreeFingerprint) doesn't
// cover: the interning table itself, which must be preserved around
// rebuilds via snapshot/restore — persisting it across a process
// restart is the same property extended across restarts.
type NameTableStore struct {
	path    string
	project string
	names   *intern.Names
	writer  *persist.AtomicWriter
	txn     *persist.Manager
	dirty   bool
}

// NewNameTableStore wires names up to be dumped to path on flush,
// logging transactions under logDir.
func NewNameTableStore(path, logDir, project string, names *intern.Names) *NameTableStore {
	w := persist.NewAtomicWriter(persist.DefaultWriteConfig())
	return &NameTableStore{
		path:    path,
		project: project,
		names:   names,
		writer:  w,
		txn:     persist.NewManager(logDir, w),
	}
}

// MarkDirty flags that names has grown since the last flush, so the next
// FlushToDisk call actually writes instead of skipping.
func (s *NameTableStore) MarkDirty() { s.dirty = true }

// FlushToDisk writes the current Names table to s.path inside a logged
// transaction, rolling back on any write failure (memory.Flusher
// contract: never panic, ignore I/O errors beyond best-effort rollback).
func (s *NameTableStore) FlushToDisk() (err error) {
	if !s.dirty {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("warmstart: name table flush panicked: %v", r)
		}
	}()

	dump := namesDump{Project: s.project}
	for i := 1; i <= s.names.Len(); i++ {
		if v, ok := s.names.Text(intern.Name(i)); ok {
			dump.Names = append(dump.Names, v)
		}
	}
	data, jsonErr := json.Marshal(dump)
	if jsonErr != nil {
		return fmt.Errorf("warmstart: marshal name table: %w", jsonErr)
	}

	tx := s.txn.Begin(fmt.Sprintf("names-%s", s.project))
	if err := tx.WriteArtifact(s.path, data); err != nil {
		tx.Rollback()
		return fmt.Errorf("warmstart: flush name table: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("warmstart: commit name table flush: %w", err)
	}
	s.dirty = false
	return nil
}

// LoadFromDisk reads a previously flushed name table, re-interning every
// entry into s.names in its original ID order so previously-handed-out
// Name values stay valid after a fresh process load.
func (s *NameTableStore) LoadFromDisk() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("warmstart: read name table: %w", err)
	}
	var dump namesDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return fmt.Errorf("warmstart: unmarshal name table: %w", err)
	}
	for _, n := range dump.Names {
		s.names.Intern(n)
	}
	return nil
}

// EstimatedBytes implements memory.Evictor: a rough per-entry estimate,
// cheap enough to call on every Enforce pass.
func (s *NameTableStore) EstimatedBytes() int64 {
	return int64(s.names.Len()) * 32
}

// EvictionPriority places the name table last: it's process-wide and
// every live Name/SymbolId/TypeId references it, so it must never be
// cleared while anything still holds an interned ID.
func (s *NameTableStore) EvictionPriority() int { return 1000 }

// Evict is a no-op: the interning table is never shed under pressure,
// only (optionally) persisted — clearing it would invalidate every live
// Name value still referenced by query results.
func (s *NameTableStore) Evict(targetBytes int64, pressure memory.Pressure) {}
