// Package warmstart is Nova's GORM-backed persistence for the memory
// manager's flush_to_disk path: selected
// warm-start caches — workspace symbol index rows and parsed-item-tree
// fingerprints — may be written to disk and reloaded on the next
// process start, never as a correctness requirement. The pure-Go
// glebarez/sqlite dialector keeps the build cgo-free.
package warmstart

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/termfx/nova/memory"
)

// SymbolIndexRow is one persisted workspace symbol index entry: enough
// to rebuild a coarse symbol_at/references index without re-parsing
// every file, keyed by the file's path (not its FileId, which is
// re-issued on a fresh project load).
type SymbolIndexRow struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	ProjectID  string    `gorm:"type:varchar(64);index"`
	FilePath   string    `gorm:"type:text;index"`
	SymbolName string    `gorm:"type:text;index"`
	Kind       string    `gorm:"type:varchar(20)"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (SymbolIndexRow) TableName() string { return "symbol_index" }

// ItemTreeFingerprint is one file's item-tree cheap-equality fingerprint
// (a hash over itemtree.Tree's declaration skeleton), letting a fresh
// process decide whether a reparsed file's item tree is unchanged
// without keeping the full tree around.
type ItemTreeFingerprint struct {
	ProjectID   string    `gorm:"primaryKey;type:varchar(64)"`
	FilePath    string    `gorm:"primaryKey;type:text"`
	Fingerprint string    `gorm:"type:varchar(64)"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (ItemTreeFingerprint) TableName() string { return "item_tree_fingerprints" }

// Connect opens (creating if needed) a pure-Go SQLite warm-start
// database at path and runs migrations.
func Connect(path string, debug bool) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("warmstart: create dir: %w", err)
		}
	}
	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("warmstart: connect: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("warmstart: migrate: %w", err)
	}
	return db, nil
}

// Migrate creates/updates the warm-start schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&SymbolIndexRow{}, &ItemTreeFingerprint{})
}

// DirtyChecker reports whether a file's current content is an unsaved
// overlay (has diverged from what's on disk), so a Store can refuse to
// persist artifacts derived from it.
type DirtyChecker func(path string) bool

// Store wraps a warm-start database with the dirty-overlay refusal rule
// baked into every write path. Callers stage freshly derived artifacts
// as they compute them (cheap, in-memory); FlushToDisk persists whatever
// is staged when the memory manager's flush step runs.
type Store struct {
	db    *gorm.DB
	dirty DirtyChecker

	mu        sync.Mutex
	stagedSym map[string][]SymbolIndexRow
	stagedFP  map[string]map[string]string
}

// NewStore wraps db, consulting dirty (if non-nil) before every
// persisted write.
func NewStore(db *gorm.DB, dirty DirtyChecker) *Store {
	if dirty == nil {
		dirty = func(string) bool { return false }
	}
	return &Store{
		db:        db,
		dirty:     dirty,
		stagedSym: map[string][]SymbolIndexRow{},
		stagedFP:  map[string]map[string]string{},
	}
}

// SaveSymbolIndex replaces project's persisted rows with rows, skipping
// any whose file is currently dirty.
func (s *Store) SaveSymbolIndex(project string, rows []SymbolIndexRow) error {
	clean := rows[:0:0]
	for _, r := range rows {
		if s.dirty(r.FilePath) {
			continue
		}
		r.ID = 0
		r.ProjectID = project
		clean = append(clean, r)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project).Delete(&SymbolIndexRow{}).Error; err != nil {
			return err
		}
		if len(clean) == 0 {
			return nil
		}
		return tx.Create(&clean).Error
	})
}

// StageSymbolIndex records project's freshly derived symbol rows for the
// next FlushToDisk, replacing any previously staged set.
func (s *Store) StageSymbolIndex(project string, rows []SymbolIndexRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stagedSym[project] = append([]SymbolIndexRow(nil), rows...)
}

// StageItemTreeFingerprints records freshly computed per-file item-tree
// fingerprints for the next FlushToDisk.
func (s *Store) StageItemTreeFingerprints(project string, byPath map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fps := s.stagedFP[project]
	if fps == nil {
		fps = map[string]string{}
		s.stagedFP[project] = fps
	}
	for path, fp := range byPath {
		fps[path] = fp
	}
}

// LoadSymbolIndex reads back a project's persisted symbol index rows.
func (s *Store) LoadSymbolIndex(project string) ([]SymbolIndexRow, error) {
	var rows []SymbolIndexRow
	err := s.db.Where("project_id = ?", project).Find(&rows).Error
	return rows, err
}

// SaveItemTreeFingerprint upserts a single file's fingerprint, refusing
// to write if the file is currently dirty.
func (s *Store) SaveItemTreeFingerprint(project string, filePath, fingerprint string) error {
	if s.dirty(filePath) {
		return nil
	}
	row := ItemTreeFingerprint{ProjectID: project, FilePath: filePath, Fingerprint: fingerprint}
	return s.db.Save(&row).Error
}

// LoadItemTreeFingerprint looks up a previously persisted fingerprint.
func (s *Store) LoadItemTreeFingerprint(project, filePath string) (string, bool) {
	var row ItemTreeFingerprint
	err := s.db.Where("project_id = ? AND file_path = ?", project, filePath).First(&row).Error
	if err != nil {
		return "", false
	}
	return row.Fingerprint, true
}

// EstimatedBytes gives memory.Evictor a cheap footprint estimate: a
// fixed per-row cost times the row count, avoiding a full table scan on
// every Enforce pass.
func (s *Store) EstimatedBytes() int64 {
	var symCount, fpCount int64
	s.db.Model(&SymbolIndexRow{}).Count(&symCount)
	s.db.Model(&ItemTreeFingerprint{}).Count(&fpCount)
	const avgRowBytes = 128
	return (symCount + fpCount) * avgRowBytes
}

// EvictionPriority places warm-start persistence last within its
// category: it's cheap to keep and expensive to rebuild, so Indexes'
// other evictors should shed first.
func (s *Store) EvictionPriority() int { return 100 }

// Evict drops every persisted row once pressure reaches Critical; below
// that, persisted rows are cheap enough to leave alone (see
// EvictionPriority).
func (s *Store) Evict(targetBytes int64, pressure memory.Pressure) {
	if pressure >= memory.Critical {
		s.db.Exec("DELETE FROM symbol_index")
		s.db.Exec("DELETE FROM item_tree_fingerprints")
	}
}

// FlushToDisk persists everything staged since the last flush: symbol
// index rows wholesale per project, fingerprints row by row. Staging is
// drained whether or not each write succeeds; dirty-file refusal
// happens in the Save* paths, so artifacts derived from unsaved
// overlays are silently left out of the persisted set.
func (s *Store) FlushToDisk() error {
	s.mu.Lock()
	stagedSym := s.stagedSym
	stagedFP := s.stagedFP
	s.stagedSym = map[string][]SymbolIndexRow{}
	s.stagedFP = map[string]map[string]string{}
	s.mu.Unlock()

	var firstErr error
	for project, rows := range stagedSym {
		if err := s.SaveSymbolIndex(project, rows); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for project, fps := range stagedFP {
		for path, fp := range fps {
			if err := s.SaveItemTreeFingerprint(project, path, fp); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return fmt.Errorf("warmstart: flush: %w", firstErr)
	}
	return nil
}
