package persist

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// opRecord is one artifact write within a Transaction, enough to
// restore the previous contents on Rollback.
type opRecord struct {
	Path      string    `json:"path"`
	BackupPath string   `json:"backup_path"`
	Checksum  string    `json:"checksum"`
	Timestamp time.Time `json:"timestamp"`
	Completed bool      `json:"completed"`
}

// Log is the on-disk record of one Transaction, written by Commit or
// Rollback when the transaction ends; nothing is logged while artifacts
// are being written, so a crash mid-flush leaves only the .bak backups.
type Log struct {
	ID         string      `json:"id"`
	Started    time.Time   `json:"started"`
	Completed  time.Time   `json:"completed"`
	Operations []opRecord  `json:"operations"`
	Status     string      `json:"status"` // pending, committed, rolled_back
}

// Manager groups a batch of AtomicWriter writes into one logged
// transaction: every artifact in the batch is backed up before being
// overwritten, and Rollback restores every backup if any write in the
// batch fails, so flush_to_disk never leaves a half-updated warm-start
// cache on disk.
type Manager struct {
	logDir string
	writer *AtomicWriter
	mu     sync.Mutex
}

// NewManager creates a transaction manager that logs to logDir and
// writes artifacts through writer.
func NewManager(logDir string, writer *AtomicWriter) *Manager {
	os.MkdirAll(logDir, 0o755)
	return &Manager{logDir: logDir, writer: writer}
}

// Begin starts a transaction identified by id (caller-supplied so a
// flush pass can name it e.g. "flush-<project>-<revision>").
func (m *Manager) Begin(id string) *Transaction {
	return &Transaction{
		mgr: m,
		log: &Log{ID: id, Started: time.Now(), Status: "pending"},
	}
}

// Transaction is one in-progress flush batch.
type Transaction struct {
	mgr *Manager
	log *Log
}

// WriteArtifact atomically writes data to path as part of this
// transaction, recording enough to roll back.
func (t *Transaction) WriteArtifact(path string, data []byte) error {
	op := opRecord{Path: path, Timestamp: time.Now()}
	if prev, err := os.ReadFile(path); err == nil {
		backup := path + fmt.Sprintf(".tx-%s.bak", t.log.ID)
		if err := os.WriteFile(backup, prev, 0o644); err != nil {
			return fmt.Errorf("persist: backup before transactional write: %w", err)
		}
		op.BackupPath = backup
		op.Checksum = checksum(prev)
	}
	if err := t.mgr.writer.WriteFile(path, data); err != nil {
		return err
	}
	op.Completed = true
	t.log.Operations = append(t.log.Operations, op)
	return nil
}

// Commit marks the transaction successful and removes its backups.
func (t *Transaction) Commit() error {
	t.log.Status = "committed"
	t.log.Completed = time.Now()
	for _, op := range t.log.Operations {
		if op.BackupPath != "" {
			os.Remove(op.BackupPath)
		}
	}
	return t.mgr.writeLog(t.log)
}

// Rollback restores every artifact this transaction touched to its
// pre-transaction contents, best-effort (it never panics, matching the
// memory manager's flush_to_disk contract).
func (t *Transaction) Rollback() {
	for _, op := range t.log.Operations {
		if op.BackupPath == "" {
			os.Remove(op.Path)
			continue
		}
		if prev, err := os.ReadFile(op.BackupPath); err == nil {
			_ = t.mgr.writer.WriteFile(op.Path, prev)
		}
		os.Remove(op.BackupPath)
	}
	t.log.Status = "rolled_back"
	t.log.Completed = time.Now()
	_ = t.mgr.writeLog(t.log)
}

func (m *Manager) writeLog(l *Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.logDir, l.ID+".json"), data, 0o644)
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
