// Package vfs is Nova's input store: the only source of truth for file
// text and filesystem facts. Every other component's
// derived state traces back to a revision of this store.
package vfs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/termfx/nova/internal/intern"
)

// Revision is a logical clock bumped once per batch of writes.
type Revision uint64

// ProjectId identifies a workspace/project across the external
// boundary. Unlike the internal interned IDs (FileId, SymbolId,...), a
// project identity is handed to external callers (build integration,
// transports), so it is minted as a UUID rather than a process-local
// interned integer.
type ProjectId string

// NewProjectId mints a fresh external project identity.
func NewProjectId() ProjectId { return ProjectId(uuid.NewString()) }

// LanguageLevel is a project's configured Java language level.
type LanguageLevel struct {
	Major   int
	Preview bool
}

// Snapshot is a read-only view of the input store at a fixed revision.
// Queries execute against a Snapshot so concurrent readers always observe
// a consistent set of inputs.
type Snapshot struct {
	revision   Revision
	files      map[intern.FileId]*fileState
	paths      map[string]intern.FileId
	classpaths map[ProjectId][]string
	langLevel  map[ProjectId]LanguageLevel
}

type fileState struct {
	path string
	text string
}

// Revision reports the revision this snapshot was taken at.
func (s *Snapshot) Revision() Revision { return s.revision }

// FileText returns the text of file id as of this snapshot.
func (s *Snapshot) FileText(id intern.FileId) (string, bool) {
	fs, ok := s.files[id]
	if !ok {
		return "", false
	}
	return fs.text, true
}

// FilePath returns the path a file id was last set/renamed to.
func (s *Snapshot) FilePath(id intern.FileId) (string, bool) {
	fs, ok := s.files[id]
	if !ok {
		return "", false
	}
	return fs.path, true
}

// FileByPath resolves a path to its stable FileId.
func (s *Snapshot) FileByPath(path string) (intern.FileId, bool) {
	id, ok := s.paths[path]
	return id, ok
}

// Files returns every tracked FileId as of this snapshot, in ascending
// id order so two snapshots over the same file set produce the same
// slice.
func (s *Snapshot) Files() []intern.FileId {
	ids := make([]intern.FileId, 0, len(s.files))
	for id := range s.files {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Classpath returns the configured classpath entries for a project
// exactly as SetClasspath was given them: glob patterns are not expanded
// here (the VFS does not touch disk). ExpandGlobs is provided for a
// build-integration collaborator that resolves patterns against the
// real filesystem.
func (s *Snapshot) Classpath(id ProjectId) []string {
	return append([]string(nil), s.classpaths[id]...)
}

// LanguageLevel returns the configured language level for a project.
func (s *Snapshot) LanguageLevel(id ProjectId) (LanguageLevel, bool) {
	lv, ok := s.langLevel[id]
	return lv, ok
}

// ExpandGlobs matches pattern (a doublestar glob, e.g. "libs/**/*.jar")
// against candidates and returns the subset that match. Used by callers
// resolving a project's classpath entries that were registered as
// patterns rather than literal paths.
func ExpandGlobs(pattern string, candidates []string) ([]string, error) {
	var out []string
	for _, c := range candidates {
		ok, err := doublestar.Match(pattern, c)
		if err != nil {
			return nil, fmt.Errorf("vfs: invalid glob %q: %w", pattern, err)
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Store is the mutable input store. Writes are serialized; reads take a
// Snapshot and proceed lock-free against it.
type Store struct {
	mu  sync.Mutex
	rev Revision

	files    map[intern.FileId]*fileState
	paths    map[string]intern.FileId
	fileIds  intern.Counter
	classpth map[ProjectId][]string
	langLvl  map[ProjectId]LanguageLevel
}

// New creates an empty input store at revision 0.
func New() *Store {
	return &Store{
		files:    make(map[intern.FileId]*fileState),
		paths:    make(map[string]intern.FileId),
		classpth: make(map[ProjectId][]string),
		langLvl:  make(map[ProjectId]LanguageLevel),
	}
}

// Snapshot takes a read-only view of the store at its current revision.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *Snapshot {
	files := make(map[intern.FileId]*fileState, len(s.files))
	for id, fs := range s.files {
		cp := *fs
		files[id] = &cp
	}
	paths := make(map[string]intern.FileId, len(s.paths))
	for p, id := range s.paths {
		paths[p] = id
	}
	classpaths := make(map[ProjectId][]string, len(s.classpth))
	for p, cp := range s.classpth {
		classpaths[p] = append([]string(nil), cp...)
	}
	langLevel := make(map[ProjectId]LanguageLevel, len(s.langLvl))
	for p, lv := range s.langLvl {
		langLevel[p] = lv
	}
	return &Snapshot{
		revision:   s.rev,
		files:      files,
		paths:      paths,
		classpaths: classpaths,
		langLevel:  langLevel,
	}
}

// Write is a single input mutation applied as part of a batch.
type Write struct {
	// SetFile replaces (or creates) a file's text. Path must be set on
	// creation; Remove and Rename are mutually exclusive with SetFile.
	Path   string
	Text   *string // nil means "no content change"
	Rename *string // new path, if this write renames an existing file
	Remove bool
}

// SetFile applies a single-file content write outside of a larger batch,
// returning the file's stable id and the revision after the write.
func (s *Store) SetFile(path, text string) (intern.FileId, Revision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.setFileLocked(path, text)
	s.rev++
	return id, s.rev
}

func (s *Store) setFileLocked(path, text string) intern.FileId {
	if id, ok := s.paths[path]; ok {
		s.files[id].text = text
		return id
	}
	id := intern.FileId(s.fileIds.Next())
	s.files[id] = &fileState{path: path, text: text}
	s.paths[path] = id
	return id
}

// RenameFile changes a tracked file's path without re-issuing its FileId.
func (s *Store) RenameFile(id intern.FileId, newPath string) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fs, ok := s.files[id]
	if !ok {
		return s.rev, fmt.Errorf("vfs: rename of unknown file id %d", id)
	}
	delete(s.paths, fs.path)
	fs.path = newPath
	s.paths[newPath] = id
	s.rev++
	return s.rev, nil
}

// RemoveFile drops a file from the store.
func (s *Store) RemoveFile(id intern.FileId) Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fs, ok := s.files[id]; ok {
		delete(s.paths, fs.path)
		delete(s.files, id)
	}
	s.rev++
	return s.rev
}

// SetClasspath configures (replacing) the classpath entries for a
// project. Entries may be literal paths or doublestar glob patterns;
// resolving patterns against the real filesystem is an external
// build-integration concern, so the store keeps them verbatim
// and exposes ExpandGlobs as a helper for that collaborator.
func (s *Store) SetClasspath(project ProjectId, entries []string) Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classpth[project] = append([]string(nil), entries...)
	s.rev++
	return s.rev
}

// SetLanguageLevel configures a project's Java language level.
func (s *Store) SetLanguageLevel(project ProjectId, level LanguageLevel) Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.langLvl[project] = level
	s.rev++
	return s.rev
}

// Batch applies a sequence of writes atomically, bumping the revision
// exactly once at the end regardless of how many writes it contains.
func (s *Store) Batch(writes []Write) (Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range writes {
		switch {
		case w.Remove:
			if id, ok := s.paths[w.Path]; ok {
				delete(s.paths, w.Path)
				delete(s.files, id)
			}
		case w.Rename != nil:
			id, ok := s.paths[w.Path]
			if !ok {
				return s.rev, fmt.Errorf("vfs: batch rename of untracked path %q", w.Path)
			}
			delete(s.paths, w.Path)
			s.files[id].path = *w.Rename
			s.paths[*w.Rename] = id
		case w.Text != nil:
			s.setFileLocked(w.Path, *w.Text)
		}
	}
	s.rev++
	return s.rev, nil
}

// Revision reports the store's current revision without taking a full
// snapshot.
func (s *Store) Revision() Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}
