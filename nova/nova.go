// Package nova is Nova's facade: the single composition point that wires
// the input store, query engine, and every analysis layer (item trees,
// name resolution, the type checker, flow analysis, memory management,
// warm-start persistence, and framework hooks) into one demand-driven
// query surface. A Database owns every query.Func and serves the full
// incremental query surface over one project.
package nova

import (
	"context"
	"fmt"
	"sync"

	"github.com/termfx/nova/framework"
	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/internal/warmstart"
	"github.com/termfx/nova/itemtree"
	"github.com/termfx/nova/memory"
	"github.com/termfx/nova/query"
	"github.com/termfx/nova/resolve"
	"github.com/termfx/nova/syntax"
	"github.com/termfx/nova/typesys"
	"github.com/termfx/nova/vfs"
)

// Database is one project's entire analysis state: the input store plus
// every query layered on top of it. One Database is created per open
// project and threaded explicitly through every call.
type Database struct {
	mu sync.Mutex

	VFS   *vfs.Store
	Query *query.Database

	Names    *intern.Names
	Packages *intern.Packages
	Types    *typesys.Interner
	Symtab   *resolve.SymbolTable

	Memory    *memory.Manager
	Framework *framework.Registry
	Warm      *warmstart.Store
	NameTable *warmstart.NameTableStore

	Project vfs.ProjectId
	// warmKey is the stable cross-restart workspace identity warm-start
	// rows are keyed by (Project is re-minted on every load, so it can't
	// serve). Typically the workspace root path.
	warmKey string

	// WarmSymbols is the previous run's persisted symbol index, loaded
	// once at construction; completions consult it for workspace symbols
	// until the live index has been built and flushed over it.
	WarmSymbols []warmstart.SymbolIndexRow

	parseFn   *query.Func[intern.FileId, *parseResult]
	itemFn    *query.Func[intern.FileId, *itemtree.Tree]
	indexFn   *query.Func[string, *WorkspaceIndex]
	analyzeFn *query.Func[intern.FileId, *FileAnalysis]
}

// parseResult wraps a parsed *syntax.File so it satisfies query.Value.
// Equality is by pointer: parseFn's own early-cutoff check (its Input
// dependency on the file's text) already guarantees an unchanged file
// returns the very same *parseResult without recomputation, so identity
// is a cheap and correct comparison for dependents like itemFn that read
// parseFn's result.
type parseResult struct{ File *syntax.File }

func (p *parseResult) Eq(v any) bool {
	o, ok := v.(*parseResult)
	return ok && o == p
}

// New creates a Database for project, with totalMemoryBudget bytes
// shared across the memory manager's categories and warm
// (a warmstart.Store, nil to disable warm-start persistence entirely).
// warmKey is the stable workspace identity warm-start artifacts are
// keyed by across restarts (e.g. the workspace root path); it may be
// empty when warm is nil.
func New(project vfs.ProjectId, totalMemoryBudget int64, warm *warmstart.Store, warmKey, nameTablePath, transactionLogDir string) *Database {
	names := intern.NewNames()
	db := &Database{
		VFS:       vfs.New(),
		Query:     query.NewDatabase(),
		Names:     names,
		Packages:  intern.NewPackages(),
		Types:     typesys.NewInterner(names),
		Symtab:    resolve.NewSymbolTable(),
		Memory:    memory.New(totalMemoryBudget, nil, nil),
		Framework: framework.NewRegistry(),
		Warm:      warm,
		Project:   project,
		warmKey:   warmKey,
	}
	db.parseFn = query.NewFunc("parse", db.parseBody)
	db.itemFn = query.NewFunc("item_tree", db.itemTreeBody)
	db.indexFn = query.NewFunc("workspace_index", db.indexBody)
	db.analyzeFn = query.NewFunc("analyze", db.analyzeBody)

	db.Memory.Register(memory.CategoryQueryCache, &funcCache{
		lenFn: db.parseFn.Len, clearFn: db.parseFn.Clear, perEntry: 4096, priority: 10,
	})
	db.Memory.Register(memory.CategoryQueryCache, &funcCache{
		lenFn: db.analyzeFn.Len, clearFn: db.analyzeFn.Clear, perEntry: 16384, priority: 15,
	})
	db.Memory.Register(memory.CategorySyntaxTrees, &funcCache{
		lenFn: db.itemFn.Len, clearFn: db.itemFn.Clear, perEntry: 1024, priority: 20,
	})
	db.Memory.Register(memory.CategoryIndexes, &funcCache{
		lenFn: db.indexFn.Len, clearFn: db.indexFn.Clear, perEntry: 32768, priority: 30,
	})
	if warm != nil {
		db.Memory.Register(memory.CategoryIndexes, warm)
		db.WarmSymbols, _ = warm.LoadSymbolIndex(warmKey)
		if nameTablePath != "" {
			db.NameTable = warmstart.NewNameTableStore(nameTablePath, transactionLogDir, warmKey, names)
			db.Memory.Register(memory.CategoryIndexes, db.NameTable)
			_ = db.NameTable.LoadFromDisk()
		}
	}
	return db
}

// funcCache adapts a query.Func's Len/Clear pair to memory.Evictor, the
// way warmstart.Store directly implements Evictor itself: query result
// caches have no per-entry byte accounting of their own, so eviction
// here is coarse — drop everything once the category's estimate is over
// target — rather than partial.
type funcCache struct {
	lenFn    func() int
	clearFn  func()
	perEntry int64
	priority int
}

func (f *funcCache) EstimatedBytes() int64 { return int64(f.lenFn()) * f.perEntry }

func (f *funcCache) Evict(target int64, _ memory.Pressure) {
	if f.EstimatedBytes() > target {
		f.clearFn()
	}
}

func (f *funcCache) EvictionPriority() int { return f.priority }

// snapshotReader adapts a vfs.Snapshot to query.InputReader so input
// reads — file text, file paths, and the tracked-file set itself — are
// tracked as query dependencies.
type snapshotReader struct{ snap *vfs.Snapshot }

// trackedFilesKey reads the snapshot's whole tracked-file set as one
// canonical string, so a query that iterates every file (the workspace
// index) re-runs when files are added or removed, not just edited.
type trackedFilesKey struct{}

// filePathKey reads one file's current path.
type filePathKey struct{ ID intern.FileId }

func (r *snapshotReader) ReadInput(key any) (any, bool) {
	switch k := key.(type) {
	case trackedFilesKey:
		return encodeFileSet(r.snap.Files()), true
	case filePathKey:
		return r.snap.FilePath(k.ID)
	case intern.FileId:
		return r.snap.FileText(k)
	default:
		return nil, false
	}
}

// Snapshot pins a query snapshot (and the vfs snapshot backing it) to
// the store's current revision, for a batch of read-only queries.
func (db *Database) Snapshot(ctx context.Context) (*query.Snapshot, *vfs.Snapshot) {
	vsnap := db.VFS.Snapshot()
	qsnap := db.Query.NewSnapshot(ctx, &snapshotReader{snap: vsnap})
	return qsnap, vsnap
}

func (db *Database) parseBody(ctx *query.Ctx, file intern.FileId) (*parseResult, error) {
	text, ok := query.Input[string](ctx, file)
	if !ok {
		return nil, fmt.Errorf("nova: file %d has no tracked text", file)
	}
	return &parseResult{File: syntax.ParseFile(text)}, nil
}

func (db *Database) itemTreeBody(ctx *query.Ctx, file intern.FileId) (*itemtree.Tree, error) {
	pr, err := db.parseFn.Get(ctx, file)
	if err != nil {
		return nil, err
	}
	return itemtree.Build(pr.File), nil
}

// Parse runs the parse(File) query.
func (db *Database) Parse(qctx *query.Ctx, file intern.FileId) (*syntax.File, error) {
	pr, err := db.parseFn.Get(qctx, file)
	if err != nil {
		return nil, err
	}
	return pr.File, nil
}

// ItemTree runs the item_tree(File) query.
func (db *Database) ItemTree(qctx *query.Ctx, file intern.FileId) (*itemtree.Tree, error) {
	return db.itemFn.Get(qctx, file)
}

// WorkspaceIdx returns the memoized cross-file index over the snapshot's
// whole tracked-file set, recording it as a dependency of whichever
// query is currently executing.
func (db *Database) WorkspaceIdx(qctx *query.Ctx) (*WorkspaceIndex, error) {
	key, ok := query.Input[string](qctx, trackedFilesKey{})
	if !ok {
		return nil, fmt.Errorf("nova: snapshot has no tracked-file set")
	}
	return db.indexFn.Get(qctx, key)
}

// IndexStats reports the workspace-index query's cumulative hit/miss
// counts; a miss is one full index rebuild.
func (db *Database) IndexStats() (hits, misses int64) { return db.indexFn.Stats() }

// AnalysisStats reports the per-file analysis query's cumulative
// hit/miss counts; a miss is one full scope+declaration-typing rebuild.
func (db *Database) AnalysisStats() (hits, misses int64) { return db.analyzeFn.Stats() }

// --- Input operations ---

// SetFile replaces (or creates) a file's text and bumps the revision.
func (db *Database) SetFile(path, text string) intern.FileId {
	db.mu.Lock()
	defer db.mu.Unlock()
	id, _ := db.VFS.SetFile(path, text)
	db.markDirty()
	return id
}

// RenameFile renames a tracked file without re-issuing its FileId.
func (db *Database) RenameFile(id intern.FileId, newPath string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.VFS.RenameFile(id, newPath)
	db.markDirty()
	return err
}

// RemoveFile drops a file from the project.
func (db *Database) RemoveFile(id intern.FileId) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.VFS.RemoveFile(id)
	db.markDirty()
}

// SetClasspath configures a project's classpath entries.
func (db *Database) SetClasspath(entries []string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.VFS.SetClasspath(db.Project, entries)
	db.markDirty()
}

// SetLanguageLevel configures a project's Java language level.
func (db *Database) SetLanguageLevel(level vfs.LanguageLevel) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.VFS.SetLanguageLevel(db.Project, level)
	db.markDirty()
}

// Batch applies several input writes, bumping the revision exactly once.
func (db *Database) Batch(writes []vfs.Write) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.VFS.Batch(writes)
	db.markDirty()
	return err
}

// markDirty follows every input write: it advances the query engine's
// logical clock so snapshots taken from here on revalidate their memos,
// and flags the persisted name table as derived-from-unsaved state.
func (db *Database) markDirty() {
	db.Query.BumpRevision()
	if db.NameTable != nil {
		db.NameTable.MarkDirty()
	}
}

// Enforce runs one memory-pressure enforcement pass,
// intended to be called periodically or after large edits by the
// composition root.
func (db *Database) Enforce() memory.Pressure { return db.Memory.Enforce() }
