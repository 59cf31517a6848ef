// Package query is Nova's incremental computation kernel: a memoizing
// graph of pure query functions with dependency tracking, early cutoff,
// cancellation, and snapshotting. Parsing, name resolution,
// and typing are all queries defined against this engine; they share its
// caches and its cancellation/eviction discipline.
//
// Each query's memo is a sync.Map keyed cache with hit/miss counters and
// dependency-based invalidation rather than TTL — correctness, not
// staleness, decides eviction.
package query

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Value is anything a query can return. Cheap equality is mandatory
// because early cutoff depends on comparing a dependency's previous
// output to its current one without recomputing the whole subgraph above
// it.
type Value interface {
	// Eq reports whether v equals this value. Implementations should be
	// O(1) — interned IDs, reference-counted handles, or precomputed
	// fingerprints, never deep structural comparison of large trees.
	Eq(v any) bool
}

// Revision is the input clock a Database's queries are evaluated against.
type Revision uint64

// CycleError is returned by a query whose own evaluation depends on
// itself, directly or transitively.
type CycleError struct {
	Query string
	Key   string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("query: cycle detected at %s(%s)", e.Query, e.Key)
}

// Eq implements Value so a CycleError can itself be cached and compared
// like any other sentinel output.
func (e *CycleError) Eq(v any) bool {
	other, ok := v.(*CycleError)
	return ok && other.Query == e.Query && other.Key == e.Key
}

// Cancelled is returned when a query observes its snapshot's cancellation
// token set mid-execution. It is never cached.
type Cancelled struct{ Query, Key string }

func (c *Cancelled) Error() string { return fmt.Sprintf("query: cancelled at %s(%s)", c.Query, c.Key) }

// Database carries the input revision plus the bookkeeping needed for
// cycle detection across a single execution; each Func keeps its own
// memo table. It is threaded through as an explicit dependency.
type Database struct {
	revMu sync.RWMutex
	rev   Revision

	cyclesDetected atomic.Int64
}

// NewDatabase creates an empty Database at revision 0.
func NewDatabase() *Database { return &Database{} }

// Revision reports the Database's current input revision.
func (db *Database) Revision() Revision {
	db.revMu.RLock()
	defer db.revMu.RUnlock()
	return db.rev
}

// BumpRevision advances the Database's logical clock. Callers invoke this
// once per input write batch.
func (db *Database) BumpRevision() Revision {
	db.revMu.Lock()
	defer db.revMu.Unlock()
	db.rev++
	return db.rev
}

// InputReader lets a Snapshot's Payload serve raw input reads (e.g. file
// text from vfs.Snapshot) as trackable query dependencies, without this
// package importing vfs directly.
type InputReader interface {
	ReadInput(key any) (value any, ok bool)
}

// Snapshot is a read-only handle bound to one input revision, with its
// own cancellation token. Multiple snapshots execute queries concurrently.
type Snapshot struct {
	db       *Database
	revision Revision
	ctx      context.Context
	cancel   context.CancelFunc
	// Payload is the input-store snapshot (e.g. *vfs.Snapshot) this query
	// snapshot is pinned to, consulted by Input() for raw input reads.
	Payload InputReader
}

// NewSnapshot pins a Snapshot to db's current revision.
func (db *Database) NewSnapshot(parent context.Context, payload InputReader) *Snapshot {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Snapshot{db: db, revision: db.Revision(), ctx: ctx, cancel: cancel, Payload: payload}
}

// Cancel sets this snapshot's cancellation token. In-flight queries
// belonging to it abort at their next poll.
func (s *Snapshot) Cancel() { s.cancel() }

// Cancelled reports whether this snapshot's token has been set.
func (s *Snapshot) Cancelled() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// Revision reports the input revision this snapshot observes.
func (s *Snapshot) Revision() Revision { return s.revision }

// Ctx is the execution context threaded through one query call tree. It
// tracks the in-flight call stack for cycle detection and records, on
// behalf of the currently executing query, every dependency it reads —
// nested queries and raw input reads alike.
type Ctx struct {
	snap  *Snapshot
	stack []frameKey
	// deps collects the dependency list for the query currently at the
	// top of stack; index i corresponds to stack[i].
	deps [][]dependency
}

type frameKey struct {
	query string
	key   string
}

// dependency records one value a query read while computing, so a later
// revalidation can ask "does this still hold the same value?" without
// assuming the whole subgraph changed.
type dependency interface {
	// unchanged re-evaluates (or re-reads) the dependency against ctx and
	// reports whether its value is unchanged since it was recorded.
	unchanged(ctx *Ctx) bool
}

// NewCtx begins a fresh execution against snap.
func NewCtx(snap *Snapshot) *Ctx {
	return &Ctx{snap: snap}
}

// Snapshot returns the snapshot this context executes against.
func (c *Ctx) Snapshot() *Snapshot { return c.snap }

// Poll checks the snapshot's cancellation token, returning a non-nil
// error if it has fired. Query bodies must call this at entry, before
// each recursive sub-query call, and inside loops over large sequences.
func (c *Ctx) Poll(queryName, key string) error {
	if c.snap.Cancelled() {
		return &Cancelled{Query: queryName, Key: key}
	}
	return nil
}

func (c *Ctx) push(q, k string) error {
	for _, f := range c.stack {
		if f.query == q && f.key == k {
			c.snap.db.cyclesDetected.Add(1)
			return &CycleError{Query: q, Key: k}
		}
	}
	c.stack = append(c.stack, frameKey{query: q, key: k})
	c.deps = append(c.deps, nil)
	return nil
}

func (c *Ctx) pop() {
	c.stack = c.stack[:len(c.stack)-1]
	c.deps = c.deps[:len(c.deps)-1]
}

func (c *Ctx) recordDep(d dependency) {
	if len(c.deps) == 0 {
		return
	}
	top := len(c.deps) - 1
	c.deps[top] = append(c.deps[top], d)
}

// Input reads a raw input value (e.g. a file's text) through the
// snapshot's InputReader, recording it as a dependency of whichever
// query is currently executing. This is how a derived query like parse()
// ends up invalidated when set_file() bumps the revision: the leaf read
// is tracked exactly like a call to another query would be.
func Input[V comparable](ctx *Ctx, key any) (V, bool) {
	var zero V
	raw, ok := ctx.snap.Payload.ReadInput(key)
	if !ok {
		ctx.recordDep(&inputDep[V]{key: key, ok: false})
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		ctx.recordDep(&inputDep[V]{key: key, ok: false})
		return zero, false
	}
	ctx.recordDep(&inputDep[V]{key: key, value: v, ok: true})
	return v, true
}

type inputDep[V comparable] struct {
	key   any
	value V
	ok    bool
}

func (d *inputDep[V]) unchanged(ctx *Ctx) bool {
	raw, ok := ctx.snap.Payload.ReadInput(d.key)
	if ok != d.ok {
		return false
	}
	if !ok {
		return true
	}
	v, castOK := raw.(V)
	return castOK && v == d.value
}
