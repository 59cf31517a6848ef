package query

import (
	"errors"
	"fmt"
	"sync"
)

// Func is a memoized query: a pure function over (snapshot, key) with
// early cutoff and cycle detection, backed by a sync.Map memo table
// holding one dependency-tracked value per key.
type Func[K comparable, V Value] struct {
	Name string
	Body func(ctx *Ctx, key K) (V, error)

	table sync.Map // K -> *memo[V]

	hits   int64
	misses int64
}

type memo[V Value] struct {
	mu          sync.Mutex
	value       V
	err         error
	deps        []dependency
	verifiedRev Revision
	has         bool
}

// NewFunc creates a named memoized query.
func NewFunc[K comparable, V Value](name string, body func(ctx *Ctx, key K) (V, error)) *Func[K, V] {
	return &Func[K, V]{Name: name, Body: body}
}

// keyString renders a key for cycle-stack frames and diagnostics only;
// memoization itself uses K as a genuine map key, never this string.
func keyString(k any) string { return fmt.Sprintf("%v", k) }

// Get returns the memoized value for key, recomputing (or short-cutting
// via early cutoff) as needed against ctx's snapshot. A *Cancelled error
// is never cached; a *CycleError is cached like any other
// sentinel value.
func (f *Func[K, V]) Get(ctx *Ctx, key K) (V, error) {
	var zero V
	ks := keyString(key)

	if err := ctx.Poll(f.Name, ks); err != nil {
		return zero, err
	}
	if err := ctx.push(f.Name, ks); err != nil {
		return zero, err
	}

	raw, _ := f.table.LoadOrStore(key, &memo[V]{})
	m := raw.(*memo[V])

	m.mu.Lock()
	if m.has && m.verifiedRev == ctx.snap.revision {
		v, e := m.value, m.err
		m.mu.Unlock()
		ctx.pop()
		ctx.recordDep(&queryDep[K, V]{fn: f, key: key, value: v, err: e})
		return v, e
	}

	if m.has && f.revalidate(ctx, m) {
		m.verifiedRev = ctx.snap.revision
		v, e := m.value, m.err
		m.mu.Unlock()
		ctx.pop()
		ctx.recordDep(&queryDep[K, V]{fn: f, key: key, value: v, err: e})
		return v, e
	}
	m.mu.Unlock()

	// Recompute: our own frame (pushed above) collects whatever the body
	// reads as its dependency list.
	f.misses++
	result, rerr := f.Body(ctx, key)
	newDeps := ctx.deps[len(ctx.deps)-1]
	ctx.pop()

	var cancelled *Cancelled
	if errors.As(rerr, &cancelled) {
		// Cancellation: never cache the in-flight frame.
		return zero, rerr
	}

	m.mu.Lock()
	m.value = result
	m.err = rerr
	m.deps = newDeps
	m.verifiedRev = ctx.snap.revision
	m.has = true
	m.mu.Unlock()

	ctx.recordDep(&queryDep[K, V]{fn: f, key: key, value: result, err: rerr})
	return result, rerr
}

// Stats reports cumulative hit/miss counts for observability.
func (f *Func[K, V]) Stats() (hits, misses int64) { return f.hits, f.misses }

// Len reports how many keys are currently memoized. Approximate under
// concurrent writers, which is fine for the memory manager's estimate.
func (f *Func[K, V]) Len() int {
	n := 0
	f.table.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Clear drops every memoized entry, forcing the next Get for any key to
// recompute. Existing dependency records elsewhere are untouched:
// evicting a value never invalidates dependency records, it only forces
// recomputation on next demand.
func (f *Func[K, V]) Clear() {
	f.table.Range(func(k, _ any) bool {
		f.table.Delete(k)
		return true
	})
}

// revalidate asks each of m's recorded dependencies whether it still
// holds the same value; true means the cached value can be reused
// without re-running the body.
func (f *Func[K, V]) revalidate(ctx *Ctx, m *memo[V]) bool {
	for _, d := range m.deps {
		if !d.unchanged(ctx) {
			return false
		}
	}
	f.hits++
	return true
}

// queryDep is the dependency record created when one query reads another
// via Get: revalidating it means re-invoking the dependency's Get and
// comparing the (possibly early-cut) result to the value observed before.
type queryDep[K comparable, V Value] struct {
	fn    *Func[K, V]
	key   K
	value V
	err   error
}

func (d *queryDep[K, V]) unchanged(ctx *Ctx) bool {
	current, err := d.fn.Get(ctx, d.key)
	if (err == nil) != (d.err == nil) {
		return false
	}
	if err != nil {
		return err.Error() == d.err.Error()
	}
	return current.Eq(d.value)
}
