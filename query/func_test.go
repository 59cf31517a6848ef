package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intValue adapts int to Value for test queries.
type intValue int

func (v intValue) Eq(other any) bool {
	o, ok := other.(intValue)
	return ok && o == v
}

type fakeInputs struct{ m map[any]any }

func (f *fakeInputs) ReadInput(key any) (any, bool) {
	v, ok := f.m[key]
	return v, ok
}

func TestFunc_MemoizesWithinARevision(t *testing.T) {
	db := NewDatabase()
	inputs := &fakeInputs{m: map[any]any{"k": intValue(1)}}
	snap := db.NewSnapshot(nil, inputs)

	calls := 0
	lenQ := NewFunc("len", func(ctx *Ctx, key string) (intValue, error) {
		calls++
		v, _ := Input[intValue](ctx, key)
		return v, nil
	})

	ctx := NewCtx(snap)
	v1, err := lenQ.Get(ctx, "k")
	require.NoError(t, err)
	v2, err := lenQ.Get(ctx, "k")
	require.NoError(t, err)

	assert.Equal(t, intValue(1), v1)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls, "second Get within the same revision must not recompute")
}

func TestFunc_EarlyCutoffSkipsDownstreamRecompute(t *testing.T) {
	db := NewDatabase()
	inputs := &fakeInputs{m: map[any]any{"k": intValue(1)}}

	evenCalls := 0
	isEven := NewFunc("is_even", func(ctx *Ctx, key string) (intValue, error) {
		v, _ := Input[intValue](ctx, key)
		evenCalls++
		if v%2 == 0 {
			return intValue(1), nil
		}
		return intValue(0), nil
	})

	downstreamCalls := 0
	describe := NewFunc("describe", func(ctx *Ctx, key string) (intValue, error) {
		downstreamCalls++
		v, err := isEven.Get(ctx, key)
		if err != nil {
			return 0, err
		}
		return v, nil
	})

	snap1 := db.NewSnapshot(nil, inputs)
	ctx1 := NewCtx(snap1)
	_, err := describe.Get(ctx1, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, evenCalls)
	assert.Equal(t, 1, downstreamCalls)

	// Bump the revision but change the input to a value with the same
	// "is_even" parity (1 -> 3): isEven's *output* is unchanged, so
	// describe must not recompute.
	inputs.m["k"] = intValue(3)
	db.BumpRevision()
	snap2 := db.NewSnapshot(nil, inputs)
	ctx2 := NewCtx(snap2)

	_, err = describe.Get(ctx2, "k")
	require.NoError(t, err)
	assert.Equal(t, 2, evenCalls, "isEven itself must re-verify its own input dependency")
	assert.Equal(t, 1, downstreamCalls, "describe must be early-cut because isEven's output did not change")
}

func TestFunc_RecomputesWhenDependencyValueChanges(t *testing.T) {
	db := NewDatabase()
	inputs := &fakeInputs{m: map[any]any{"k": intValue(1)}}

	isEven := NewFunc("is_even", func(ctx *Ctx, key string) (intValue, error) {
		v, _ := Input[intValue](ctx, key)
		if v%2 == 0 {
			return intValue(1), nil
		}
		return intValue(0), nil
	})

	downstreamCalls := 0
	describe := NewFunc("describe", func(ctx *Ctx, key string) (intValue, error) {
		downstreamCalls++
		return isEven.Get(ctx, key)
	})

	snap1 := db.NewSnapshot(nil, inputs)
	_, _ = describe.Get(NewCtx(snap1), "k")
	assert.Equal(t, 1, downstreamCalls)

	inputs.m["k"] = intValue(2) // flips parity, isEven's output changes
	db.BumpRevision()
	snap2 := db.NewSnapshot(nil, inputs)
	_, _ = describe.Get(NewCtx(snap2), "k")
	assert.Equal(t, 2, downstreamCalls, "describe must recompute when its dependency's value actually changed")
}

func TestFunc_DetectsCycles(t *testing.T) {
	db := NewDatabase()
	snap := db.NewSnapshot(nil, &fakeInputs{m: map[any]any{}})
	ctx := NewCtx(snap)

	var self *Func[string, intValue]
	self = NewFunc("self", func(ctx *Ctx, key string) (intValue, error) {
		v, err := self.Get(ctx, key)
		return v, err
	})

	_, err := self.Get(ctx, "a")
	require.Error(t, err)
	var cyc *CycleError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, "self", cyc.Query)
}

func TestSnapshot_CancellationAborts(t *testing.T) {
	db := NewDatabase()
	snap := db.NewSnapshot(nil, &fakeInputs{m: map[any]any{}})
	snap.Cancel()

	q := NewFunc("q", func(ctx *Ctx, key string) (intValue, error) {
		return intValue(42), nil
	})

	_, err := q.Get(NewCtx(snap), "x")
	require.Error(t, err)
	var cancelled *Cancelled
	require.ErrorAs(t, err, &cancelled)

	// A fresh, non-cancelled snapshot must complete normally and is
	// unaffected by the earlier cancellation.
	snap2 := db.NewSnapshot(nil, &fakeInputs{m: map[any]any{}})
	v, err := q.Get(NewCtx(snap2), "x")
	require.NoError(t, err)
	assert.Equal(t, intValue(42), v)
}
