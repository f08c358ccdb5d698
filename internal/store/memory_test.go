// internal/store/memory_test.go
package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The memory fake has to honor the same list/set semantics Redis gives the
// real store, since the event cursor and queue logic lean on them.

func TestMemoryListRange(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, st.ListAppend(ctx, "k", v))
	}

	all, err := st.ListRange(ctx, "k", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, all)

	tail, err := st.ListRange(ctx, "k", 1, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, tail)

	empty, err := st.ListRange(ctx, "k", 3, -1)
	require.NoError(t, err)
	assert.Empty(t, empty)

	missing, err := st.ListRange(ctx, "nope", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestMemorySetOps(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, st.SetAdd(ctx, "s", "x"))
	require.NoError(t, st.SetAdd(ctx, "s", "x"))
	require.NoError(t, st.SetAdd(ctx, "s", "y"))

	n, err := st.SetCard(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, st.SetRemove(ctx, "s", "x"))
	members, err := st.SetMembers(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, members)

	require.NoError(t, st.Delete(ctx, "s"))
	n, err = st.SetCard(ctx, "s")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryGetSet(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set(ctx, "k", "v", GameTTL))
	v, ok, err := st.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, GameTTL, st.TTL("k"))
}
