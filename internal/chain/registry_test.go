package chain

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchfloor/opschain/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "ops.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func fixedClock(stamp string) func() time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", stamp, time.Local)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry(openTestStore(t))
	reg.now = fixedClock("2024-01-01 08:00:00")

	c, err := reg.Create(context.Background(), "Incident 42", "badge alarm at HQ1")
	require.NoError(t, err)

	assert.Positive(t, c.ID)
	assert.Equal(t, "Incident 42", c.Title)
	assert.Equal(t, "badge alarm at HQ1", c.Description)
	assert.Equal(t, "2024-01-01 08:00:00", c.CreatedAt)
}

func TestRegistry_Create_TrimsTitle(t *testing.T) {
	reg := NewRegistry(openTestStore(t))

	c, err := reg.Create(context.Background(), "  Incident 42  ", "")
	require.NoError(t, err)
	assert.Equal(t, "Incident 42", c.Title)
}

func TestRegistry_Create_EmptyTitle(t *testing.T) {
	reg := NewRegistry(openTestStore(t))

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := reg.Create(context.Background(), title, "")
		require.Error(t, err)
		assert.True(t, IsInvalidArgument(err), "title %q: got %v", title, err)
	}
}

func TestRegistry_Get(t *testing.T) {
	reg := NewRegistry(openTestStore(t))
	ctx := context.Background()

	created, err := reg.Create(ctx, "Incident 42", "desc")
	require.NoError(t, err)

	got, err := reg.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestRegistry_Get_NotFound(t *testing.T) {
	reg := NewRegistry(openTestStore(t))

	_, err := reg.Get(context.Background(), 9999)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = reg.Get(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestRegistry_Rename(t *testing.T) {
	reg := NewRegistry(openTestStore(t))
	ctx := context.Background()

	created, err := reg.Create(ctx, "Incident 42", "old")
	require.NoError(t, err)

	require.NoError(t, reg.Rename(ctx, created.ID, "Incident 42 (closed)", "resolved"))

	got, err := reg.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Incident 42 (closed)", got.Title)
	assert.Equal(t, "resolved", got.Description)
}

func TestRegistry_Rename_Errors(t *testing.T) {
	reg := NewRegistry(openTestStore(t))
	ctx := context.Background()

	err := reg.Rename(ctx, 9999, "title", "")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	created, err := reg.Create(ctx, "Incident 42", "")
	require.NoError(t, err)

	err = reg.Rename(ctx, created.ID, "  ", "")
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestRegistry_List_MostRecentFirst(t *testing.T) {
	reg := NewRegistry(openTestStore(t))
	ctx := context.Background()

	reg.now = fixedClock("2024-01-01 08:00:00")
	first, err := reg.Create(ctx, "older", "")
	require.NoError(t, err)

	reg.now = fixedClock("2024-01-02 08:00:00")
	second, err := reg.Create(ctx, "newer", "")
	require.NoError(t, err)

	chains, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, second.ID, chains[0].ID)
	assert.Equal(t, first.ID, chains[1].ID)
}

func TestRegistry_List_Empty(t *testing.T) {
	reg := NewRegistry(openTestStore(t))

	chains, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, chains)
}
