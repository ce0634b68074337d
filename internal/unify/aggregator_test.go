package unify

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchfloor/opschain/internal/chain"
	"github.com/watchfloor/opschain/internal/ref"
	"github.com/watchfloor/opschain/internal/store"
)

type fixture struct {
	agg *Aggregator
	st  *store.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ops.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return fixture{agg: New(st, ref.DefaultCatalog()), st: st}
}

func (f fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := f.st.InsertEmailLog(ctx, store.EmailLog{
		LogType: "Data Request", Subject: "Badge audit", Stamp: "2024-01-01 09:00:00",
	})
	require.NoError(t, err)

	_, err = f.st.InsertPhoneLog(ctx, store.PhoneLog{
		CallType: "Alarm", CallerName: "Smith", SiteCode: "HQ1", Stamp: "2024-01-01 08:00:00",
	})
	require.NoError(t, err)

	_, err = f.st.InsertRadioLog(ctx, store.RadioLog{
		Unit: "Unit 5", Reason: "Door alarm", Stamp: "2024-01-01 08:30:00",
	})
	require.NoError(t, err)

	_, err = f.st.InsertEverbridgeLog(ctx, store.EverbridgeLog{
		SiteCode: "HQ1", Message: "Evacuation drill complete", Stamp: "garbage",
	})
	require.NoError(t, err)
}

func TestMerge_UnionOrderedByStamp(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	entries, err := f.agg.Merge(context.Background(), Options{})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// Parseable ascending, malformed last.
	assert.Equal(t, "phone", entries[0].Kind)
	assert.Equal(t, "radio", entries[1].Kind)
	assert.Equal(t, "email", entries[2].Kind)
	assert.Equal(t, "alert", entries[3].Kind)
	assert.True(t, entries[3].Malformed)

	// Each (kind, id) pair appears exactly once.
	seen := map[ref.Ref]bool{}
	for _, e := range entries {
		key := ref.Ref{Kind: e.Kind, ID: e.ID}
		assert.False(t, seen[key], "duplicate entry %v", key)
		seen[key] = true
	}
}

func TestMerge_Deterministic(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	first, err := f.agg.Merge(ctx, Options{})
	require.NoError(t, err)
	second, err := f.agg.Merge(ctx, Options{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMerge_KindSubset(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	entries, err := f.agg.Merge(context.Background(), Options{Kinds: []string{"phone", "radio"}})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "phone", entries[0].Kind)
	assert.Equal(t, "radio", entries[1].Kind)
}

func TestMerge_UnknownKind(t *testing.T) {
	f := newFixture(t)

	_, err := f.agg.Merge(context.Background(), Options{Kinds: []string{"fax"}})
	require.Error(t, err)
	assert.True(t, chain.IsInvalidArgument(err))
}

func TestMerge_Empty(t *testing.T) {
	f := newFixture(t)

	entries, err := f.agg.Merge(context.Background(), Options{})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestMerge_MalformedTieBreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two malformed entries in different kinds; order must be (kind, id).
	_, err := f.st.InsertRadioLog(ctx, store.RadioLog{Unit: "U1", Reason: "r", Stamp: ""})
	require.NoError(t, err)
	_, err = f.st.InsertEverbridgeLog(ctx, store.EverbridgeLog{Message: "m", Stamp: "bad"})
	require.NoError(t, err)

	entries, err := f.agg.Merge(ctx, Options{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alert", entries[0].Kind)
	assert.Equal(t, "radio", entries[1].Kind)
}

func TestMerge_FilterByLabel(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	entries, err := f.agg.Merge(context.Background(), Options{Filter: "phone"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "phone", entries[0].Kind)
}

func TestMerge_FilterBySummary_CaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	entries, err := f.agg.Merge(context.Background(), Options{Filter: "BADGE AUDIT"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "email", entries[0].Kind)
}

func TestMerge_FilterNoMatches(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	entries, err := f.agg.Merge(context.Background(), Options{Filter: "no such text anywhere"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEntry_Display(t *testing.T) {
	e := Entry{
		Ref:   ref.Ref{Kind: "phone", ID: 7, Stamp: "2024-01-01 08:00:00"},
		Label: "Phone",
	}
	assert.Equal(t, "[2024-01-01 08:00:00] Phone #7", e.Display())
}
