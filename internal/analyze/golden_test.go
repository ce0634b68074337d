package analyze

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/watchfloor/opschain/internal/ref"
)

// Golden snapshots pin the exact analysis payload shape the presentation
// layer consumes. Regenerate with:
//
//	go test ./internal/analyze -update
func TestAnalyzeChain_Golden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.registry.Create(ctx, "Incident 42", "")
	require.NoError(t, err)
	_, err = f.links.Attach(ctx, c.ID, ref.Ref{Kind: "phone", ID: 7, Stamp: "2024-01-01 08:00:00"})
	require.NoError(t, err)
	_, err = f.links.Attach(ctx, c.ID, ref.Ref{Kind: "radio", ID: 3, Stamp: "2024-01-01 08:05:00"})
	require.NoError(t, err)

	analysis, err := f.analyzer.AnalyzeChain(ctx, c.ID)
	require.NoError(t, err)

	data, err := json.MarshalIndent(analysis, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "analyze_chain", append(data, '\n'))
}

func TestSummarize_Golden(t *testing.T) {
	f := newFixture(t)
	f.analyzer.now = fixedNow("2024-01-10 12:00:00")

	f.phoneLogCreatedAt(t, "2024-01-01 08:00:00")
	f.phoneLogCreatedAt(t, "2024-01-10 08:00:00")

	summary, err := f.analyzer.Summarize(context.Background(), []string{"phone"})
	require.NoError(t, err)

	data, err := json.MarshalIndent(summary, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "summarize", append(data, '\n'))
}
