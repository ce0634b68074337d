package unify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/watchfloor/opschain/internal/chain"
	"github.com/watchfloor/opschain/internal/ref"
	"github.com/watchfloor/opschain/internal/store"
)

// Entry is one merged-log row: a record reference plus its kind's
// operator-facing label and the parsed stamp.
type Entry struct {
	ref.Ref
	Label string `json:"label"`

	// At is the parsed stamp; zero when Malformed.
	At time.Time `json:"-"`

	// Malformed flags stamps the normalizer rejected; such entries sort
	// after every parseable one but stay visible.
	Malformed bool `json:"malformed,omitempty"`
}

// Display returns the list form used in "available logs" views,
// e.g. "[2024-01-01 08:00:00] Phone #7".
func (e Entry) Display() string {
	return fmt.Sprintf("[%s] %s #%d", e.Stamp, e.Label, e.ID)
}

// Source is the slice of the record store the aggregator needs.
type Source interface {
	IDsAndStamps(ctx context.Context, table string) ([]store.IDStamp, error)
	RecordDetails(ctx context.Context, table string, id int64) (map[string]any, bool, error)
}

// Options narrows a merge. Zero value means every catalog kind, no filter.
type Options struct {
	// Kinds selects a subset of catalog kinds; empty means all.
	Kinds []string

	// Filter keeps only entries whose display line or record summary
	// contains this text, compared case-insensitively after Unicode NFC
	// normalization. Filtering happens after the merge, never in SQL.
	Filter string
}

// Aggregator builds the unified, timestamp-ordered log view.
type Aggregator struct {
	source  Source
	catalog ref.Catalog
}

// New creates an aggregator over the given source and kind catalog.
func New(source Source, catalog ref.Catalog) *Aggregator {
	return &Aggregator{source: source, catalog: catalog}
}

// Merge returns the union of the requested kinds' records, each exactly
// once, ordered by parsed stamp ascending with malformed stamps last.
// Ties and the malformed tail are ordered by (kind, id) so repeated calls
// over unchanged data return identical sequences.
func (a *Aggregator) Merge(ctx context.Context, opts Options) ([]Entry, error) {
	kinds, err := a.resolveKinds(opts.Kinds)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, k := range kinds {
		rows, err := a.source.IDsAndStamps(ctx, k.Table)
		if err != nil {
			return nil, chain.NewStoreError("merge logs", err)
		}
		for _, row := range rows {
			e := Entry{
				Ref:   ref.Ref{Kind: k.Name, ID: row.ID, Stamp: row.Stamp},
				Label: k.Label,
			}
			if at, perr := ref.ParseStamp(row.Stamp); perr == nil {
				e.At = at
			} else {
				e.Malformed = true
			}
			entries = append(entries, e)
		}
	}

	sortEntries(entries)

	if opts.Filter != "" {
		entries, err = a.filter(ctx, entries, opts.Filter)
		if err != nil {
			return nil, err
		}
	}

	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// resolveKinds maps requested kind names to catalog kinds, defaulting to
// the full catalog.
func (a *Aggregator) resolveKinds(names []string) ([]ref.Kind, error) {
	if len(names) == 0 {
		return a.catalog.Kinds(), nil
	}

	kinds := make([]ref.Kind, 0, len(names))
	for _, name := range names {
		k, ok := a.catalog.Lookup(name)
		if !ok {
			return nil, chain.NewInvalidArgument("unknown record kind " + name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// filter keeps entries matching the free-text needle against the display
// line and, when needed, the resolved record summary.
func (a *Aggregator) filter(ctx context.Context, entries []Entry, needle string) ([]Entry, error) {
	folded := fold(needle)

	var kept []Entry
	for _, e := range entries {
		if strings.Contains(fold(e.Display()), folded) {
			kept = append(kept, e)
			continue
		}

		summary, err := a.Summary(ctx, e.Ref)
		if err != nil {
			return nil, err
		}
		if strings.Contains(fold(summary), folded) {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

// fold canonicalizes text for substring matching: NFC normalization so
// composed and decomposed forms compare equal, then lowercasing.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// sortEntries orders parseable entries by time ascending, malformed ones
// last, ties by (kind, id).
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Malformed != b.Malformed {
			return !a.Malformed
		}
		if !a.Malformed && !a.At.Equal(b.At) {
			return a.At.Before(b.At)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})
}
