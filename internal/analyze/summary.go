package analyze

import (
	"context"
	"math"
	"time"

	"github.com/watchfloor/opschain/internal/chain"
	"github.com/watchfloor/opschain/internal/ref"
)

// KindActivity is the activity profile of one record kind, computed over
// the created_at column (when the operator logged the record, which may
// differ from the event timestamp).
type KindActivity struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`

	// Total is the raw record count, malformed created_at included.
	Total int `json:"total"`

	// Today and TrailingWeek count records created today and within the
	// last 7 calendar days including today.
	Today        int `json:"today"`
	TrailingWeek int `json:"trailing_week"`

	// AvgPerDay is Total divided by the inclusive day span between the
	// first and last record. Meaningless below 2 dated records, in which
	// case AvgPerDayKnown is false and the value is rendered "N/A".
	AvgPerDay      float64 `json:"avg_per_day"`
	AvgPerDayKnown bool    `json:"avg_per_day_known"`

	// First and Last are the earliest and latest created_at stamps,
	// empty when no record has a parseable one.
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
}

// ActivitySummary is the cross-kind activity report.
type ActivitySummary struct {
	Kinds []KindActivity `json:"kinds"`

	// FirstActivity and LastActivity span all requested kinds.
	FirstActivity string `json:"first_activity,omitempty"`
	LastActivity  string `json:"last_activity,omitempty"`
}

// Summarize aggregates activity for the requested kinds (empty means the
// whole catalog). Kinds not asked for are not queried. Malformed
// created_at stamps are counted in totals but excluded from date math;
// the result never contains Inf or NaN.
func (a *Analyzer) Summarize(ctx context.Context, kinds []string) (ActivitySummary, error) {
	resolved, err := a.resolveKinds(kinds)
	if err != nil {
		return ActivitySummary{}, err
	}

	now := a.now()
	today := dateOf(now)
	weekStart := today.AddDate(0, 0, -6)

	summary := ActivitySummary{Kinds: make([]KindActivity, 0, len(resolved))}
	var globalFirst, globalLast time.Time

	for _, k := range resolved {
		stamps, err := a.activity.CreatedAtStamps(ctx, k.Table)
		if err != nil {
			return ActivitySummary{}, chain.NewStoreError("summarize activity", err)
		}

		act := KindActivity{Kind: k.Name, Label: k.Label, Total: len(stamps)}

		var first, last time.Time
		dated := 0
		for _, stamp := range stamps {
			at, perr := ref.ParseStamp(stamp)
			if perr != nil {
				continue
			}

			day := dateOf(at)
			if day.Equal(today) {
				act.Today++
			}
			if !day.Before(weekStart) && !day.After(today) {
				act.TrailingWeek++
			}

			if dated == 0 || at.Before(first) {
				first = at
			}
			if dated == 0 || at.After(last) {
				last = at
			}
			dated++
		}

		if dated > 0 {
			act.First = ref.FormatStamp(first)
			act.Last = ref.FormatStamp(last)

			if globalFirst.IsZero() || first.Before(globalFirst) {
				globalFirst = first
			}
			if globalLast.IsZero() || last.After(globalLast) {
				globalLast = last
			}
		}

		if dated >= 2 {
			// Inclusive day span, always >= 1, so no divide-by-zero.
			// Rounding absorbs DST-shortened or -lengthened days.
			days := int(math.Round(dateOf(last).Sub(dateOf(first)).Hours()/24)) + 1
			act.AvgPerDay = float64(act.Total) / float64(days)
			act.AvgPerDayKnown = true
		}

		summary.Kinds = append(summary.Kinds, act)
	}

	if !globalFirst.IsZero() {
		summary.FirstActivity = ref.FormatStamp(globalFirst)
		summary.LastActivity = ref.FormatStamp(globalLast)
	}
	return summary, nil
}

// resolveKinds maps requested kind names to catalog kinds, defaulting to
// the full catalog.
func (a *Analyzer) resolveKinds(names []string) ([]ref.Kind, error) {
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

// dateOf truncates a time to its local calendar date.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
