package analyze

import (
	"context"
	"time"

	"github.com/watchfloor/opschain/internal/chain"
	"github.com/watchfloor/opschain/internal/ref"
)

// Delta is the elapsed time between two consecutive, timestamp-ordered
// linked records. Non-negative by construction; zero is a valid value when
// two records share a stamp.
type Delta struct {
	From    ref.Ref `json:"from"`
	To      ref.Ref `json:"to"`
	Minutes float64 `json:"minutes"`
}

// ChainAnalysis is the response-time profile of one chain.
//
// MeanMinutes (mean of consecutive deltas) and AvgResponseMinutes
// (duration divided by resolved link count minus one) are distinct
// aggregates: with irregular gaps they differ, and both are reported.
type ChainAnalysis struct {
	ChainID int64  `json:"chain_id"`
	Title   string `json:"title"`

	// LinkCount is the raw number of links, malformed stamps included.
	LinkCount int `json:"link_count"`

	// ResolvedCount is how many links carry a parseable stamp.
	ResolvedCount int `json:"resolved_count"`

	// InsufficientData is set when fewer than 2 links resolve. A normal
	// outcome for new or single-event chains, not an error.
	InsufficientData bool `json:"insufficient_data"`

	Deltas      []Delta `json:"deltas,omitempty"`
	DeltaCount  int     `json:"delta_count"`
	MeanMinutes float64 `json:"mean_minutes"`
	MinMinutes  float64 `json:"min_minutes"`
	MaxMinutes  float64 `json:"max_minutes"`

	// DurationMinutes spans the first to the last resolved link.
	DurationMinutes float64 `json:"duration_minutes"`

	// AvgResponseMinutes = DurationMinutes / (ResolvedCount - 1).
	AvgResponseMinutes float64 `json:"avg_response_minutes"`

	Rating string `json:"rating,omitempty"`
}

// Overview is one row of the all-chains analysis table.
type Overview struct {
	Chain     chain.Chain `json:"chain"`
	LinkCount int         `json:"link_count"`

	// HasTiming is false when fewer than 2 links resolve; the duration
	// and average fields are then meaningless and rendered "N/A".
	HasTiming          bool    `json:"has_timing"`
	DurationMinutes    float64 `json:"duration_minutes"`
	AvgResponseMinutes float64 `json:"avg_response_minutes"`
}

// ActivitySource is the slice of the record store the summarizer needs.
type ActivitySource interface {
	CreatedAtStamps(ctx context.Context, table string) ([]string, error)
}

// Analyzer derives timing statistics from chains, links and raw record
// activity. Construction wires all collaborators explicitly.
type Analyzer struct {
	chains     *chain.Registry
	links      *chain.Links
	activity   ActivitySource
	catalog    ref.Catalog
	thresholds Thresholds

	// now is injectable for deterministic "today" in tests.
	now func() time.Time
}

// New creates an analyzer. Pass DefaultThresholds() unless configuration
// overrides the rating policy.
func New(chains *chain.Registry, links *chain.Links, activity ActivitySource, catalog ref.Catalog, thresholds Thresholds) *Analyzer {
	return &Analyzer{
		chains:     chains,
		links:      links,
		activity:   activity,
		catalog:    catalog,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// AnalyzeChain computes the response-time profile of one chain. The only
// error cases are an unknown chain and a failing store; thin data is a
// result, not a failure.
func (a *Analyzer) AnalyzeChain(ctx context.Context, chainID int64) (ChainAnalysis, error) {
	c, err := a.chains.Get(ctx, chainID)
	if err != nil {
		return ChainAnalysis{}, err
	}

	links, err := a.links.List(ctx, chainID)
	if err != nil {
		return ChainAnalysis{}, err
	}

	analysis := ChainAnalysis{
		ChainID:   c.ID,
		Title:     c.Title,
		LinkCount: len(links),
	}

	// Links arrive ordered with malformed stamps at the tail; keep only
	// the resolvable prefix for arithmetic.
	var resolved []chain.Link
	for _, l := range links {
		if !l.Malformed {
			resolved = append(resolved, l)
		}
	}
	analysis.ResolvedCount = len(resolved)

	if len(resolved) < 2 {
		analysis.InsufficientData = true
		return analysis, nil
	}

	deltas := make([]Delta, 0, len(resolved)-1)
	var sum float64
	min := resolved[1].At.Sub(resolved[0].At).Minutes()
	max := min
	for i := 0; i < len(resolved)-1; i++ {
		minutes := resolved[i+1].At.Sub(resolved[i].At).Minutes()
		deltas = append(deltas, Delta{
			From:    resolved[i].Ref,
			To:      resolved[i+1].Ref,
			Minutes: minutes,
		})
		sum += minutes
		if minutes < min {
			min = minutes
		}
		if minutes > max {
			max = minutes
		}
	}

	analysis.Deltas = deltas
	analysis.DeltaCount = len(deltas)
	analysis.MeanMinutes = sum / float64(len(deltas))
	analysis.MinMinutes = min
	analysis.MaxMinutes = max
	analysis.DurationMinutes = resolved[len(resolved)-1].At.Sub(resolved[0].At).Minutes()
	analysis.AvgResponseMinutes = analysis.DurationMinutes / float64(len(resolved)-1)
	analysis.Rating = a.thresholds.Rate(analysis.MeanMinutes)
	return analysis, nil
}

// AnalyzeAll produces the per-chain overview table: every chain with its
// raw link count, overall duration and chain-wide average response.
func (a *Analyzer) AnalyzeAll(ctx context.Context) ([]Overview, error) {
	chains, err := a.chains.List(ctx)
	if err != nil {
		return nil, err
	}

	overviews := make([]Overview, 0, len(chains))
	for _, c := range chains {
		links, err := a.links.List(ctx, c.ID)
		if err != nil {
			return nil, err
		}

		ov := Overview{Chain: c, LinkCount: len(links)}

		var first, last time.Time
		resolved := 0
		for _, l := range links {
			if l.Malformed {
				continue
			}
			if resolved == 0 || l.At.Before(first) {
				first = l.At
			}
			if resolved == 0 || l.At.After(last) {
				last = l.At
			}
			resolved++
		}

		if resolved >= 2 {
			ov.HasTiming = true
			ov.DurationMinutes = last.Sub(first).Minutes()
			ov.AvgResponseMinutes = ov.DurationMinutes / float64(resolved-1)
		}
		overviews = append(overviews, ov)
	}
	return overviews, nil
}
