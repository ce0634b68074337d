package chain

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/watchfloor/opschain/internal/ref"
	"github.com/watchfloor/opschain/internal/store"
)

// Link is one chain-to-record attachment as exposed to callers.
//
// At and Malformed are derived at read time by parsing Ref.Stamp; the raw
// text is kept so malformed values stay visible and correctable.
type Link struct {
	ID      int64   `json:"id"`
	ChainID int64   `json:"chain_id"`
	Ref     ref.Ref `json:"ref"`

	// At is the parsed stamp; zero when Malformed.
	At time.Time `json:"-"`

	// Malformed flags a stamp the normalizer rejected. Malformed links
	// sort after all parseable ones and are excluded from analytics
	// deltas, but they are never dropped from listings.
	Malformed bool `json:"malformed,omitempty"`
}

// LinkStore is the slice of the record store the link manager needs.
type LinkStore interface {
	GetChain(ctx context.Context, id int64) (store.ChainRow, bool, error)
	InsertLink(ctx context.Context, chainID int64, kind string, recordID int64, stamp string) (int64, error)
	CountLinks(ctx context.Context, chainID int64, kind string, recordID int64) (int, error)
	ListLinks(ctx context.Context, chainID int64) ([]store.LinkRow, error)
	DeleteLink(ctx context.Context, chainID, linkID int64) (int64, error)
}

// Links attaches record references to chains and lists them in timeline
// order. It enforces at-most-one link per (chain, kind, id) triple.
type Links struct {
	store   LinkStore
	catalog ref.Catalog
}

// NewLinks creates a link manager backed by the given store and kind
// catalog.
func NewLinks(st LinkStore, catalog ref.Catalog) *Links {
	return &Links{store: st, catalog: catalog}
}

// Attach links a record reference to a chain and returns the new link id.
//
// Attach does not verify that the referenced record still exists: a
// dangling ref only surfaces later as a missing-detail placeholder when
// something resolves it. It does verify the chain exists and that the same
// record is not already linked to it.
//
// Known race: the existence check and the insert are two statements. With
// a single desktop writer this cannot interleave; a concurrent second
// writer could produce a duplicate link.
func (l *Links) Attach(ctx context.Context, chainID int64, r ref.Ref) (int64, error) {
	if chainID <= 0 {
		return 0, NewInvalidArgument("chain id must be positive")
	}
	if !r.Valid() {
		return 0, NewInvalidArgument("record reference needs a kind and a positive id")
	}
	if !l.catalog.Has(r.Kind) {
		return 0, NewInvalidArgument("unknown record kind " + r.Kind)
	}

	_, ok, err := l.store.GetChain(ctx, chainID)
	if err != nil {
		return 0, NewStoreError("attach link", err)
	}
	if !ok {
		return 0, NewNotFound("chain", chainID)
	}

	count, err := l.store.CountLinks(ctx, chainID, r.Kind, r.ID)
	if err != nil {
		return 0, NewStoreError("attach link", err)
	}
	if count > 0 {
		return 0, NewAlreadyLinked(chainID, r)
	}

	id, err := l.store.InsertLink(ctx, chainID, r.Kind, r.ID, r.Stamp)
	if err != nil {
		return 0, NewStoreError("attach link", err)
	}

	slog.Info("linked record to event chain", "chain", chainID, "record", r.String(), "link", id)
	return id, nil
}

// List returns a chain's links ordered for display and analytics:
// parseable stamps ascending, then malformed ones, both tie-broken by
// (kind, id) so repeated calls are deterministic.
func (l *Links) List(ctx context.Context, chainID int64) ([]Link, error) {
	if chainID <= 0 {
		return nil, NewInvalidArgument("chain id must be positive")
	}

	_, ok, err := l.store.GetChain(ctx, chainID)
	if err != nil {
		return nil, NewStoreError("list links", err)
	}
	if !ok {
		return nil, NewNotFound("chain", chainID)
	}

	rows, err := l.store.ListLinks(ctx, chainID)
	if err != nil {
		return nil, NewStoreError("list links", err)
	}

	links := make([]Link, len(rows))
	for i, row := range rows {
		link := Link{
			ID:      row.ID,
			ChainID: row.ChainID,
			Ref:     ref.Ref{Kind: row.Kind, ID: row.RecordID, Stamp: row.Stamp},
		}
		at, perr := ref.ParseStamp(row.Stamp)
		if perr != nil {
			link.Malformed = true
			slog.Warn("link has malformed timestamp", "chain", chainID, "link", row.ID, "stamp", row.Stamp)
		} else {
			link.At = at
		}
		links[i] = link
	}

	sortLinks(links)
	return links, nil
}

// Detach removes one link from a chain.
func (l *Links) Detach(ctx context.Context, chainID, linkID int64) error {
	if chainID <= 0 || linkID <= 0 {
		return NewInvalidArgument("chain id and link id must be positive")
	}

	affected, err := l.store.DeleteLink(ctx, chainID, linkID)
	if err != nil {
		return NewStoreError("detach link", err)
	}
	if affected == 0 {
		return NewLinkNotFound(chainID, linkID)
	}

	slog.Info("detached link from event chain", "chain", chainID, "link", linkID)
	return nil
}

// sortLinks orders parseable links by time ascending, malformed links
// last. Ties and the malformed tail are ordered by (kind, id).
func sortLinks(links []Link) {
	sort.SliceStable(links, func(i, j int) bool {
		a, b := links[i], links[j]
		if a.Malformed != b.Malformed {
			return !a.Malformed
		}
		if !a.Malformed && !a.At.Equal(b.At) {
			return a.At.Before(b.At)
		}
		if a.Ref.Kind != b.Ref.Kind {
			return a.Ref.Kind < b.Ref.Kind
		}
		return a.Ref.ID < b.Ref.ID
	})
}
