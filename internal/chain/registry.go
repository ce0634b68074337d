package chain

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/watchfloor/opschain/internal/ref"
	"github.com/watchfloor/opschain/internal/store"
)

// Chain is one event chain as exposed to callers. CreatedAt is canonical
// stamp text; it is written by the registry, so it always parses.
type Chain struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// ChainStore is the slice of the record store the registry needs.
// *store.Store satisfies it; tests may substitute a double.
type ChainStore interface {
	InsertChain(ctx context.Context, title, description, createdAt string) (int64, error)
	UpdateChain(ctx context.Context, id int64, title, description string) (int64, error)
	GetChain(ctx context.Context, id int64) (store.ChainRow, bool, error)
	ListChains(ctx context.Context) ([]store.ChainRow, error)
}

// Registry creates, renames and enumerates event chains. Chains have no
// status field; "empty" versus "active" is a presentation state derived
// from link counts by the caller.
type Registry struct {
	store ChainStore

	// now is injectable for deterministic created_at in tests.
	now func() time.Time
}

// NewRegistry creates a registry backed by the given store.
func NewRegistry(st ChainStore) *Registry {
	return &Registry{store: st, now: time.Now}
}

// Create persists a new chain with the current time and returns it.
// The title is trimmed; an empty result is an invalid argument.
func (r *Registry) Create(ctx context.Context, title, description string) (Chain, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Chain{}, NewInvalidArgument("chain title must not be empty")
	}

	createdAt := ref.FormatStamp(r.now())
	id, err := r.store.InsertChain(ctx, title, description, createdAt)
	if err != nil {
		return Chain{}, NewStoreError("create chain", err)
	}

	slog.Info("created event chain", "id", id, "title", title)
	return Chain{ID: id, Title: title, Description: description, CreatedAt: createdAt}, nil
}

// Rename updates the title and description of an existing chain.
func (r *Registry) Rename(ctx context.Context, id int64, title, description string) error {
	if id <= 0 {
		return NewInvalidArgument("chain id must be positive")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return NewInvalidArgument("chain title must not be empty")
	}

	affected, err := r.store.UpdateChain(ctx, id, title, description)
	if err != nil {
		return NewStoreError("rename chain", err)
	}
	if affected == 0 {
		return NewNotFound("chain", id)
	}

	slog.Info("renamed event chain", "id", id, "title", title)
	return nil
}

// Get returns one chain by id.
func (r *Registry) Get(ctx context.Context, id int64) (Chain, error) {
	if id <= 0 {
		return Chain{}, NewInvalidArgument("chain id must be positive")
	}

	row, ok, err := r.store.GetChain(ctx, id)
	if err != nil {
		return Chain{}, NewStoreError("get chain", err)
	}
	if !ok {
		return Chain{}, NewNotFound("chain", id)
	}
	return chainFromRow(row), nil
}

// List returns all chains, most recently created first. Operators work on
// active incidents, so recency ordering is deliberate.
func (r *Registry) List(ctx context.Context) ([]Chain, error) {
	rows, err := r.store.ListChains(ctx)
	if err != nil {
		return nil, NewStoreError("list chains", err)
	}

	chains := make([]Chain, len(rows))
	for i, row := range rows {
		chains[i] = chainFromRow(row)
	}
	return chains, nil
}

func chainFromRow(row store.ChainRow) Chain {
	return Chain{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
	}
}
