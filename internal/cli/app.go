package cli

import (
	"fmt"

	"github.com/watchfloor/opschain/internal/analyze"
	"github.com/watchfloor/opschain/internal/chain"
	"github.com/watchfloor/opschain/internal/config"
	"github.com/watchfloor/opschain/internal/ref"
	"github.com/watchfloor/opschain/internal/store"
	"github.com/watchfloor/opschain/internal/unify"
)

// App bundles the wired services a command needs. Commands build one with
// openApp and must Close it when done.
type App struct {
	Config   config.Config
	Store    *store.Store
	Catalog  ref.Catalog
	Chains   *chain.Registry
	Links    *chain.Links
	Merger   *unify.Aggregator
	Analyzer *analyze.Analyzer
}

// Close releases the underlying database handle.
func (a *App) Close() error {
	return a.Store.Close()
}

// openApp loads configuration, opens the store and wires the service layer.
// The --db flag overrides the configured database path.
func openApp(opts *RootOptions) (*App, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("building kind catalog: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.DBPath, err)
	}

	return &App{
		Config:   cfg,
		Store:    st,
		Catalog:  catalog,
		Chains:   chain.NewRegistry(st),
		Links:    chain.NewLinks(st, catalog),
		Merger:   unify.New(st, catalog),
		Analyzer: analyze.New(chain.NewRegistry(st), chain.NewLinks(st, catalog), st, catalog, cfg.Rating),
	}, nil
}
