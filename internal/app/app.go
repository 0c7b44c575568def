// Package app wires the configured components together for the server and
// the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgallion1/matclass/internal/config"
	"github.com/dgallion1/matclass/internal/describe"
	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/dgallion1/matclass/internal/llm"
	"github.com/dgallion1/matclass/internal/navigate"
	"github.com/dgallion1/matclass/internal/oracle"
	"github.com/dgallion1/matclass/internal/parser"
	"github.com/dgallion1/matclass/internal/store"
)

// App holds the long-lived components.
type App struct {
	Cfg       config.Config
	Log       *slog.Logger
	Tree      *hierarchy.Tree
	LLM       *llm.Client
	Store     *store.Store
	Describer *describe.Describer

	base    *navigate.Engine
	mu      sync.Mutex
	engines map[string]*navigate.Engine
}

// Open loads the hierarchy, builds the oracle client and opens the history
// store. withStore false skips the database.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger, withStore bool) (*App, error) {
	tree, stats, err := hierarchy.Load(cfg.HierarchyPath)
	if err != nil {
		return nil, err
	}
	log.Info("hierarchy loaded",
		"path", cfg.HierarchyPath,
		"nodes", stats.Nodes,
		"attached", stats.Attached,
		"orphans", stats.Orphans,
		"duplicates", stats.Duplicates,
		"dropped", stats.Dropped,
	)
	if stats.Orphans > 0 {
		log.Warn("hierarchy has orphan codes", "orphans", stats.Orphans)
	}

	client, err := llm.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}

	a := &App{
		Cfg:       cfg,
		Log:       log,
		Tree:      tree,
		LLM:       client,
		Describer: describe.New(client, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}, cfg.MaxDescriptionTokens, log),
		base:      navigate.New(tree, nil, log),
		engines:   make(map[string]*navigate.Engine),
	}

	if withStore {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			client.Close()
			return nil, err
		}
		a.Store = st
	}
	return a, nil
}

// Engine returns the engine that consults model, creating it on first use.
func (a *App) Engine(model string) *navigate.Engine {
	a.mu.Lock()
	defer a.mu.Unlock()
	if eng, ok := a.engines[model]; ok {
		return eng
	}
	eng := a.base.WithOracle(oracle.NewLLMOracle(a.LLM, model, a.Log))
	a.engines[model] = eng
	return eng
}

// Close releases the store and idle connections.
func (a *App) Close() error {
	a.LLM.Close()
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
