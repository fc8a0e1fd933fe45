package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/clearterms/contract-cli/internal/pipeline"
	"github.com/clearterms/contract-cli/internal/store"
	anthropicpkg "github.com/clearterms/contract-cli/pkg/anthropic"
	"github.com/clearterms/contract-cli/pkg/gcal"
	"github.com/clearterms/contract-cli/pkg/mailer"
	"github.com/clearterms/contract-cli/pkg/perplexity"
)

// pipelineEnv holds the initialized store and pipeline needed by the
// analyze/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured run-audit backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "contract-cli.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store and API clients and builds the Pipeline.
// Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (CONTRACT_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	perplexityClient := perplexity.NewClient(cfg.Perplexity.Key,
		perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
		perplexity.WithModel(cfg.Perplexity.Model),
	)
	mailClient := mailer.NewClient(cfg.Mail.Sender, cfg.Mail.Password, mailer.WithAddr(cfg.Mail.Addr))
	calendarClient := gcal.NewClient(cfg.Calendar.Token, gcal.WithCalendarID(cfg.Calendar.CalendarID))

	p, err := pipeline.New(cfg, st, anthropicClient, perplexityClient, mailClient, calendarClient)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &pipelineEnv{Store: st, Pipeline: p}, nil
}
