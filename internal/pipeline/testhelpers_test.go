package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clearterms/contract-cli/internal/config"
	"github.com/clearterms/contract-cli/internal/resilience"
	"github.com/clearterms/contract-cli/internal/store"
)

// testCall is a short-timeout call config for stage-level tests.
var testCall = resilience.CallConfig{}

// newTestConfig builds a config pointing artifacts at a tempdir.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Anthropic.HaikuModel = "claude-haiku-4-5"
	cfg.Anthropic.SonnetModel = "claude-sonnet-4-5"
	cfg.Pipeline.ArtifactsDir = t.TempDir()
	cfg.Pipeline.CallTimeoutSecs = 5
	cfg.Pipeline.MaxSearchTerms = 3
	cfg.Pipeline.SearchPerMinute = 0 // no rate limiting in tests
	return cfg
}

// newTestStore opens a migrated SQLite store in a tempdir.
func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// newTestPipeline wires a Pipeline with the given mocks and a real SQLite
// store.
func newTestPipeline(t *testing.T, ai *mockAnthropicClient, search *mockSearchClient, mail *mockMailerClient, calendar *mockCalendarClient) *Pipeline {
	t.Helper()
	p, err := New(newTestConfig(t), newTestStore(t), ai, search, mail, calendar)
	require.NoError(t, err)
	return p
}
