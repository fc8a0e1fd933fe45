package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearterms/contract-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "alice@example.com", model.ModeLegal)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "alice@example.com", got.UserEmail)
	assert.Equal(t, model.ModeLegal, got.Mode)
	assert.Empty(t, got.Company)
	assert.Nil(t, got.Result)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_UpdateRunStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "alice@example.com", model.ModeCreator)
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusExtracting))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusExtracting, got.Status)
}

func TestSQLite_UpdateRunStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.UpdateRunStatus(context.Background(), "missing-run", model.RunStatusComplete)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_UpdateRunCompany(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "alice@example.com", model.ModeLegal)
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunCompany(ctx, run.ID, "Acme Corp"))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Company)
}

func TestSQLite_CompleteRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "bob@example.com", model.ModeCreator)
	require.NoError(t, err)

	result := &model.RunResult{
		CompanyName:   "Acme Corp",
		CompanyMethod: model.MethodLLM,
		OverallRisk:   "Medium",
		Deliverables:  2,
		TotalTokens:   4200,
		Stages: []model.StageResult{
			{Name: "extract_company", Status: model.StageStatusComplete, Duration: 120},
		},
	}
	require.NoError(t, st.CompleteRun(ctx, run.ID, model.RunStatusComplete, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "Acme Corp", got.Result.CompanyName)
	assert.Equal(t, model.MethodLLM, got.Result.CompanyMethod)
	assert.Equal(t, int64(4200), got.Result.TotalTokens)
	require.Len(t, got.Result.Stages, 1)
	assert.Equal(t, model.StageStatusComplete, got.Result.Stages[0].Status)
}

func TestSQLite_CompleteRun_Failed(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "bob@example.com", model.ModeLegal)
	require.NoError(t, err)

	result := &model.RunResult{Error: "empty contract text"}
	require.NoError(t, st.CompleteRun(ctx, run.ID, model.RunStatusFailed, result))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "empty contract text", got.Result.Error)
}

func TestSQLite_ListRuns_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	r1, err := st.CreateRun(ctx, "alice@example.com", model.ModeLegal)
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "bob@example.com", model.ModeCreator)
	require.NoError(t, err)

	require.NoError(t, st.UpdateRunStatus(ctx, r1.ID, model.RunStatusComplete))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, r1.ID, complete[0].ID)

	byEmail, err := st.ListRuns(ctx, RunFilter{UserEmail: "bob@example.com"})
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "bob@example.com", byEmail[0].UserEmail)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_Stages(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "alice@example.com", model.ModeLegal)
	require.NoError(t, err)

	s1, err := st.CreateStage(ctx, run.ID, "extract_company")
	require.NoError(t, err)
	assert.Equal(t, model.StageStatusRunning, s1.Status)

	s2, err := st.CreateStage(ctx, run.ID, "parse_contract")
	require.NoError(t, err)

	require.NoError(t, st.CompleteStage(ctx, s1.ID, &model.StageResult{
		Name:     "extract_company",
		Status:   model.StageStatusComplete,
		Duration: 80,
		Metadata: map[string]any{"method": "llm"},
	}))

	stages, err := st.ListStages(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, stages, 2)

	byName := map[string]model.RunStage{}
	for _, s := range stages {
		byName[s.Name] = s
	}
	done := byName["extract_company"]
	assert.Equal(t, model.StageStatusComplete, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, "llm", done.Result.Metadata["method"])

	pending := byName["parse_contract"]
	assert.Equal(t, s2.ID, pending.ID)
	assert.Equal(t, model.StageStatusRunning, pending.Status)
	assert.Nil(t, pending.Result)
}

func TestSQLite_CompleteStage_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.CompleteStage(context.Background(), "missing-stage", &model.StageResult{
		Status: model.StageStatusComplete,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
