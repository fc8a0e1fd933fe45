package store

import (
	"context"

	"github.com/clearterms/contract-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status    model.RunStatus `json:"status,omitempty"`
	UserEmail string          `json:"user_email,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Offset    int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the analysis audit trail.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, userEmail string, mode model.Mode) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunCompany(ctx context.Context, runID string, company string) error
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stages
	CreateStage(ctx context.Context, runID string, name string) (*model.RunStage, error)
	CompleteStage(ctx context.Context, stageID string, result *model.StageResult) error
	ListStages(ctx context.Context, runID string) ([]model.RunStage, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
