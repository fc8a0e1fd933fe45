package model

import "time"

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusExtracting  RunStatus = "extracting"
	RunStatusAnalyzing   RunStatus = "analyzing"
	RunStatusResearching RunStatus = "researching"
	RunStatusSummarizing RunStatus = "summarizing"
	RunStatusNotifying   RunStatus = "notifying"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run is the audit record for a single contract analysis.
type Run struct {
	ID        string     `json:"id"`
	UserEmail string     `json:"user_email"`
	Mode      Mode       `json:"mode"`
	Company   string     `json:"company,omitempty"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	RunID         string           `json:"run_id,omitempty"`
	CompanyName   string           `json:"company_name"`
	CompanyMethod ExtractionMethod `json:"company_extraction_method"`
	OverallRisk   string           `json:"overall_risk,omitempty"`
	SummaryFile   string           `json:"summary_file,omitempty"`
	CalendarFile  string           `json:"calendar_file,omitempty"`
	Deliverables  int              `json:"deliverables"`
	Notifications []string         `json:"notifications,omitempty"`
	Stages        []StageResult    `json:"stages"`
	TotalTokens   int64            `json:"total_tokens"`
	Error         string           `json:"error,omitempty"`
}

// StageStatus represents the current state of a pipeline stage.
type StageStatus string

const (
	StageStatusRunning  StageStatus = "running"
	StageStatusComplete StageStatus = "complete"
	StageStatusDegraded StageStatus = "degraded"
	StageStatusSkipped  StageStatus = "skipped"
)

// StageResult holds the outcome of one pipeline stage.
type StageResult struct {
	Name     string         `json:"name"`
	Status   StageStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Note     string         `json:"note,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RunStage is the stored row for a stage within a run.
type RunStage struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    StageStatus  `json:"status"`
	Result    *StageResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}
