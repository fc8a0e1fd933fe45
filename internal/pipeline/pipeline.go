package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clearterms/contract-cli/internal/company"
	"github.com/clearterms/contract-cli/internal/config"
	"github.com/clearterms/contract-cli/internal/model"
	"github.com/clearterms/contract-cli/internal/resilience"
	"github.com/clearterms/contract-cli/internal/store"
	"github.com/clearterms/contract-cli/pkg/anthropic"
	"github.com/clearterms/contract-cli/pkg/gcal"
	"github.com/clearterms/contract-cli/pkg/mailer"
	"github.com/clearterms/contract-cli/pkg/perplexity"
)

// Pipeline orchestrates the contract analysis stages.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	ai       anthropic.Client
	search   perplexity.Client
	mail     mailer.Client
	calendar gcal.Client
	resolver *company.Resolver
	prompts  *PromptSet
	call     resilience.CallConfig
	limiter  *rate.Limiter
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	aiClient anthropic.Client,
	searchClient perplexity.Client,
	mailClient mailer.Client,
	calendarClient gcal.Client,
) (*Pipeline, error) {
	prompts, err := LoadPrompts(cfg.Pipeline.PromptsFile)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load prompts")
	}

	call := resilience.CallConfig{
		Timeout: time.Duration(cfg.Pipeline.CallTimeoutSecs) * time.Second,
	}

	var limiter *rate.Limiter
	if cfg.Pipeline.SearchPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.Pipeline.SearchPerMinute)), 1)
	}

	return &Pipeline{
		cfg:      cfg,
		store:    st,
		ai:       aiClient,
		search:   searchClient,
		mail:     mailClient,
		calendar: calendarClient,
		resolver: company.NewResolver(aiClient, cfg.Anthropic.HaikuModel, call),
		prompts:  prompts,
		call:     call,
		limiter:  limiter,
	}, nil
}

// Run executes the full analysis for one contract. Stage failures degrade the
// result instead of aborting: every stage runs, and the state only ever gains
// information.
func (p *Pipeline) Run(ctx context.Context, contractText, userEmail string, mode model.Mode) (*model.AnalysisState, *model.RunResult, error) {
	if strings.TrimSpace(contractText) == "" {
		return nil, nil, eris.New("pipeline: empty contract text")
	}
	if strings.TrimSpace(userEmail) == "" {
		return nil, nil, eris.New("pipeline: missing user email")
	}
	if !mode.Valid() {
		return nil, nil, eris.Errorf("pipeline: unknown mode %q", mode)
	}

	state := model.NewAnalysisState(contractText, userEmail, mode)
	log := zap.L().With(zap.String("mode", string(mode)), zap.String("user", userEmail))
	log.Info("pipeline: starting analysis")

	run, err := p.store.CreateRun(ctx, userEmail, mode)
	if err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: create run")
	}
	log = log.With(zap.String("run_id", run.ID))

	result := &model.RunResult{RunID: run.ID}
	var totalUsage anthropic.TokenUsage

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	trackStage := func(name string, fn func() (*model.StageResult, error)) {
		stage, stageErr := p.store.CreateStage(ctx, run.ID, name)
		if stageErr != nil {
			log.Warn("pipeline: failed to create stage", zap.String("stage", name), zap.Error(stageErr))
		}

		start := time.Now()
		stageResult, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if stageResult == nil {
			stageResult = &model.StageResult{}
		}
		stageResult.Name = name
		stageResult.Duration = duration

		if fnErr != nil {
			if stageResult.Status == "" || stageResult.Status == model.StageStatusRunning {
				stageResult.Status = model.StageStatusDegraded
			}
			stageResult.Note = fnErr.Error()
			log.Warn("pipeline: stage degraded",
				zap.String("stage", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		} else {
			if stageResult.Status == "" || stageResult.Status == model.StageStatusRunning {
				stageResult.Status = model.StageStatusComplete
			}
			log.Info("pipeline: stage complete",
				zap.String("stage", name),
				zap.Int64("duration_ms", duration),
			)
		}

		if stage != nil {
			if completeErr := p.store.CompleteStage(ctx, stage.ID, stageResult); completeErr != nil {
				log.Warn("pipeline: failed to complete stage", zap.String("stage", name), zap.Error(completeErr))
			}
		}
		result.Stages = append(result.Stages, *stageResult)
	}

	// ----- extract_company -----
	setStatus(model.RunStatusExtracting)

	trackStage("extract_company", func() (*model.StageResult, error) {
		name, method := p.resolver.Resolve(ctx, state.ContractText)
		state.CompanyName = name
		state.CompanyMethod = method
		if companyErr := p.store.UpdateRunCompany(ctx, run.ID, name); companyErr != nil {
			log.Warn("pipeline: failed to record company", zap.Error(companyErr))
		}
		return &model.StageResult{
			Metadata: map[string]any{
				"company": name,
				"method":  string(method),
			},
		}, nil
	})

	// ----- parse_contract -----
	trackStage("parse_contract", func() (*model.StageResult, error) {
		next, usage, parseErr := ParseContract(ctx, state, p.ai, p.cfg.Anthropic.SonnetModel, p.prompts, p.call)
		state = next
		totalUsage.Add(usage)
		return &model.StageResult{
			Metadata: map[string]any{
				"parsed": state.ParsedContract != nil,
				"tokens": usage.Total(),
			},
		}, parseErr
	})

	// ----- analyze_risks -----
	setStatus(model.RunStatusAnalyzing)

	trackStage("analyze_risks", func() (*model.StageResult, error) {
		next, usage, riskErr := AnalyzeRisks(ctx, state, p.ai, p.cfg.Anthropic.SonnetModel, p.prompts, p.call)
		state = next
		totalUsage.Add(usage)
		return &model.StageResult{
			Metadata: map[string]any{
				"overall_risk": overallRisk(state.RiskAnalysis),
				"tokens":       usage.Total(),
			},
		}, riskErr
	})

	// ----- research_terms -----
	setStatus(model.RunStatusResearching)

	trackStage("research_terms", func() (*model.StageResult, error) {
		next, usage, researchErr := ResearchTerms(ctx, state, p.ai, p.cfg.Anthropic.HaikuModel, p.search, p.prompts, p.call, p.limiter, p.cfg.Pipeline.MaxSearchTerms)
		state = next
		totalUsage.Add(usage)
		searched, _ := state.ResearchResults["searched"].(bool)
		return &model.StageResult{
			Metadata: map[string]any{
				"searched": searched,
				"tokens":   usage.Total(),
			},
		}, researchErr
	})

	// ----- extract_deliverables (creator only) -----
	setStatus(model.RunStatusSummarizing)

	if mode == model.ModeCreator {
		trackStage("extract_deliverables", func() (*model.StageResult, error) {
			next, usage, delivErr := ExtractDeliverables(ctx, state, run.ID, p.ai, p.cfg.Anthropic.SonnetModel, p.cfg.Pipeline.ArtifactsDir, p.prompts, p.call)
			state = next
			totalUsage.Add(usage)
			return &model.StageResult{
				Metadata: map[string]any{
					"deliverables": len(state.Deliverables),
					"tokens":       usage.Total(),
				},
			}, delivErr
		})
	}

	// ----- write_summary -----
	trackStage("write_summary", func() (*model.StageResult, error) {
		next, usage, summaryErr := WriteSummary(ctx, state, run.ID, p.ai, p.cfg.Anthropic.SonnetModel, p.cfg.Pipeline.ArtifactsDir, p.prompts, p.call)
		state = next
		totalUsage.Add(usage)
		return &model.StageResult{
			Metadata: map[string]any{
				"summary_file": state.SummaryFile,
				"tokens":       usage.Total(),
			},
		}, summaryErr
	})

	// ----- send_notifications -----
	setStatus(model.RunStatusNotifying)

	trackStage("send_notifications", func() (*model.StageResult, error) {
		state = SendNotifications(ctx, state, p.mail, p.calendar)
		return &model.StageResult{
			Metadata: map[string]any{
				"results": state.NotificationResults,
			},
		}, nil
	})

	// ----- finalize -----
	result.CompanyName = state.CompanyName
	result.CompanyMethod = state.CompanyMethod
	result.OverallRisk = overallRisk(state.RiskAnalysis)
	result.SummaryFile = state.SummaryFile
	result.CalendarFile = state.CalendarFile
	result.Deliverables = len(state.Deliverables)
	result.Notifications = state.NotificationResults
	result.TotalTokens = totalUsage.Total()
	result.Error = state.Error

	finalStatus := model.RunStatusComplete
	if state.Error != "" {
		finalStatus = model.RunStatusFailed
	}
	if completeErr := p.store.CompleteRun(ctx, run.ID, finalStatus, result); completeErr != nil {
		log.Warn("pipeline: failed to complete run", zap.Error(completeErr))
	}

	log.Info("pipeline: analysis finished",
		zap.String("status", string(finalStatus)),
		zap.String("company", state.CompanyName),
		zap.Int64("total_tokens", result.TotalTokens),
	)
	return &state, result, nil
}

// overallRisk pulls the aggregate score out of the risk structure, or
// "Unknown" when it is absent.
func overallRisk(risk model.StructuredValue) string {
	if risk == nil {
		return "Unknown"
	}
	if score, ok := risk["overall_risk_score"].(string); ok && score != "" {
		return score
	}
	return "Unknown"
}
