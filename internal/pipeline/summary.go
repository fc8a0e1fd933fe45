package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/clearterms/contract-cli/internal/model"
	"github.com/clearterms/contract-cli/internal/resilience"
	"github.com/clearterms/contract-cli/pkg/anthropic"
)

// WriteSummary renders the user-facing markdown summary and writes it as a
// run artifact. Missing parsed data or a failed write records an error on the
// state instead of aborting the run.
func WriteSummary(ctx context.Context, state model.AnalysisState, runID string, ai anthropic.Client, modelID, artifactsDir string, prompts *PromptSet, call resilience.CallConfig) (model.AnalysisState, anthropic.TokenUsage, error) {
	if state.ParsedContract == nil {
		state.Error = "no parsed contract to summarize"
		return state, anthropic.TokenUsage{}, nil
	}

	hasResearch := researchAvailable(state.ResearchResults)

	var system string
	switch {
	case state.Mode == model.ModeCreator && hasResearch:
		system = prompts.SummaryCreatorResearch
	case state.Mode == model.ModeCreator:
		system = prompts.SummaryCreator
	default:
		system = prompts.SummaryLegal
	}

	summaryContext := model.StructuredValue{
		"parsed_contract": state.ParsedContract,
		"risk_analysis":   state.RiskAnalysis,
	}
	if hasResearch {
		summaryContext["research_results"] = state.ResearchResults
		zap.L().Info("pipeline: including term research in summary")
	}
	contextJSON, err := json.MarshalIndent(summaryContext, "", "  ")
	if err != nil {
		state.Error = "summary writing failed: " + err.Error()
		return state, anthropic.TokenUsage{}, err
	}

	content, usage, err := invokeModel(ctx, ai, call, "write_summary", modelID, system,
		"Contract data:\n\n"+string(contextJSON))
	if err != nil {
		state.Error = "summary writing failed: " + err.Error()
		return state, usage, err
	}

	summary := stripMarkdownFence(content)

	path, err := writeArtifact(artifactsDir, summaryFileName(runID), []byte(summary))
	if err != nil {
		state.Error = "summary writing failed: " + err.Error()
		return state, usage, err
	}

	state.SummaryFile = path
	return state, usage, nil
}

// researchAvailable reports whether the research stage actually searched and
// produced term explanations.
func researchAvailable(research model.StructuredValue) bool {
	if research == nil {
		return false
	}
	searched, _ := research["searched"].(bool)
	terms, _ := research["terms"].(map[string]any)
	return searched && len(terms) > 0
}

// stripMarkdownFence removes a wrapping code fence the model sometimes adds
// despite instructions.
func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "```markdown"); idx != -1 {
		rest := s[idx+len("```markdown"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}

	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		// Drop the opening fence line with any language tag.
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		return strings.TrimSpace(s)
	}
	return s
}
