package pipeline

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/clearterms/contract-cli/internal/extract"
	"github.com/clearterms/contract-cli/internal/model"
	"github.com/clearterms/contract-cli/internal/resilience"
	"github.com/clearterms/contract-cli/pkg/anthropic"
)

// rawAnalysisLimit bounds the raw model text kept in the degraded risk
// structure.
const rawAnalysisLimit = 500

// AnalyzeRisks evaluates the parsed contract for risk. Like parsing, it
// degrades instead of failing: missing input, bad output, and call errors
// each leave a well-formed risk structure behind.
func AnalyzeRisks(ctx context.Context, state model.AnalysisState, ai anthropic.Client, modelID string, prompts *PromptSet, call resilience.CallConfig) (model.AnalysisState, anthropic.TokenUsage, error) {
	if state.ParsedContract == nil {
		state.RiskAnalysis = model.StructuredValue{"error": "no parsed contract available"}
		return state, anthropic.TokenUsage{}, nil
	}

	system := prompts.RiskLegal
	if state.Mode == model.ModeCreator {
		system = prompts.RiskCreator
	}

	parsedJSON, err := json.MarshalIndent(state.ParsedContract, "", "  ")
	if err != nil {
		state.RiskAnalysis = model.StructuredValue{
			"error":              "risk analysis failed: " + err.Error(),
			"risks":              []any{},
			"overall_risk_score": "Unknown",
		}
		return state, anthropic.TokenUsage{}, err
	}

	content, usage, err := invokeModel(ctx, ai, call, "analyze_risks", modelID, system,
		"Parsed contract data:\n\n"+string(parsedJSON))
	if err != nil {
		state.RiskAnalysis = model.StructuredValue{
			"error":              "risk analysis failed: " + err.Error(),
			"risks":              []any{},
			"overall_risk_score": "Unknown",
		}
		return state, usage, err
	}

	risks, ok := extract.Object(content)
	if !ok {
		zap.L().Warn("pipeline: risk output not parseable, recording medium default")
		state.RiskAnalysis = model.StructuredValue{
			"risks": []any{
				map[string]any{
					"category":     "General Analysis",
					"level":        "Medium",
					"reason":       "Analysis completed but JSON parsing failed. See summary for details.",
					"raw_analysis": truncate(content, rawAnalysisLimit),
				},
			},
			"overall_risk_score": "Medium",
			"parsing_note":       "Risk analysis text available but not fully structured",
		}
		return state, usage, nil
	}

	state.RiskAnalysis = risks
	return state, usage, nil
}
