package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/clearterms/contract-cli/internal/extract"
	"github.com/clearterms/contract-cli/internal/model"
	"github.com/clearterms/contract-cli/internal/resilience"
	"github.com/clearterms/contract-cli/pkg/anthropic"
)

// rawContentLimit bounds how much unparseable model output is kept in the
// fallback structure.
const rawContentLimit = 1000

// ParseContract extracts the structured clause breakdown from the contract
// text. A model failure or unparseable output never fails the run: the state
// carries a fallback structure so later stages keep working.
func ParseContract(ctx context.Context, state model.AnalysisState, ai anthropic.Client, modelID string, prompts *PromptSet, call resilience.CallConfig) (model.AnalysisState, anthropic.TokenUsage, error) {
	system := prompts.ParseLegal
	if state.Mode == model.ModeCreator {
		system = prompts.ParseCreator
	}

	content, usage, err := invokeModel(ctx, ai, call, "parse_contract", modelID, system,
		"Contract text:\n\n"+state.ContractText)
	if err != nil {
		state.Error = "contract parsing failed: " + err.Error()
		state.ParsedContract = model.StructuredValue{"error": err.Error()}
		return state, usage, err
	}

	parsed, ok := extract.Object(content)
	if !ok {
		zap.L().Warn("pipeline: contract output not parseable, keeping raw prefix")
		state.ParsedContract = model.StructuredValue{
			"error":        "JSON parsing failed",
			"raw_content":  truncate(content, rawContentLimit),
			"deliverables": []any{},
			"clauses":      []any{},
		}
		return state, usage, nil
	}

	state.ParsedContract = parsed
	return state, usage, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
