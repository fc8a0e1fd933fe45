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

// ExtractDeliverables pulls dated deliverables out of the parsed contract and
// writes the calendar artifact. Runs only in creator mode; any failure leaves
// the state with no deliverables and no calendar file.
func ExtractDeliverables(ctx context.Context, state model.AnalysisState, runID string, ai anthropic.Client, modelID, artifactsDir string, prompts *PromptSet, call resilience.CallConfig) (model.AnalysisState, anthropic.TokenUsage, error) {
	if state.ParsedContract == nil {
		state.Deliverables = nil
		return state, anthropic.TokenUsage{}, nil
	}

	parsedJSON, err := json.MarshalIndent(state.ParsedContract, "", "  ")
	if err != nil {
		return state, anthropic.TokenUsage{}, err
	}

	content, usage, err := invokeModel(ctx, ai, call, "extract_deliverables", modelID,
		prompts.Deliverables,
		"User email: "+state.UserEmail+"\n\nParsed contract:\n"+string(parsedJSON))
	if err != nil {
		zap.L().Warn("pipeline: deliverables extraction failed", zap.Error(err))
		return state, usage, err
	}

	deliverables := decodeDeliverables(content)
	if len(deliverables) == 0 {
		return state, usage, nil
	}

	data, err := json.MarshalIndent(deliverables, "", "  ")
	if err != nil {
		return state, usage, err
	}
	path, err := writeArtifact(artifactsDir, calendarFileName(runID), data)
	if err != nil {
		zap.L().Warn("pipeline: calendar artifact write failed", zap.Error(err))
		return state, usage, err
	}

	state.Deliverables = deliverables
	state.CalendarFile = path
	return state, usage, nil
}

// decodeDeliverables recovers the deliverable list from model output. An
// object wrapping the list under "deliverables" is unwrapped; anything else
// non-list yields nothing.
func decodeDeliverables(content string) []model.Deliverable {
	raw, ok := extract.Any(content)
	if !ok {
		return nil
	}

	if obj, isObj := raw.(map[string]any); isObj {
		raw = obj["deliverables"]
	}
	items, isList := raw.([]any)
	if !isList {
		return nil
	}

	// Round-trip through JSON to map loosely-typed items onto the struct.
	data, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	var deliverables []model.Deliverable
	if err := json.Unmarshal(data, &deliverables); err != nil {
		return nil
	}

	kept := deliverables[:0]
	for _, d := range deliverables {
		if d.StartTime == "null" {
			d.StartTime = ""
		}
		kept = append(kept, d)
	}
	return kept
}
