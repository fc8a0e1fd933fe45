package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clearterms/contract-cli/internal/extract"
	"github.com/clearterms/contract-cli/internal/model"
	"github.com/clearterms/contract-cli/internal/resilience"
	"github.com/clearterms/contract-cli/pkg/anthropic"
	"github.com/clearterms/contract-cli/pkg/perplexity"
)

const (
	// maxIdentifiedTerms caps how many candidate terms the model may return.
	maxIdentifiedTerms = 5
	// maxTermWords rejects identified phrases that are too long to be a term.
	maxTermWords = 6
	// searchResultLimit bounds the raw search text fed back to the model.
	searchResultLimit = 2000
)

// ResearchTerms asks the model which contract terms need explaining, then
// searches the web for each and summarizes the findings. Per-term failures
// are recorded in place of the explanation; the stage itself never fails.
func ResearchTerms(ctx context.Context, state model.AnalysisState, ai anthropic.Client, modelID string, search perplexity.Client, prompts *PromptSet, call resilience.CallConfig, limiter *rate.Limiter, maxSearches int) (model.AnalysisState, anthropic.TokenUsage, error) {
	var usage anthropic.TokenUsage

	terms, identifyUsage := identifyUnclearTerms(ctx, state, ai, modelID, prompts, call)
	usage.Add(identifyUsage)

	if len(terms) == 0 {
		zap.L().Info("pipeline: no unclear terms identified, skipping research")
		state.ResearchResults = model.StructuredValue{
			"searched": false,
			"message":  "No unclear terms found",
		}
		return state, usage, nil
	}
	zap.L().Info("pipeline: researching unclear terms", zap.Strings("terms", terms))

	if maxSearches > 0 && len(terms) > maxSearches {
		terms = terms[:maxSearches]
	}

	explanations := model.StructuredValue{}
	for _, term := range terms {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				explanations[term] = "Could not research this term: " + err.Error()
				continue
			}
		}

		query := term + " contract legal meaning"
		result, err := resilience.Call(ctx, call, "research_search", func(ctx context.Context) (string, error) {
			return search.Search(ctx, query)
		})
		if err != nil {
			zap.L().Warn("pipeline: search failed", zap.String("term", term), zap.Error(err))
			explanations[term] = "Could not research this term: " + err.Error()
			continue
		}

		summary, sumUsage, err := invokeModel(ctx, ai, call, "summarize_search", modelID,
			prompts.SummarizeSearch,
			"Term to explain: "+term+"\n\nSearch results:\n"+truncate(result, searchResultLimit))
		usage.Add(sumUsage)
		if err != nil {
			explanations[term] = "Could not generate explanation: " + err.Error()
			continue
		}
		explanations[term] = strings.TrimSpace(summary)
	}

	state.ResearchResults = model.StructuredValue{
		"searched": true,
		"terms":    explanations,
	}
	return state, usage, nil
}

// identifyUnclearTerms returns up to maxIdentifiedTerms short phrases worth
// researching, or nothing when the model fails or returns junk.
func identifyUnclearTerms(ctx context.Context, state model.AnalysisState, ai anthropic.Client, modelID string, prompts *PromptSet, call resilience.CallConfig) ([]string, anthropic.TokenUsage) {
	payload := model.StructuredValue{
		"parsed_contract": state.ParsedContract,
		"risk_analysis":   state.RiskAnalysis,
	}
	contextJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, anthropic.TokenUsage{}
	}

	content, usage, err := invokeModel(ctx, ai, call, "identify_terms", modelID,
		prompts.IdentifyTerms, "Contract data:\n\n"+string(contextJSON))
	if err != nil {
		zap.L().Warn("pipeline: term identification failed", zap.Error(err))
		return nil, usage
	}

	raw, ok := extract.Any(strings.TrimSpace(content))
	if !ok {
		return nil, usage
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, usage
	}

	var terms []string
	for _, item := range items {
		term, ok := item.(string)
		if !ok {
			continue
		}
		term = strings.TrimSpace(term)
		if len(term) <= 2 || len(strings.Fields(term)) > maxTermWords {
			continue
		}
		terms = append(terms, term)
		if len(terms) == maxIdentifiedTerms {
			break
		}
	}
	return terms, usage
}
