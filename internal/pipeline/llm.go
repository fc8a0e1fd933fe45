package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/clearterms/contract-cli/internal/resilience"
	"github.com/clearterms/contract-cli/pkg/anthropic"
)

const stageMaxTokens = 4096

// invokeModel sends one system+user exchange through the resilient call
// wrapper and returns the joined text content with token usage.
func invokeModel(ctx context.Context, ai anthropic.Client, call resilience.CallConfig, stage, modelID, system, user string) (string, anthropic.TokenUsage, error) {
	temp := 0.0
	resp, err := resilience.Call(ctx, call, stage, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       modelID,
			MaxTokens:   stageMaxTokens,
			System:      system,
			Temperature: &temp,
			Messages: []anthropic.Message{
				{Role: "user", Content: user},
			},
		})
	})
	if err != nil {
		return "", anthropic.TokenUsage{}, eris.Wrapf(err, "pipeline: %s", stage)
	}

	resp.Usage.LogCost(modelID, stage)

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), resp.Usage, nil
}
