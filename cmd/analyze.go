package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clearterms/contract-cli/internal/model"
)

var (
	analyzeFile  string
	analyzeText  string
	analyzeEmail string
	analyzeMode  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a single contract",
	Long:  "Runs the full analysis pipeline over one contract: company extraction, parsing, risk analysis, term research, and summary delivery.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		contractText, err := loadContractText()
		if err != nil {
			return err
		}

		mode := model.Mode(analyzeMode)
		if !mode.Valid() {
			return eris.Errorf("invalid mode %q (want legal or creator)", analyzeMode)
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		state, result, err := env.Pipeline.Run(ctx, contractText, analyzeEmail, mode)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("analysis complete",
			zap.String("run_id", result.RunID),
			zap.String("company", state.CompanyName),
			zap.String("overall_risk", result.OverallRisk),
			zap.Int64("total_tokens", result.TotalTokens),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// loadContractText resolves the contract body from --text or --file.
func loadContractText() (string, error) {
	if analyzeText != "" {
		return analyzeText, nil
	}
	if analyzeFile == "" {
		return "", eris.New("either --file or --text is required")
	}

	data, err := os.ReadFile(analyzeFile)
	if err != nil {
		return "", eris.Wrapf(err, "read contract file %s", analyzeFile)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", eris.Errorf("contract file %s is empty", analyzeFile)
	}
	return string(data), nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "path to the contract text file")
	analyzeCmd.Flags().StringVar(&analyzeText, "text", "", "contract text inline (overrides --file)")
	analyzeCmd.Flags().StringVar(&analyzeEmail, "email", "", "recipient email for the summary (required)")
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", string(model.ModeCreator), "analysis mode: legal or creator")
	_ = analyzeCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(analyzeCmd)
}
