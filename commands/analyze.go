package commands

import (
	"errors"
	"fmt"

	"github.com/raushankrgupta/fish-scout/analyzer"
	"github.com/raushankrgupta/fish-scout/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score saved listings with the AI model",
	Args:  cobra.NoArgs,
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	flags := analyzeCmd.Flags()
	flags.StringP("file", "f", "", "listings file (default: the data file)")
	flags.String("format", FormatJSON, "output format: json, yaml, text")
	flags.StringP("api-key", "k", "", "AI API key (default: GEMINI_API_KEY)")
	flags.Bool("local", false, "skip the AI model and use local scoring")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	flags := cmd.Flags()
	path, _ := flags.GetString("file")
	format, _ := flags.GetString("format")
	apiKey, _ := flags.GetString("api-key")
	local, _ := flags.GetBool("local")

	if path == "" {
		path = dataPath(cfg)
	}
	listings, err := utils.LoadListings(path)
	if err != nil {
		return fmt.Errorf("failed to load listings: %w", err)
	}
	if len(listings) == 0 {
		return analyzer.ErrNoData
	}

	if local {
		return writeRecommendations(cmd.OutOrStdout(), analyzer.LocalScore(listings), format)
	}

	cache, closeCache := openCache(cmd, cfg)
	defer closeCache()

	opts := analyzer.DefaultOptions()
	opts.Connect = connectProvider
	ai := analyzer.New(clientConfig(cfg, apiKey), cache, opts)
	defer ai.Close()
	if err := ai.Init(cmd.Context(), ""); err != nil {
		return fmt.Errorf("AI client initialisation failed: %w", err)
	}

	result, err := ai.Analyze(cmd.Context(), listings)
	var fallback *analyzer.FallbackError
	if errors.As(err, &fallback) {
		log.Warn(fallback.Error())
		return writeRecommendations(cmd.OutOrStdout(), fallback.Recommendations, format)
	}
	if err != nil {
		return err
	}
	return writeRecommendations(cmd.OutOrStdout(), result.Recommendations, format)
}
