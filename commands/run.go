package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raushankrgupta/fish-scout/analyzer"
	"github.com/raushankrgupta/fish-scout/scrapers"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <keyword>",
	Short: "Check the proxy, scrape a keyword and print the AI picks",
	Long: `Terminal version of the dashboard. The AI client and its proxy are checked
first so a blocked region fails before the browser opens. The browser itself
always connects directly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTerminal,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("api-key", "k", "", "AI API key (default: GEMINI_API_KEY)")
	runCmd.Flags().String("format", FormatTable, "output format: text, json, yaml")
}

func runTerminal(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()
	keyword := strings.Join(args, " ")
	apiKey, _ := cmd.Flags().GetString("api-key")
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	opts := analyzer.DefaultOptions()
	opts.NoReconnect = true
	opts.Connect = connectProvider
	ai := analyzer.New(clientConfig(cfg, apiKey), nil, opts)
	defer ai.Close()

	if err := ai.Init(ctx, ""); err != nil {
		if errors.Is(err, analyzer.ErrRegionRestricted) {
			return fmt.Errorf("%w: switch the proxy to a node outside mainland China and try again", err)
		}
		return fmt.Errorf("AI client initialisation failed: %w", err)
	}

	scraper, err := scrapers.GetScraper(scrapers.DefaultSite, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Searching for %q, log in to Xianyu in the browser window if asked...\n", keyword)
	listings, err := scraper.Search(ctx, keyword)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}
	if len(listings) == 0 {
		fmt.Fprintln(out, "No listings found, see the debug screenshot.")
		return nil
	}
	fmt.Fprintf(out, "Found %d listings, asking %s...\n", len(listings), cfg.AIProvider)

	result, err := ai.Analyze(ctx, listings)
	var fallback *analyzer.FallbackError
	if errors.As(err, &fallback) {
		log.Warn(fallback.Error())
		return fmt.Errorf("the AI provider refused this region: use an API key registered in a supported region or a proxy node outside mainland China (%w)", fallback.Cause)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d recommendations:\n", len(result.Recommendations))
	return writeRecommendations(out, result.Recommendations, format)
}
