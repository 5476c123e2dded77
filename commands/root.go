// Package commands implements the fishscout CLI.
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/raushankrgupta/fish-scout/analyzer"
	"github.com/raushankrgupta/fish-scout/config"
	"github.com/raushankrgupta/fish-scout/scrapers"
	"github.com/raushankrgupta/fish-scout/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// connectProvider builds AI clients for the commands
var connectProvider analyzer.Connector = analyzer.Connect

var rootCmd = &cobra.Command{
	Use:   "fishscout",
	Short: "Xianyu (goofish) deal finder with AI scoring",
	Long: `Fish Scout searches the Xianyu second-hand marketplace in a real browser,
saves the listings and asks an AI model which ones are worth buying.

Examples:
  # Start the dashboard on http://localhost:5000
  fishscout serve

  # Scrape one keyword into temp_data.json
  fishscout crawl "switch oled"

  # Score the saved listings and print YAML
  fishscout analyze --format yaml

  # Scrape and score in one go from the terminal
  fishscout run "switch oled"`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(viper.GetString("log_level"), viper.GetBool("log_json"))
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "log as JSON")
	flags.String("data-dir", ".", "directory for the data file, session and screenshots")
	flags.String("ai-provider", "gemini", "AI provider: gemini, openai, anthropic")
	flags.String("ai-model", "", "model name (provider default when empty)")
	flags.String("browser-driver", "chromedp", "browser drivers to try in order, comma separated")
	flags.Bool("headless", false, "run the browser without a window")

	for key, flag := range map[string]string{
		"log_level":      "log-level",
		"log_json":       "log-json",
		"data_dir":       "data-dir",
		"ai_provider":    "ai-provider",
		"ai_model":       "ai-model",
		"browser_driver": "browser-driver",
		"headless":       "headless",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

// Execute runs the root command. Ctrl-C cancels the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig() *config.Config {
	return config.LoadConfig(viper.GetViper())
}

func setupLogging(level string, asJSON bool) {
	if asJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	log.SetOutput(os.Stdout)

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Invalid log level %q, using info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// clientConfig maps the settings onto the AI client
func clientConfig(cfg *config.Config, apiKey string) analyzer.ClientConfig {
	if apiKey == "" {
		apiKey = cfg.GeminiAPIKey
	}
	return analyzer.ClientConfig{
		Provider:      cfg.AIProvider,
		Model:         cfg.AIModel,
		APIKey:        apiKey,
		Proxy:         utils.ProxyConfig{URL: cfg.ProxyURL},
		ProxyCheckURL: cfg.ProxyCheckURL,
	}
}

// openCache connects the analysis cache when REDIS_ADDR is set. A nil
// interface means no cache.
func openCache(cmd *cobra.Command, cfg *config.Config) (analyzer.Cache, func()) {
	if cfg.RedisAddr == "" {
		return nil, func() {}
	}
	cache, err := utils.NewAnalysisCache(cmd.Context(), cfg.RedisAddr, cfg.CacheTTL)
	if err != nil {
		log.Warnf("[CACHE] Disabled: %v", err)
		return nil, func() {}
	}
	return cache, func() { cache.Close() }
}

func dataPath(cfg *config.Config) string {
	return scrapers.ResolvePath(cfg.DataDir, cfg.DataFile)
}
