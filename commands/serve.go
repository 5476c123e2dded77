package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raushankrgupta/fish-scout/analyzer"
	"github.com/raushankrgupta/fish-scout/api"
	"github.com/raushankrgupta/fish-scout/config"
	"github.com/raushankrgupta/fish-scout/crawler"
	"github.com/raushankrgupta/fish-scout/scrapers/goofish"
	"github.com/raushankrgupta/fish-scout/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "5000", "port to listen on")
	serveCmd.Flags().String("frontend-dir", "frontend", "directory with the dashboard files")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("frontend_dir", serveCmd.Flags().Lookup("frontend-dir"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()

	tracker := crawler.NewTracker()
	if listings, err := utils.LoadListings(dataPath(cfg)); err == nil {
		log.Infof("Loaded %d listings from an earlier run", len(listings))
		tracker.Load(listings)
	}

	var (
		runHistory crawler.History
		apiHistory api.History
		archiver   crawler.Archiver
		linker     api.ArchiveLinker
	)
	if cfg.MongoURI != "" {
		store, err := utils.NewHistoryStore(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		defer store.Close(context.Background())
		runHistory, apiHistory = store, store
	}
	if cfg.AWSBucketName != "" {
		s3Archiver, err := utils.NewArchiver(ctx, cfg.AWSRegion, cfg.AWSBucketName)
		if err != nil {
			return fmt.Errorf("failed to set up S3 archive: %w", err)
		}
		archiver, linker = s3Archiver, s3Archiver
	}

	cache, closeCache := openCache(cmd, cfg)
	defer closeCache()

	runner := crawler.NewRunner(tracker, crawler.Options{
		DataDir:        cfg.DataDir,
		DataFile:       cfg.DataFile,
		ScreenshotFile: goofish.DefaultConfig().ScreenshotFile,
		Timeout:        cfg.CrawlTimeout,
		ExtraEnv:       crawlerEnv(cfg),
	}, runHistory, archiver)

	opts := analyzer.DefaultOptions()
	opts.Connect = connectProvider
	ai := analyzer.New(clientConfig(cfg, ""), cache, opts)
	defer ai.Close()
	if cfg.GeminiAPIKey != "" {
		if err := ai.Init(ctx, ""); err != nil {
			log.Warnf("AI client not ready, set the key from the dashboard: %v", err)
		}
	}

	server := api.NewServer(cfg, tracker, runner, ai, apiHistory, linker, utils.NewMailer(cfg.SendGridAPIKey))
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server starting on http://localhost:%s", cfg.Port)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down, waiting for a running scrape to finish")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	runner.Wait()
	return nil
}

// crawlerEnv passes the scraper settings on to the crawl child, so flags
// given to serve apply there too.
func crawlerEnv(cfg *config.Config) []string {
	env := func(key, value string) string {
		return config.EnvPrefix + "_" + key + "=" + value
	}
	return []string{
		env("SESSION_FILE", cfg.SessionFile),
		env("BROWSER_DRIVER", strings.Join(cfg.BrowserDrivers, ",")),
		env("HEADLESS", strconv.FormatBool(cfg.Headless)),
		env("LOG_LEVEL", cfg.LogLevel),
		env("LOG_JSON", strconv.FormatBool(cfg.LogJSON)),
	}
}
