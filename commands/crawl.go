package commands

import (
	"fmt"
	"strings"

	"github.com/raushankrgupta/fish-scout/scrapers"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <keyword>",
	Short: "Scrape Xianyu search results for a keyword into the data file",
	Long: `Opens a browser on the Xianyu search page, waits for you to log in when
needed and writes the listings to the data file. The dashboard runs this
command as a child process.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	crawlCmd.Flags().String("site", scrapers.DefaultSite, "marketplace to search")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	keyword := strings.Join(args, " ")
	site, _ := cmd.Flags().GetString("site")

	scraper, err := scrapers.GetScraper(site, cfg)
	if err != nil {
		return err
	}

	log.Infof("Searching %s for %q", scraper.Name(), keyword)
	listings, err := scraper.Search(cmd.Context(), keyword)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}
	log.Infof("Saved %d listings to %s", len(listings), dataPath(cfg))
	return nil
}
