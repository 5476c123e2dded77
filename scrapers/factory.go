package scrapers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/raushankrgupta/fish-scout/config"
	"github.com/raushankrgupta/fish-scout/scrapers/base"
	"github.com/raushankrgupta/fish-scout/scrapers/goofish"
)

// DefaultSite is used when no site is named
const DefaultSite = "goofish"

// GetScraper returns the scraper for site wired from cfg
func GetScraper(site string, cfg *config.Config) (Scraper, error) {
	if site == "" {
		site = DefaultSite
	}

	opts := base.DefaultOptions()
	opts.Headless = cfg.Headless
	browser, err := base.NewBaseScraper(cfg.BrowserDrivers, opts)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(site) {
	case "goofish", "xianyu":
		gc := goofish.DefaultConfig()
		gc.DataFile = ResolvePath(cfg.DataDir, cfg.DataFile)
		gc.SessionFile = ResolvePath(cfg.DataDir, cfg.SessionFile)
		gc.ScreenshotFile = ResolvePath(cfg.DataDir, gc.ScreenshotFile)
		return goofish.NewGoofishScraper(browser, gc), nil
	}
	return nil, fmt.Errorf("no scraper found for site: %s", site)
}

// ResolvePath joins name onto dir unless name is already absolute
func ResolvePath(dir, name string) string {
	if name == "" || filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
