package goofish

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/raushankrgupta/fish-scout/models"
	"github.com/raushankrgupta/fish-scout/scrapers/base"
	"github.com/raushankrgupta/fish-scout/utils"
	log "github.com/sirupsen/logrus"
)

// SearchURL is the marketplace search page
const SearchURL = "https://www.goofish.com/search"

// Config tunes the scrape flow. The zero value is not usable, start from
// DefaultConfig.
type Config struct {
	SearchURL      string
	DataFile       string
	SessionFile    string
	ScreenshotFile string
	MaxCards       int

	SettleDelay     time.Duration
	LoginTimeout    time.Duration
	LoginPoll       time.Duration
	LoginReminder   time.Duration
	PriceWait       time.Duration
	PriceGrace      time.Duration
	Scrolls         int
	ScrollPause     time.Duration
	PostLoginWindow time.Duration
}

// DefaultConfig mirrors the timings a person needs to sign in by hand
func DefaultConfig() Config {
	return Config{
		SearchURL:       SearchURL,
		DataFile:        "temp_data.json",
		SessionFile:     "browser_state.json",
		ScreenshotFile:  "debug_screenshot.png",
		MaxCards:        DefaultMaxCards,
		SettleDelay:     10 * time.Second,
		LoginTimeout:    300 * time.Second,
		LoginPoll:       time.Second,
		LoginReminder:   30 * time.Second,
		PriceWait:       15 * time.Second,
		PriceGrace:      30 * time.Second,
		Scrolls:         5,
		ScrollPause:     1500 * time.Millisecond,
		PostLoginWindow: 60 * time.Second,
	}
}

// PageOpener hands out a browser page; *base.BaseScraper is the usual one
type PageOpener interface {
	OpenPage(ctx context.Context) (base.Page, string, error)
}

// Scraper runs the goofish search flow
type Scraper struct {
	opener PageOpener
	cfg    Config
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewGoofishScraper creates a scraper that opens pages through opener
func NewGoofishScraper(opener PageOpener, cfg Config) *Scraper {
	if cfg.LoginPoll <= 0 {
		cfg.LoginPoll = time.Second
	}
	if cfg.MaxCards <= 0 {
		cfg.MaxCards = DefaultMaxCards
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = SearchURL
	}
	return &Scraper{opener: opener, cfg: cfg, sleep: sleepContext}
}

func (s *Scraper) Name() string { return "goofish" }

// Search scrapes the listings for keyword. The data file is written on
// every path, empty when nothing was found.
func (s *Scraper) Search(ctx context.Context, keyword string) ([]models.Listing, error) {
	keyword = normalizeKeyword(keyword)
	if keyword == "" {
		s.saveData(nil)
		return nil, fmt.Errorf("keyword is empty")
	}
	log.Infof("[START] Scraping goofish for %q", keyword)

	page, driver, err := s.opener.OpenPage(ctx)
	if err != nil {
		s.saveData(nil)
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}
	log.Infof("[START] Browser ready (%s)", driver)

	listings, loginPending, scrapeErr := s.scrape(ctx, page, keyword)
	if scrapeErr != nil {
		log.Errorf("[ERROR] %v", scrapeErr)
	}

	s.saveData(listings)
	if len(listings) == 0 {
		log.Warn("[RESULT] No listings extracted. Likely causes: login needed, page layout changed, network trouble or no results for the keyword")
	}

	if loginPending {
		s.holdForLogin(ctx, page)
	} else if err := base.SaveSession(ctx, page, s.cfg.SessionFile); err != nil {
		log.Warnf("[SESSION] %v", err)
	}

	log.Info("[CLOSE] Closing browser")
	if err := page.Close(); err != nil {
		log.Warnf("[CLOSE] %v", err)
	}
	return listings, scrapeErr
}

// scrape drives the page from navigation to extraction. loginPending is
// true when a login was requested and never completed.
func (s *Scraper) scrape(ctx context.Context, page base.Page, keyword string) ([]models.Listing, bool, error) {
	if _, err := base.LoadSession(ctx, page, s.cfg.SessionFile); err != nil {
		log.Warnf("[SESSION] %v", err)
	}

	target := utils.BuildSearchURL(s.cfg.SearchURL, keyword)
	log.Infof("[VISIT] %s", target)
	if err := page.Navigate(ctx, target); err != nil {
		return nil, false, err
	}

	log.Infof("[WAIT] Letting the page settle (%s)", s.cfg.SettleDelay)
	if err := s.sleep(ctx, s.cfg.SettleDelay); err != nil {
		return nil, false, err
	}

	loginPending := false
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read page: %w", err)
	}
	if state := DetectLogin(html); state.Required {
		log.Infof("[LOGIN] Login prompt detected (%s)", state.Reason)
		printLoginInstructions()
		ok, err := s.WaitForLogin(ctx, page)
		if err != nil {
			return nil, true, err
		}
		loginPending = !ok
		if page.Closed() {
			return nil, false, fmt.Errorf("browser window closed before scraping")
		}
	} else {
		log.Info("[LOGIN] No login prompt, continuing")
	}

	if !s.waitForPrices(ctx, page) {
		log.Warn("[WAIT] No prices on the page yet, login may be needed or the layout changed")
		log.Infof("[WAIT] Waiting %s for manual intervention", s.cfg.PriceGrace)
		if err := s.sleep(ctx, s.cfg.PriceGrace); err != nil {
			return nil, loginPending, err
		}
	}

	log.Info("[SCROLL] Scrolling to load more listings")
	for i := 0; i < s.cfg.Scrolls; i++ {
		if err := page.ScrollBy(ctx, 0.5); err != nil {
			log.Debugf("[SCROLL] %v", err)
		}
		if err := s.sleep(ctx, s.cfg.ScrollPause); err != nil {
			return nil, loginPending, err
		}
	}

	html, err = page.HTML(ctx)
	if err != nil {
		return nil, loginPending, fmt.Errorf("failed to read page: %w", err)
	}
	text, err := page.Text(ctx)
	if err != nil {
		log.Debugf("[EXTRACT] body text unavailable: %v", err)
	}
	result := Extract(html, text, s.cfg.MaxCards)
	log.Infof("[EXTRACT] %d listings via %s", len(result.Listings), result.Strategy)

	if len(result.Listings) == 0 {
		s.saveScreenshot(ctx, page)
	}
	return result.Listings, loginPending, nil
}

// waitForPrices polls once a second until a price shows up on the page
func (s *Scraper) waitForPrices(ctx context.Context, page base.Page) bool {
	ticks := int(s.cfg.PriceWait / s.cfg.LoginPoll)
	for i := 0; i <= ticks; i++ {
		if text, err := page.Text(ctx); err == nil && priceMarker.MatchString(text) {
			log.Info("[WAIT] Listings loaded")
			return true
		}
		if i == ticks {
			break
		}
		if err := s.sleep(ctx, s.cfg.LoginPoll); err != nil {
			return false
		}
	}
	return false
}

// holdForLogin keeps the window open so the user can still sign in
func (s *Scraper) holdForLogin(ctx context.Context, page base.Page) {
	log.Info("[PAUSE] Keeping the browser open for login; close it when done")
	ticks := int(s.cfg.PostLoginWindow / s.cfg.LoginPoll)
	for i := 0; i < ticks; i++ {
		if page.Closed() {
			log.Info("[PAUSE] Browser window closed")
			return
		}
		if err := s.sleep(ctx, s.cfg.LoginPoll); err != nil {
			return
		}
	}
}

func (s *Scraper) saveData(listings []models.Listing) {
	if s.cfg.DataFile == "" {
		return
	}
	if err := utils.SaveListings(s.cfg.DataFile, listings); err != nil {
		log.Errorf("[SAVE] %v", err)
		return
	}
	log.Infof("[SAVE] %d listings written to %s", len(listings), s.cfg.DataFile)
}

func (s *Scraper) saveScreenshot(ctx context.Context, page base.Page) {
	if s.cfg.ScreenshotFile == "" {
		return
	}
	png, err := page.Screenshot(ctx)
	if err != nil {
		log.Debugf("[DEBUG] screenshot unavailable: %v", err)
		return
	}
	if err := os.WriteFile(s.cfg.ScreenshotFile, png, 0644); err != nil {
		log.Warnf("[DEBUG] could not save screenshot: %v", err)
		return
	}
	log.Infof("[DEBUG] Saved page screenshot to %s", s.cfg.ScreenshotFile)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// normalizeKeyword trims the keyword the way the search box does
func normalizeKeyword(keyword string) string {
	return strings.Join(strings.Fields(keyword), " ")
}
