package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/raushankrgupta/fish-scout/models"
	"github.com/raushankrgupta/fish-scout/scrapers/base"
	"github.com/raushankrgupta/fish-scout/scrapers/goofish"
	log "github.com/sirupsen/logrus"
)

// test_scraper runs the listing extraction against saved HTML files, or
// against URLs fetched without a browser, and prints what it found.
func main() {
	limit := flag.Int("limit", goofish.DefaultMaxCards, "maximum listings per page")
	flag.Parse()

	sources := flag.Args()
	if len(sources) == 0 {
		fmt.Println("Usage: test_scraper [-limit N] <page.html|url>...")
		os.Exit(2)
	}

	for _, src := range sources {
		fmt.Printf("Testing source: %s\n", src)
		html, err := load(src)
		if err != nil {
			log.Errorf("Failed to load %s: %v", src, err)
			continue
		}

		result := goofish.Extract(html, "", *limit)
		fmt.Printf("Strategy: %s (%d candidates)\n", result.Strategy, result.Candidates)
		if login := goofish.DetectLogin(html); login.Required {
			fmt.Printf("Login prompt detected: %s\n", login.Reason)
		}

		b, _ := json.MarshalIndent(listingsOrEmpty(result.Listings), "", "  ")
		fmt.Printf("Listings: %s\n", string(b))
		fmt.Println("--------------------------------------------------")
	}
}

func load(src string) (string, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		data, err := os.ReadFile(src)
		return string(data), err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts := base.DefaultOptions()
	page, err := (&base.StaticDriver{}).Open(ctx, opts)
	if err != nil {
		return "", err
	}
	defer page.Close()

	if err := page.Navigate(ctx, src); err != nil {
		return "", err
	}
	return page.HTML(ctx)
}

func listingsOrEmpty(listings []models.Listing) []models.Listing {
	if listings == nil {
		return []models.Listing{}
	}
	return listings
}
