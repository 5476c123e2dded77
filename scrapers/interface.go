package scrapers

import (
	"context"

	"github.com/raushankrgupta/fish-scout/models"
)

// Scraper defines the interface for all marketplace scrapers
type Scraper interface {
	// Name is the site key the scraper is registered under
	Name() string
	// Search scrapes the listings matching keyword
	Search(ctx context.Context, keyword string) ([]models.Listing, error)
}
