package goofish

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/fish-scout/models"
	log "github.com/sirupsen/logrus"
)

// ListingDesc is the description attached to every scraped listing
const ListingDesc = "闲鱼商品"

// DefaultMaxCards caps how many candidate cards are examined per page
const DefaultMaxCards = 50

var (
	priceMarker = regexp.MustCompile(`¥\s*\d+`)
	priceValue  = regexp.MustCompile(`[¥￥]\s*([\d.]+)`)
	priceLine   = regexp.MustCompile(`[¥￥]\s*\d`)

	lineNoise  = []string{"¥", "￥", "人付款", "已售", "浏览", "想要"}
	titleNoise = append(append([]string{}, lineNoise...), "立即")
)

// Strategy names the extraction step that produced a result
type Strategy string

const (
	StrategyPriceText  Strategy = "price-text"
	StrategyPriceClass Strategy = "price-class"
	StrategyItemClass  Strategy = "item-class"
	StrategyBodyText   Strategy = "body-text"
	StrategyNone       Strategy = "none"
)

// Extraction is the outcome of running the fallback chain over one page
type Extraction struct {
	Strategy   Strategy
	Candidates int
	Listings   []models.Listing
}

// ExtractListings runs the DOM fallback chain over html. When no step
// finds candidate elements, the body text is split into blocks instead.
func ExtractListings(html string, limit int) []models.Listing {
	return Extract(html, "", limit).Listings
}

// Extract is ExtractListings with the step that matched reported. text is
// the rendered body text; when empty it is derived from html.
func Extract(html, text string, limit int) Extraction {
	if limit <= 0 {
		limit = DefaultMaxCards
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Warnf("[EXTRACT] could not parse page: %v", err)
		return Extraction{Strategy: StrategyNone}
	}
	doc.Find("script, style, noscript").Remove()

	steps := []struct {
		strategy Strategy
		find     func(*goquery.Document) []string
	}{
		{StrategyPriceText, priceTextCards},
		{StrategyPriceClass, priceClassCards},
		{StrategyItemClass, itemClassCards},
	}
	for _, step := range steps {
		cards := step.find(doc)
		if len(cards) == 0 {
			log.Debugf("[EXTRACT] %s found nothing", step.strategy)
			continue
		}
		if len(cards) > limit {
			cards = cards[:limit]
		}
		log.Infof("[EXTRACT] %s found %d candidates", step.strategy, len(cards))
		return Extraction{Strategy: step.strategy, Candidates: len(cards), Listings: parseCards(cards)}
	}

	if text == "" {
		text = innerText(doc.Find("body"))
	}
	blocks := splitBlocks(text)
	if len(blocks) == 0 {
		return Extraction{Strategy: StrategyNone}
	}
	if len(blocks) > limit {
		blocks = blocks[:limit]
	}
	log.Infof("[EXTRACT] %s found %d blocks", StrategyBodyText, len(blocks))
	return Extraction{Strategy: StrategyBodyText, Candidates: len(blocks), Listings: parseCards(blocks)}
}

// ExtractFromText splits a raw page text into price-terminated blocks and
// parses each as a card.
func ExtractFromText(text string, limit int) []models.Listing {
	if limit <= 0 {
		limit = DefaultMaxCards
	}
	blocks := splitBlocks(text)
	if len(blocks) > limit {
		blocks = blocks[:limit]
	}
	return parseCards(blocks)
}

// priceTextCards returns the grandparents of the deepest elements whose
// text carries a price.
func priceTextCards(doc *goquery.Document) []string {
	var matches []*goquery.Selection
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if !priceMarker.MatchString(innerText(s)) {
			return
		}
		deepest := true
		s.Children().EachWithBreak(func(_ int, c *goquery.Selection) bool {
			if priceMarker.MatchString(innerText(c)) {
				deepest = false
			}
			return deepest
		})
		if deepest {
			matches = append(matches, s)
		}
	})
	return cardTexts(matches, 2)
}

func priceClassCards(doc *goquery.Document) []string {
	var matches []*goquery.Selection
	doc.Find("[class*='price'], [class*='Price']").Each(func(_ int, s *goquery.Selection) {
		matches = append(matches, s)
	})
	return cardTexts(matches, 2)
}

func itemClassCards(doc *goquery.Document) []string {
	var matches []*goquery.Selection
	doc.Find("[class*='item'], [class*='card'], [class*='goods']").Each(func(_ int, s *goquery.Selection) {
		matches = append(matches, s)
	})
	return cardTexts(matches, 0)
}

// cardTexts climbs up levels from each match and returns the text of the
// resulting cards, each distinct card once.
func cardTexts(matches []*goquery.Selection, up int) []string {
	seen := map[interface{}]bool{}
	var out []string
	for _, s := range matches {
		card := s
		for i := 0; i < up; i++ {
			if parent := card.Parent(); parent.Length() > 0 {
				card = parent
			}
		}
		node := card.Get(0)
		if seen[node] {
			continue
		}
		seen[node] = true
		out = append(out, innerText(card))
	}
	return out
}

// splitBlocks groups lines into blocks that each end with a price line
func splitBlocks(text string) []string {
	var blocks []string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		current = append(current, line)
		if priceLine.MatchString(line) {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}
	return blocks
}

func parseCards(cards []string) []models.Listing {
	seen := map[string]bool{}
	listings := []models.Listing{}
	for _, text := range cards {
		listing, ok := parseCard(text)
		if !ok || seen[listing.Title] {
			continue
		}
		seen[listing.Title] = true
		listings = append(listings, listing)
		if len(listings) <= 5 {
			log.Debugf("[EXTRACT] listing %d: %s - ¥%s", len(listings), listing.Title, listing.Price)
		}
	}
	return listings
}

// parseCard turns the text of one card into a listing. ok is false when
// the card has no price or no usable title.
func parseCard(text string) (models.Listing, bool) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < 5 {
		return models.Listing{}, false
	}

	m := priceValue.FindStringSubmatch(text)
	if m == nil {
		return models.Listing{}, false
	}

	title := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= 4 || containsAny(line, lineNoise) {
			continue
		}
		if utf8.RuneCountInString(line) > utf8.RuneCountInString(title) {
			title = line
		}
	}
	if utf8.RuneCountInString(title) < 5 || containsAny(title, titleNoise) {
		return models.Listing{}, false
	}

	return models.Listing{Title: title, Price: m[1], Desc: ListingDesc}, true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
