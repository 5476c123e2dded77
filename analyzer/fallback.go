package analyzer

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/raushankrgupta/fish-scout/models"
)

const (
	fallbackBaseScore = 7.0
	fallbackMinScore  = 8.0
	fallbackLimit     = 10
	fallbackReason    = "价格合理，商品描述清晰"
)

var (
	newConditionWords  = []string{"全新", "未拆", "正品", "包邮"}
	usedConditionWords = []string{"二手", "使用", "旧"}
)

// LocalScore ranks listings by title keywords when no AI provider can be
// reached. Results are sorted by ascending price, at most ten.
func LocalScore(listings []models.Listing) []models.Recommendation {
	type scored struct {
		rec   models.Recommendation
		price float64
	}

	var kept []scored
	for _, l := range listings {
		price, err := strconv.ParseFloat(strings.TrimSpace(l.Price), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}

		score := fallbackBaseScore
		title := strings.ToLower(l.Title)
		if containsAny(title, newConditionWords) {
			score += 1.0
		}
		if containsAny(title, usedConditionWords) {
			score += 0.5
		}
		if score < fallbackMinScore {
			continue
		}

		kept = append(kept, scored{
			rec: models.Recommendation{
				Title:  l.Title,
				Price:  formatPrice(price),
				Reason: fallbackReason,
				Score:  math.Round(score*10) / 10,
			},
			price: price,
		})
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].price < kept[j].price })
	if len(kept) > fallbackLimit {
		kept = kept[:fallbackLimit]
	}

	recs := make([]models.Recommendation, 0, len(kept))
	for _, k := range kept {
		recs = append(recs, k.rec)
	}
	return recs
}

// formatPrice always keeps one decimal place for whole numbers: 899 -> 899.0
func formatPrice(p float64) string {
	if p == math.Trunc(p) {
		return strconv.FormatFloat(p, 'f', 1, 64)
	}
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
