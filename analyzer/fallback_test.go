package analyzer

import (
	"fmt"
	"sort"
	"strconv"
	"testing"

	"github.com/raushankrgupta/fish-scout/models"
	"github.com/stretchr/testify/assert"
)

func TestLocalScore(t *testing.T) {
	listings := []models.Listing{
		{Title: "全新 机械键盘", Price: "299"},
		{Title: "二手 显示器", Price: "500"},
		{Title: "全新 二手 混合描述", Price: "100.5"},
		{Title: "正品 耳机", Price: "面议"},
		{Title: "包邮 鼠标垫", Price: "15"},
		{Title: "普通 椅子", Price: "80"},
	}

	recs := LocalScore(listings)

	assert.Equal(t, []models.Recommendation{
		{Title: "包邮 鼠标垫", Price: "15.0", Reason: fallbackReason, Score: 8},
		{Title: "全新 二手 混合描述", Price: "100.5", Reason: fallbackReason, Score: 8.5},
		{Title: "全新 机械键盘", Price: "299.0", Reason: fallbackReason, Score: 8},
	}, recs)
}

func TestLocalScore_SortedAndCapped(t *testing.T) {
	var listings []models.Listing
	for i := 0; i < 25; i++ {
		listings = append(listings, models.Listing{
			Title: fmt.Sprintf("全新 商品 %d", i),
			Price: strconv.Itoa(1000 - i*7),
		})
	}

	recs := LocalScore(listings)

	assert.Len(t, recs, 10)
	prices := make([]float64, len(recs))
	for i, r := range recs {
		prices[i], _ = strconv.ParseFloat(r.Price, 64)
		assert.GreaterOrEqual(t, r.Score, 8.0)
	}
	assert.True(t, sort.Float64sAreSorted(prices))
	assert.Equal(t, "832.0", recs[0].Price)
}

func TestLocalScore_Empty(t *testing.T) {
	assert.Empty(t, LocalScore(nil))
	assert.Empty(t, LocalScore([]models.Listing{{Title: "普通 椅子", Price: "80"}}))
}
