package goofish

import (
	"fmt"
	"strings"
	"testing"

	"github.com/raushankrgupta/fish-scout/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResultsHTML = `<html><head><script>var t = "¥999 登录";</script></head><body>
<div class="feeds">
  <div class="feeds-item">
    <a href="/item?id=1">
      <div class="main-title">全新未拆 AirPods Pro 2代</div>
      <div class="row"><span class="sign">¥</span><span class="number">899</span></div>
      <div>23人想要</div>
    </a>
  </div>
  <div class="feeds-item">
    <a href="/item?id=2">
      <div class="main-title">九五新 Switch OLED 日版 带卡带</div>
      <div class="row"><span class="sign">¥</span><span class="number">1350.5</span></div>
      <div>5人想要</div>
    </a>
  </div>
  <div class="feeds-item">
    <a href="/item?id=3">
      <div class="main-title">全新未拆 AirPods Pro 2代</div>
      <div class="row"><span class="sign">¥</span><span class="number">880</span></div>
    </a>
  </div>
</div>
</body></html>`

func TestExtract_PriceText(t *testing.T) {
	result := Extract(searchResultsHTML, "", 0)

	assert.Equal(t, StrategyPriceText, result.Strategy)
	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, []models.Listing{
		{Title: "全新未拆 AirPods Pro 2代", Price: "899", Desc: ListingDesc},
		{Title: "九五新 Switch OLED 日版 带卡带", Price: "1350.5", Desc: ListingDesc},
	}, result.Listings)
}

func TestExtract_PriceClass(t *testing.T) {
	html := `<html><body>
<div class="goods"><div class="wrap"><div class="Price">￥120.5</div></div><div>九成新 Kindle Paperwhite 5</div></div>
<div class="goods"><div class="wrap"><span class="price-now">￥30</span></div><div>短</div></div>
</body></html>`

	result := Extract(html, "", 0)

	assert.Equal(t, StrategyPriceClass, result.Strategy)
	assert.Equal(t, []models.Listing{
		{Title: "九成新 Kindle Paperwhite 5", Price: "120.5", Desc: ListingDesc},
	}, result.Listings)
}

func TestExtract_ItemClass(t *testing.T) {
	html := `<html><body>
<ul>
  <li class="card-wrapper"><div>二手 Switch OLED 日版</div><div>￥1500</div><div>已售 3 件</div></li>
  <li class="card-wrapper"><div>没有价格的卡片标题</div></li>
</ul>
</body></html>`

	result := Extract(html, "", 0)

	assert.Equal(t, StrategyItemClass, result.Strategy)
	assert.Equal(t, []models.Listing{
		{Title: "二手 Switch OLED 日版", Price: "1500", Desc: ListingDesc},
	}, result.Listings)
}

func TestExtract_BodyTextFallback(t *testing.T) {
	html := `<html><body>
<p>全新 机械键盘 青轴</p><p>￥199</p><p>12人想要</p>
<p>95新 显示器 27寸 4K</p><p>￥1200</p>
</body></html>`

	result := Extract(html, "", 0)

	assert.Equal(t, StrategyBodyText, result.Strategy)
	assert.Equal(t, []models.Listing{
		{Title: "全新 机械键盘 青轴", Price: "199", Desc: ListingDesc},
		{Title: "95新 显示器 27寸 4K", Price: "1200", Desc: ListingDesc},
	}, result.Listings)
}

func TestExtract_RenderedTextPreferred(t *testing.T) {
	text := "全新 戴森吹风机 HD15\n￥2100\n"

	result := Extract(`<html><body><canvas></canvas></body></html>`, text, 0)

	assert.Equal(t, StrategyBodyText, result.Strategy)
	require.Len(t, result.Listings, 1)
	assert.Equal(t, "2100", result.Listings[0].Price)
}

func TestExtract_NothingFound(t *testing.T) {
	result := Extract(`<html><body><div>搜索结果为空</div></body></html>`, "", 0)

	assert.Equal(t, StrategyNone, result.Strategy)
	assert.Empty(t, result.Listings)
	assert.Empty(t, ExtractListings("", 10))
}

func TestExtractListings_Limit(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, `<div class="c"><div class="x"><div>商品标题编号 %02d</div><div>¥%d</div></div></div>`, i, 100+i)
	}
	b.WriteString("</body></html>")

	listings := ExtractListings(b.String(), DefaultMaxCards)

	assert.Len(t, listings, 50)
	assert.Equal(t, "商品标题编号 00", listings[0].Title)
	assert.Equal(t, "149", listings[49].Price)
}

func TestExtractFromText(t *testing.T) {
	text := strings.Join([]string{
		"全新 iPhone 15 Pro 256G",
		"¥5999",
		"原价¥8999",
		"99人想要",
		"全新 iPhone 15 Pro 256G",
		"¥5888",
		"短",
		"¥1",
		"  二手 小米手环8 NFC版  ",
		"包邮 ¥ 88.5 包邮",
	}, "\n")

	listings := ExtractFromText(text, 0)

	assert.Equal(t, []models.Listing{
		{Title: "全新 iPhone 15 Pro 256G", Price: "5999", Desc: ListingDesc},
		{Title: "二手 小米手环8 NFC版", Price: "88.5", Desc: ListingDesc},
	}, listings)
}

func TestExtractFromText_UniqueTitles(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, "重复的商品标题 一样", fmt.Sprintf("¥%d", i+1))
	}

	listings := ExtractFromText(strings.Join(lines, "\n"), 0)

	require.Len(t, listings, 1)
	assert.Equal(t, "1", listings[0].Price)
}

func TestParseCard(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   models.Listing
		wantOK bool
	}{
		{
			name:   "Longest line wins, first on ties",
			text:   "AAAAAA\nBBBBBB\n¥10",
			want:   models.Listing{Title: "AAAAAA", Price: "10", Desc: ListingDesc},
			wantOK: true,
		},
		{
			name:   "Price is the first currency token",
			text:   "九成新 罗技鼠标 G502\n¥ 150 ￥200",
			want:   models.Listing{Title: "九成新 罗技鼠标 G502", Price: "150", Desc: ListingDesc},
			wantOK: true,
		},
		{name: "Too short", text: "¥1"},
		{name: "No price", text: "全新未拆 手机壳 透明"},
		{name: "Title with call to action", text: "立即购买 全新手机壳\n¥10"},
		{name: "Only noise lines", text: "1000人付款\n¥10\n浏览 200 次"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCard(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSplitBlocks(t *testing.T) {
	blocks := splitBlocks("a\n\nb\n¥1\nc\n￥2\ntrailing")
	assert.Equal(t, []string{"a\nb\n¥1", "c\n￥2"}, blocks)
}
