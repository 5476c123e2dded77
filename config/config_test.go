package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig(viper.New())

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "temp_data.json", cfg.DataFile)
	assert.Equal(t, "browser_state.json", cfg.SessionFile)
	assert.Equal(t, "gemini", cfg.AIProvider)
	assert.Equal(t, []string{"chromedp"}, cfg.BrowserDrivers)
	assert.Equal(t, 300*time.Second, cfg.CrawlTimeout)
	assert.False(t, cfg.Headless)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("BROWSER_DRIVER", "playwright, chromedp ,")
	t.Setenv("HEADLESS", "true")
	t.Setenv("CRAWL_TIMEOUT", "45s")
	t.Setenv("PROXY_URL", "")

	cfg := LoadConfig(viper.New())

	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, []string{"playwright", "chromedp"}, cfg.BrowserDrivers)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 45*time.Second, cfg.CrawlTimeout)
	assert.Empty(t, cfg.ProxyURL)
}

func TestLoadConfig_PrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("FISHSCOUT_PORT", "9099")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg := LoadConfig(viper.New())

	assert.Equal(t, "9099", cfg.Port)
	assert.Equal(t, "key", cfg.GeminiAPIKey)
}

func TestLoadConfig_Flags(t *testing.T) {
	v := viper.New()
	v.Set("data_dir", "/tmp/fish")

	cfg := LoadConfig(v)
	assert.Equal(t, "/tmp/fish", cfg.DataDir)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a,,b "))
}
