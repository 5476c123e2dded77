package scrapers

import (
	"testing"

	"github.com/raushankrgupta/fish-scout/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetScraper(t *testing.T) {
	cfg := &config.Config{BrowserDrivers: []string{"playwright"}, DataDir: "/tmp/fish", DataFile: "temp_data.json"}

	s, err := GetScraper("", cfg)
	require.NoError(t, err)
	assert.Equal(t, "goofish", s.Name())

	_, err = GetScraper("amazon", cfg)
	assert.Error(t, err)

	cfg.BrowserDrivers = []string{"netscape"}
	_, err = GetScraper("goofish", cfg)
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/data/temp_data.json", ResolvePath("/data", "temp_data.json"))
	assert.Equal(t, "/abs/x.json", ResolvePath("/data", "/abs/x.json"))
	assert.Equal(t, "x.json", ResolvePath("", "x.json"))
}
