package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raushankrgupta/fish-scout/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveListings_KeepsUnicode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp_data.json")
	listings := []models.Listing{
		{Title: "全新未拆 iPhone 15 Pro", Price: "5999", Desc: "闲鱼商品"},
		{Title: "二手 Switch <OLED>", Price: "1500.5", Desc: "闲鱼商品"},
	}

	require.NoError(t, SaveListings(path, listings))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "全新未拆")
	assert.Contains(t, string(raw), "<OLED>")
	assert.NotContains(t, string(raw), `\u`)

	loaded, err := LoadListings(path)
	require.NoError(t, err)
	assert.Equal(t, listings, loaded)
}

func TestSaveListings_EmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "temp_data.json")

	require.NoError(t, SaveListings(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(raw)))
}

func TestSaveListings_ReadableByOthers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp_data.json")
	require.NoError(t, SaveListings(path, []models.Listing{{Title: "a"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestLoadListings_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadListings(filepath.Join(dir, "missing.json"))
	assert.True(t, os.IsNotExist(err))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadListings(bad)
	assert.Error(t, err)
}
