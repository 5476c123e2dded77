package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raushankrgupta/fish-scout/models"
)

// SaveListings writes listings to path as a JSON array. Non-ASCII text is
// kept as-is. The file is replaced atomically so a concurrent reader never
// sees a partial array.
func SaveListings(path string, listings []models.Listing) error {
	if listings == nil {
		listings = []models.Listing{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(listings); err != nil {
		return fmt.Errorf("failed to encode listings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".listings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(bytes.TrimRight(buf.Bytes(), "\n")); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	// CreateTemp makes the file owner-only
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move data file into place: %w", err)
	}
	return nil
}

// LoadListings reads a JSON array of listings from path.
func LoadListings(path string) ([]models.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var listings []models.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return listings, nil
}
