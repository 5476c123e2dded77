package base

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/raushankrgupta/fish-scout/models"
	log "github.com/sirupsen/logrus"
)

// sessionState is the on-disk format of a saved login
type sessionState struct {
	Cookies []models.Cookie `json:"cookies"`
}

// LoadSession restores cookies saved by SaveSession. A missing file is not
// an error; restored reports whether anything was applied.
func LoadSession(ctx context.Context, page Page, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read session %s: %w", path, err)
	}

	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return false, fmt.Errorf("failed to parse session %s: %w", path, err)
	}
	if len(state.Cookies) == 0 {
		return false, nil
	}
	if err := page.SetCookies(ctx, state.Cookies); err != nil {
		return false, fmt.Errorf("failed to restore cookies: %w", err)
	}
	log.Infof("[SESSION] Restored %d cookies from %s", len(state.Cookies), path)
	return true, nil
}

// SaveSession writes the page's cookies to path
func SaveSession(ctx context.Context, page Page, path string) error {
	if path == "" {
		return nil
	}
	cookies, err := page.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("failed to read cookies: %w", err)
	}
	if cookies == nil {
		cookies = []models.Cookie{}
	}

	data, err := json.MarshalIndent(sessionState{Cookies: cookies}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session %s: %w", path, err)
	}
	log.Infof("[SESSION] Saved %d cookies to %s", len(cookies), path)
	return nil
}
