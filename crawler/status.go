package crawler

import (
	"sync"

	"github.com/raushankrgupta/fish-scout/models"
)

// Snapshot is a consistent copy of the scrape status. Error is null while
// nothing has gone wrong.
type Snapshot struct {
	Running   bool    `json:"running"`
	Keyword   string  `json:"keyword"`
	DataCount int     `json:"data_count"`
	Error     *string `json:"error"`
	RunID     string  `json:"run_id,omitempty"`
}

// Tracker holds the state of the current scrape. All access goes through
// its methods so readers never see a half-updated state.
type Tracker struct {
	mu       sync.RWMutex
	running  bool
	keyword  string
	runID    string
	listings []models.Listing
	err      string
}

// NewTracker returns an idle tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Start marks a scrape as running and clears the previous result. It
// returns false when a scrape is already running.
func (t *Tracker) Start(keyword, runID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return false
	}
	t.running = true
	t.keyword = keyword
	t.runID = runID
	t.listings = nil
	t.err = ""
	return true
}

// Finish records the outcome of the run and marks it stopped
func (t *Tracker) Finish(listings []models.Listing, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	t.listings = append([]models.Listing(nil), listings...)
	t.err = errMsg
}

// Snapshot returns the current status
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := Snapshot{
		Running:   t.running,
		Keyword:   t.keyword,
		DataCount: len(t.listings),
		RunID:     t.runID,
	}
	if t.err != "" {
		msg := t.err
		snap.Error = &msg
	}
	return snap
}

// Listings returns a copy of the last scrape's listings
func (t *Tracker) Listings() []models.Listing {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.Listing(nil), t.listings...)
}

// Load replaces the listings without touching the run state, for data
// left over from an earlier process.
func (t *Tracker) Load(listings []models.Listing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.listings = append([]models.Listing(nil), listings...)
}
