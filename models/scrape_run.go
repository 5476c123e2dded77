package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScrapeRun records one scraper invocation and, once analyzed, its picks
type ScrapeRun struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RunID           string             `bson:"run_id" json:"run_id"`
	Keyword         string             `bson:"keyword" json:"keyword"`
	Status          string             `bson:"status" json:"status"` // running, completed, failed
	ListingCount    int                `bson:"listing_count" json:"listing_count"`
	Listings        []Listing          `bson:"listings,omitempty" json:"listings,omitempty"`
	Recommendations []Recommendation   `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
	ArchiveKey      string             `bson:"archive_key,omitempty" json:"archive_key,omitempty"`
	ArchiveURL      string             `bson:"-" json:"archive_url,omitempty"`
	Error           string             `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt       time.Time          `bson:"started_at" json:"started_at"`
	FinishedAt      *time.Time         `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
}

// Scrape run states
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
