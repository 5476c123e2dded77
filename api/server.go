package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/raushankrgupta/fish-scout/analyzer"
	"github.com/raushankrgupta/fish-scout/config"
	"github.com/raushankrgupta/fish-scout/crawler"
	"github.com/raushankrgupta/fish-scout/models"
	"github.com/raushankrgupta/fish-scout/utils"
)

var validate = validator.New()

// ScrapeStarter launches a background scrape; *crawler.Runner implements it
type ScrapeStarter interface {
	Start(keyword string) (string, error)
}

// Analyzer scores listings; *analyzer.Analyzer implements it
type Analyzer interface {
	Ready() bool
	Init(ctx context.Context, apiKey string) error
	Analyze(ctx context.Context, listings []models.Listing) (*analyzer.Result, error)
}

// History lists and annotates past runs; *utils.HistoryStore implements it
type History interface {
	Recent(ctx context.Context, limit int64) ([]models.ScrapeRun, error)
	AttachRecommendations(ctx context.Context, runID string, recs []models.Recommendation) error
}

// ArchiveLinker signs download links for archived artifacts; *utils.Archiver
// implements it
type ArchiveLinker interface {
	PresignedURL(ctx context.Context, objectKey string) (string, error)
}

// Server holds the dependencies of the HTTP handlers
type Server struct {
	cfg      *config.Config
	tracker  *crawler.Tracker
	runner   ScrapeStarter
	analyzer Analyzer
	history  History
	archive  ArchiveLinker
	mailer   *utils.Mailer
}

// NewServer wires the handlers. history, archive and mailer may be nil.
func NewServer(cfg *config.Config, tracker *crawler.Tracker, runner ScrapeStarter, ai Analyzer, history History, archive ArchiveLinker, mailer *utils.Mailer) *Server {
	return &Server{
		cfg:      cfg,
		tracker:  tracker,
		runner:   runner,
		analyzer: ai,
		history:  history,
		archive:  archive,
		mailer:   mailer,
	}
}

// Routes builds the router for the dashboard API and frontend
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.Use(utils.LatencyMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/init", s.InitHandler).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/search", s.requireToken(s.SearchHandler)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/status", s.StatusHandler).Methods(http.MethodGet, http.MethodOptions)
	api.Handle("/analyze", s.requireToken(s.AnalyzeHandler)).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/history", s.requireToken(s.HistoryHandler)).Methods(http.MethodGet, http.MethodOptions)

	// Frontend; the file server answers "/" with index.html
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.cfg.FrontendDir)))
	return r
}

// corsMiddleware allows the dashboard to be opened from any origin
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
