package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/raushankrgupta/fish-scout/analyzer"
	"github.com/raushankrgupta/fish-scout/crawler"
	"github.com/raushankrgupta/fish-scout/utils"
)

const defaultHistoryLimit = 20

// InitRequest is the body of POST /api/init
type InitRequest struct {
	APIKey   string `json:"api_key" validate:"required"`
	Password string `json:"password"`
}

// SearchRequest is the body of POST /api/search
type SearchRequest struct {
	Keyword string `json:"keyword" validate:"required"`
	APIKey  string `json:"api_key" validate:"required"`
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	APIKey string `json:"api_key"`
}

// decodeBody reads a JSON body into dst.
// An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// InitHandler builds the AI client for the given key
func (s *Server) InitHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(&logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Init API]")

	var req InitRequest
	if err := decodeBody(r, &req); err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}
	req.APIKey = strings.TrimSpace(req.APIKey)
	if err := validate.Struct(req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "API key must not be empty", http.StatusBadRequest)
		return
	}

	if s.cfg.AccessPasswordHash != "" && !utils.CheckPasswordHash(req.Password, s.cfg.AccessPasswordHash) {
		utils.RespondError(w, &logMessageBuilder, "Invalid access password", http.StatusUnauthorized)
		return
	}

	if err := s.analyzer.Init(r.Context(), req.APIKey); err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("AI client initialisation failed: %v", err), http.StatusInternalServerError)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, "AI client ready")

	resp := map[string]interface{}{
		"success": true,
		"message": "AI client initialised",
	}
	if s.cfg.JWTSecret != "" {
		token, err := utils.GenerateToken(s.cfg.JWTSecret, "dashboard")
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Failed to issue token: %v", err), http.StatusInternalServerError)
			return
		}
		resp["token"] = token
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// SearchHandler starts a background scrape for a keyword
func (s *Server) SearchHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(&logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Search API]")

	var req SearchRequest
	if err := decodeBody(r, &req); err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	req.APIKey = strings.TrimSpace(req.APIKey)
	if req.Keyword == "" {
		utils.RespondError(w, &logMessageBuilder, "Search keyword must not be empty", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Please set the AI API key first", http.StatusBadRequest)
		return
	}

	if !s.analyzer.Ready() {
		if err := s.analyzer.Init(r.Context(), req.APIKey); err != nil {
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("AI client initialisation failed: %v", err), http.StatusInternalServerError)
			return
		}
	}

	runID, err := s.runner.Start(req.Keyword)
	if errors.Is(err, crawler.ErrAlreadyRunning) {
		utils.RespondError(w, &logMessageBuilder, "A search is already running", http.StatusConflict)
		return
	}
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusInternalServerError)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Started run %s for %q", runID, req.Keyword))

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Crawler started, log in to Xianyu in the browser window",
		"status":  "running",
		"run_id":  runID,
	})
}

// StatusHandler reports the current scrape status
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, s.tracker.Snapshot())
}

// AnalyzeHandler scores the last scrape's listings
func (s *Server) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(&logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Analyze API]")

	var req AnalyzeRequest
	if err := decodeBody(r, &req); err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
		return
	}

	if apiKey := strings.TrimSpace(req.APIKey); apiKey != "" && !s.analyzer.Ready() {
		if err := s.analyzer.Init(r.Context(), apiKey); err != nil {
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("AI client initialisation failed: %v", err), http.StatusInternalServerError)
			return
		}
	}
	if !s.analyzer.Ready() {
		utils.RespondError(w, &logMessageBuilder, "Please set the AI API key first", http.StatusBadRequest)
		return
	}

	listings := s.tracker.Listings()
	if len(listings) == 0 {
		utils.RespondError(w, &logMessageBuilder, "No data to analyze, run a search first", http.StatusBadRequest)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Analyzing %d listings", len(listings)))

	result, err := s.analyzer.Analyze(r.Context(), listings)
	var fallback *analyzer.FallbackError
	switch {
	case errors.As(err, &fallback):
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Local scoring applied: %v", fallback.Cause))
		utils.RespondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success":            false,
			"message":            regionAdvice(fallback.Cause),
			"fallback_available": true,
			"data":               fallback.Recommendations,
		})
		return
	case err != nil:
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Analysis failed: %v", err), http.StatusInternalServerError)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("%d recommendations from %s (cached: %t)", len(result.Recommendations), result.Provider, result.Cached))

	s.publish(r, &logMessageBuilder, result)

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"data":     result.Recommendations,
		"provider": result.Provider,
		"cached":   result.Cached,
	})
}

// publish attaches the picks to the run history and mails the deal alert.
// Failures are logged only.
func (s *Server) publish(r *http.Request, logMessageBuilder *strings.Builder, result *analyzer.Result) {
	snap := s.tracker.Snapshot()
	if s.history != nil && snap.RunID != "" {
		if err := s.history.AttachRecommendations(r.Context(), snap.RunID, result.Recommendations); err != nil {
			utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("History update failed: %v", err))
		}
	}
	if s.mailer != nil && s.cfg.NotifyEmail != "" {
		if err := s.mailer.SendDealAlert(s.cfg.NotifyEmail, snap.Keyword, result.Recommendations); err != nil {
			utils.AddToLogMessage(logMessageBuilder, fmt.Sprintf("Deal alert failed: %v", err))
		}
	}
}

// HistoryHandler lists recent scrape runs
func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(&logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[History API]")

	if s.history == nil {
		utils.RespondError(w, &logMessageBuilder, "Run history is not configured", http.StatusServiceUnavailable)
		return
	}

	limit := int64(defaultHistoryLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			utils.RespondError(w, &logMessageBuilder, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusInternalServerError)
		return
	}
	if s.archive != nil {
		for i := range runs {
			if runs[i].ArchiveKey == "" {
				continue
			}
			link, err := s.archive.PresignedURL(r.Context(), runs[i].ArchiveKey)
			if err != nil {
				utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Presign failed for %s: %v", runs[i].RunID, err))
				continue
			}
			runs[i].ArchiveURL = link
		}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": runs})
}

func regionAdvice(cause error) string {
	return "The AI provider is not available from this region. " +
		"Use an API key registered in a supported region or check the proxy. " +
		"Local scoring has been applied instead.\n\nDetails: " + cause.Error()
}
