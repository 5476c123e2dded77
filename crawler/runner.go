package crawler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/fish-scout/config"
	"github.com/raushankrgupta/fish-scout/models"
	"github.com/raushankrgupta/fish-scout/utils"
	log "github.com/sirupsen/logrus"
)

// ErrAlreadyRunning is returned when a scrape is requested while one runs
var ErrAlreadyRunning = errors.New("a scrape is already running")

// History records scrape runs; *utils.HistoryStore implements it
type History interface {
	RecordStart(ctx context.Context, run *models.ScrapeRun) error
	RecordFinish(ctx context.Context, runID string, listings []models.Listing, archiveKey string, runErr string) error
}

// Archiver stores run artifacts; *utils.Archiver implements it
type Archiver interface {
	Upload(ctx context.Context, body io.Reader, objectKey string, contentType string) (string, error)
}

// Options configures the crawler child process
type Options struct {
	// Executable is the binary to run, os.Executable() when empty
	Executable string
	// Args builds the child's arguments for keyword
	Args func(keyword string) []string
	// Env is the base environment, os.Environ() when nil. Proxy variables
	// are always stripped.
	Env []string
	// ExtraEnv is appended after Env, for settings the child must share
	ExtraEnv []string

	DataDir        string
	DataFile       string
	ScreenshotFile string
	Timeout        time.Duration
}

// Runner launches the scraper as a separate process and tracks its status
type Runner struct {
	tracker  *Tracker
	opts     Options
	history  History
	archiver Archiver
	wg       sync.WaitGroup
}

// NewRunner creates a runner reporting into tracker. history and archiver
// are optional.
func NewRunner(tracker *Tracker, opts Options, history History, archiver Archiver) *Runner {
	if opts.Args == nil {
		opts.Args = func(keyword string) []string { return []string{"crawl", keyword} }
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 300 * time.Second
	}
	if opts.DataFile == "" {
		opts.DataFile = "temp_data.json"
	}
	if abs, err := filepath.Abs(opts.DataDir); err == nil {
		opts.DataDir = abs
	}
	return &Runner{tracker: tracker, opts: opts, history: history, archiver: archiver}
}

// DataPath is where the child writes its listings
func (r *Runner) DataPath() string {
	return filepath.Join(r.opts.DataDir, r.opts.DataFile)
}

// Start launches a scrape in the background and returns its run ID
func (r *Runner) Start(keyword string) (string, error) {
	runID := uuid.New().String()
	if !r.tracker.Start(keyword, runID) {
		return "", ErrAlreadyRunning
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(context.Background(), keyword, runID)
	}()
	return runID, nil
}

// Wait blocks until background scrapes have finished
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, keyword, runID string) {
	logger := log.WithFields(log.Fields{"run_id": runID, "keyword": keyword})
	startedAt := time.Now()

	if r.history != nil {
		run := &models.ScrapeRun{RunID: runID, Keyword: keyword, Status: models.RunStatusRunning, StartedAt: startedAt}
		if err := r.history.RecordStart(ctx, run); err != nil {
			logger.Warnf("[HISTORY] %v", err)
		}
	}

	// A stale file from an earlier run must not pass for this run's output.
	if err := os.Remove(r.DataPath()); err != nil && !os.IsNotExist(err) {
		logger.Warnf("[CRAWLER] could not remove old data file: %v", err)
	}

	listings, errMsg := r.execute(ctx, keyword, logger)
	r.tracker.Finish(listings, errMsg)
	logger.Infof("[CRAWLER] Finished in %s with %d listings", time.Since(startedAt).Round(time.Second), len(listings))

	archiveKey := r.archive(ctx, keyword, runID, logger)
	if r.history != nil {
		if err := r.history.RecordFinish(ctx, runID, listings, archiveKey, errMsg); err != nil {
			logger.Warnf("[HISTORY] %v", err)
		}
	}
}

// execute runs the child and loads its data file. errMsg is empty on success.
func (r *Runner) execute(ctx context.Context, keyword string, logger *log.Entry) ([]models.Listing, string) {
	exe := r.opts.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, fmt.Sprintf("cannot locate crawler executable: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	env := r.opts.Env
	if env == nil {
		env = os.Environ()
	}
	env = append(utils.StripProxyEnv(env), r.opts.ExtraEnv...)
	env = append(env,
		config.EnvPrefix+"_DATA_DIR="+r.opts.DataDir,
		config.EnvPrefix+"_DATA_FILE="+r.opts.DataFile,
	)

	cmd := exec.CommandContext(ctx, exe, r.opts.Args(keyword)...)
	cmd.Dir = r.opts.DataDir
	cmd.Env = env
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	// Browser processes can outlive the child and hold its output pipe open.
	cmd.WaitDelay = 5 * time.Second

	logger.Infof("[CRAWLER] Starting %s %s", exe, strings.Join(r.opts.Args(keyword), " "))
	runErr := cmd.Run()
	logOutput(logger, output.String())

	if ctx.Err() == context.DeadlineExceeded {
		logger.Error("[CRAWLER] Timed out")
		return nil, fmt.Sprintf("crawler timed out after %s", r.opts.Timeout)
	}

	var errMsg string
	listings, err := utils.LoadListings(r.DataPath())
	switch {
	case os.IsNotExist(err):
		errMsg = "crawler produced no data file, scraping probably failed"
	case err != nil:
		errMsg = fmt.Sprintf("failed to read data file: %v", err)
	default:
		logger.Infof("[CRAWLER] Loaded %d listings", len(listings))
	}

	if runErr != nil {
		errMsg = fmt.Sprintf("crawler failed (%v)\n%s", runErr, tail(output.String(), 20))
	}
	return listings, errMsg
}

func (r *Runner) archive(ctx context.Context, keyword, runID string, logger *log.Entry) string {
	if r.archiver == nil {
		return ""
	}

	var key string
	files := []struct{ path, contentType string }{
		{r.DataPath(), "application/json"},
		{filepath.Join(r.opts.DataDir, r.opts.ScreenshotFile), "image/png"},
	}
	for _, f := range files {
		if r.opts.ScreenshotFile == "" && f.contentType == "image/png" {
			continue
		}
		data, err := os.ReadFile(f.path)
		if err != nil {
			continue
		}
		k, err := r.archiver.Upload(ctx, bytes.NewReader(data), utils.ArchiveKey(keyword, runID, filepath.Base(f.path)), f.contentType)
		if err != nil {
			logger.Warnf("[ARCHIVE] %v", err)
			continue
		}
		if key == "" {
			key = k
		}
	}
	return key
}

func logOutput(logger *log.Entry, output string) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r"); line != "" {
			logger.Info("[CRAWLER] " + line)
		}
	}
}

// tail returns the last n lines of s
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
