package crawler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raushankrgupta/fish-scout/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	mu       sync.Mutex
	started  []string
	finished map[string]string
	archive  string
}

func (h *fakeHistory) RecordStart(ctx context.Context, run *models.ScrapeRun) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, run.RunID)
	return nil
}

func (h *fakeHistory) RecordFinish(ctx context.Context, runID string, listings []models.Listing, archiveKey string, runErr string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished == nil {
		h.finished = map[string]string{}
	}
	h.finished[runID] = runErr
	h.archive = archiveKey
	return nil
}

type fakeArchiver struct {
	mu   sync.Mutex
	keys []string
}

func (a *fakeArchiver) Upload(ctx context.Context, body io.Reader, objectKey string, contentType string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, objectKey)
	return objectKey, nil
}

// writeScript creates an executable shell script standing in for the crawler
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crawler.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newTestRunner(t *testing.T, script string, timeout time.Duration) (*Runner, *Tracker, string) {
	t.Helper()
	dir := t.TempDir()
	tr := NewTracker()
	r := NewRunner(tr, Options{
		Executable: writeScript(t, script),
		Env:        []string{"PATH=" + os.Getenv("PATH"), "HTTP_PROXY=http://127.0.0.1:7890"},
		DataDir:    dir,
		DataFile:   "temp_data.json",
		Timeout:    timeout,
	}, nil, nil)
	return r, tr, dir
}

func TestRunnerSuccess(t *testing.T) {
	script := `echo "searching $2"
cat > "$FISHSCOUT_DATA_DIR/$FISHSCOUT_DATA_FILE" <<'JSON'
[{"title":"Switch","price":"¥899","desc":"闲鱼商品","link":"https://www.goofish.com/item?id=1"}]
JSON`
	r, tr, _ := newTestRunner(t, script, 10*time.Second)

	runID, err := r.Start("switch")
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	r.Wait()

	snap := tr.Snapshot()
	assert.False(t, snap.Running)
	assert.Nil(t, snap.Error)
	assert.Equal(t, 1, snap.DataCount)
	assert.Equal(t, runID, snap.RunID)
	assert.Equal(t, "Switch", tr.Listings()[0].Title)
}

func TestRunnerStripsProxyAndSetsDir(t *testing.T) {
	script := `if [ -n "$HTTP_PROXY" ]; then exit 3; fi
[ "$(pwd)" = "$FISHSCOUT_DATA_DIR" ] || exit 4
echo '[]' > "$FISHSCOUT_DATA_DIR/$FISHSCOUT_DATA_FILE"`
	r, tr, _ := newTestRunner(t, script, 10*time.Second)

	_, err := r.Start("k")
	require.NoError(t, err)
	r.Wait()
	assert.Nil(t, tr.Snapshot().Error)
}

func TestRunnerExtraEnv(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker()
	r := NewRunner(tr, Options{
		Executable: writeScript(t, `[ "$FISHSCOUT_HEADLESS" = "true" ] || exit 5
echo '[]' > "$FISHSCOUT_DATA_DIR/$FISHSCOUT_DATA_FILE"`),
		Env:      []string{"PATH=" + os.Getenv("PATH")},
		ExtraEnv: []string{"FISHSCOUT_HEADLESS=true"},
		DataDir:  dir,
		Timeout:  10 * time.Second,
	}, nil, nil)

	_, err := r.Start("k")
	require.NoError(t, err)
	r.Wait()
	assert.Nil(t, tr.Snapshot().Error)
}

func TestRunnerNoDataFile(t *testing.T) {
	r, tr, dir := newTestRunner(t, `exit 0`, 10*time.Second)
	// leftovers from an earlier run must not count
	require.NoError(t, os.WriteFile(filepath.Join(dir, "temp_data.json"), []byte(`[{"title":"old"}]`), 0o644))

	_, err := r.Start("k")
	require.NoError(t, err)
	r.Wait()

	snap := tr.Snapshot()
	require.NotNil(t, snap.Error)
	assert.Contains(t, *snap.Error, "no data file")
	assert.Equal(t, 0, snap.DataCount)
}

func TestRunnerBadDataFile(t *testing.T) {
	r, tr, _ := newTestRunner(t, `echo 'not json' > "$FISHSCOUT_DATA_DIR/$FISHSCOUT_DATA_FILE"`, 10*time.Second)
	_, err := r.Start("k")
	require.NoError(t, err)
	r.Wait()

	snap := tr.Snapshot()
	require.NotNil(t, snap.Error)
	assert.True(t, strings.HasPrefix(*snap.Error, "failed to read data file"))
}

func TestRunnerNonZeroExit(t *testing.T) {
	script := `echo '[{"title":"partial","price":"¥1"}]' > "$FISHSCOUT_DATA_DIR/$FISHSCOUT_DATA_FILE"
echo "browser crashed" >&2
exit 2`
	r, tr, _ := newTestRunner(t, script, 10*time.Second)
	_, err := r.Start("k")
	require.NoError(t, err)
	r.Wait()

	snap := tr.Snapshot()
	require.NotNil(t, snap.Error)
	assert.Contains(t, *snap.Error, "exit status 2")
	assert.Contains(t, *snap.Error, "browser crashed")
	assert.Equal(t, 1, snap.DataCount, "partial data is still loaded")
}

func TestRunnerTimeout(t *testing.T) {
	r, tr, _ := newTestRunner(t, `exec sleep 10`, 200*time.Millisecond)
	_, err := r.Start("k")
	require.NoError(t, err)
	r.Wait()

	snap := tr.Snapshot()
	require.NotNil(t, snap.Error)
	assert.Contains(t, *snap.Error, "timed out")
	assert.False(t, snap.Running)
}

func TestRunnerRejectsConcurrentStart(t *testing.T) {
	r, _, _ := newTestRunner(t, `exec sleep 1`, 5*time.Second)
	_, err := r.Start("a")
	require.NoError(t, err)
	_, err = r.Start("b")
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	r.Wait()
}

func TestRunnerHistoryAndArchive(t *testing.T) {
	dir := t.TempDir()
	history := &fakeHistory{}
	archiver := &fakeArchiver{}
	tr := NewTracker()
	r := NewRunner(tr, Options{
		Executable:     writeScript(t, `echo '[]' > "$FISHSCOUT_DATA_DIR/$FISHSCOUT_DATA_FILE"; echo png > "$FISHSCOUT_DATA_DIR/debug.png"`),
		Env:            []string{"PATH=" + os.Getenv("PATH")},
		DataDir:        dir,
		ScreenshotFile: "debug.png",
		Timeout:        10 * time.Second,
	}, history, archiver)

	runID, err := r.Start("nintendo switch")
	require.NoError(t, err)
	r.Wait()

	assert.Equal(t, []string{runID}, history.started)
	assert.Equal(t, "", history.finished[runID])
	require.Len(t, archiver.keys, 2)
	assert.Equal(t, "scrapes/nintendo_switch/"+runID+"/temp_data.json", archiver.keys[0])
	assert.Equal(t, archiver.keys[0], history.archive)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "c\nd", tail("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a", tail("a", 5))
}
