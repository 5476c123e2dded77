package base

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/raushankrgupta/fish-scout/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cookiePage struct {
	staticPage
	cookies []models.Cookie
	setErr  error
}

func (p *cookiePage) Cookies(ctx context.Context) ([]models.Cookie, error) { return p.cookies, nil }

func (p *cookiePage) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	if p.setErr != nil {
		return p.setErr
	}
	p.cookies = append(p.cookies, cookies...)
	return nil
}

type stubDriver struct {
	name string
	err  error
	page Page
}

func (d *stubDriver) Name() string { return d.name }

func (d *stubDriver) Open(ctx context.Context, opts Options) (Page, error) {
	return d.page, d.err
}

func TestPortManager(t *testing.T) {
	pm := NewPortManager(9000, 2)

	p1, err := pm.GetPort()
	require.NoError(t, err)
	p2, err := pm.GetPort()
	require.NoError(t, err)
	assert.Equal(t, 9000, p1)
	assert.Equal(t, 9001, p2)

	_, err = pm.GetPort()
	assert.Error(t, err)

	pm.ReleasePort(p1)
	p3, err := pm.GetPort()
	require.NoError(t, err)
	assert.Equal(t, 9000, p3)

	pm.ReleasePort(12345)
	assert.Len(t, pm.PortMap, 2)
}

func TestSession_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "browser_state.json")

	src := &cookiePage{cookies: []models.Cookie{
		{Name: "cookie2", Value: "abc", Domain: ".goofish.com", Path: "/", Expires: 1893456000, HTTPOnly: true, Secure: true},
	}}
	require.NoError(t, SaveSession(ctx, src, path))

	dst := &cookiePage{}
	restored, err := LoadSession(ctx, dst, path)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, src.cookies, dst.cookies)
}

func TestLoadSession_MissingOrBroken(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	restored, err := LoadSession(ctx, &cookiePage{}, filepath.Join(dir, "none.json"))
	require.NoError(t, err)
	assert.False(t, restored)

	restored, err = LoadSession(ctx, &cookiePage{}, "")
	require.NoError(t, err)
	assert.False(t, restored)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0600))
	_, err = LoadSession(ctx, &cookiePage{}, broken)
	assert.Error(t, err)

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"cookies":[{"name":"a","value":"b"}]}`), 0600))
	_, err = LoadSession(ctx, &cookiePage{setErr: errors.New("boom")}, good)
	assert.Error(t, err)
}

func TestNewBaseScraper(t *testing.T) {
	b, err := NewBaseScraper([]string{"Playwright", "bogus", " rod "}, Options{})
	require.NoError(t, err)
	require.Len(t, b.Drivers, 2)
	assert.Equal(t, "playwright", b.Drivers[0].Name())
	assert.Equal(t, "rod", b.Drivers[1].Name())
	assert.Equal(t, 1400, b.Options.Width)
	assert.Equal(t, 900, b.Options.Height)
	assert.Equal(t, 60*time.Second, b.Options.NavigationTimeout)
	assert.Equal(t, DesktopUserAgent, b.Options.UserAgent)

	_, err = NewBaseScraper([]string{"bogus"}, Options{})
	assert.Error(t, err)
}

func TestOpenPage_FallsBack(t *testing.T) {
	want := &cookiePage{}
	b := &BaseScraper{Drivers: []Driver{
		&stubDriver{name: "first", err: errors.New("no chrome")},
		&stubDriver{name: "second", page: want},
	}}

	page, name, err := b.OpenPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", name)
	assert.Same(t, want, page)

	b.Drivers = b.Drivers[:1]
	_, _, err = b.OpenPage(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first: no chrome")
}

func TestStaticDriver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DesktopUserAgent, r.UserAgent())
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "xyz", Path: "/"})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><div class="item">全新 机械键盘 ¥199</div></body></html>`))
	}))
	defer srv.Close()

	ctx := context.Background()
	page, err := (&StaticDriver{}).Open(ctx, DefaultOptions())
	require.NoError(t, err)
	defer page.Close()

	require.NoError(t, page.Navigate(ctx, srv.URL+"/search?q=x"))

	html, err := page.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, `class="item"`)

	text, err := page.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "全新 机械键盘 ¥199", strings.TrimSpace(text))

	cookies, err := page.Cookies(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)

	_, err = page.Screenshot(ctx)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, page.Closed())
}

func TestScrollScript(t *testing.T) {
	assert.Equal(t, "window.scrollBy(0, document.body.scrollHeight * 0.5)", scrollScript(0.5))
}

func TestChromeFlags(t *testing.T) {
	opts := DefaultOptions().withDefaults()
	flags := chromeFlags(opts)
	assert.Equal(t, true, flags["no-proxy-server"])
	assert.Equal(t, false, flags["headless"])

	opts.NoProxy = false
	opts.Headless = true
	flags = chromeFlags(opts)
	assert.NotContains(t, flags, "no-proxy-server")
	assert.Equal(t, true, flags["headless"])
}

func TestChromedpAllocOptions(t *testing.T) {
	opts := DefaultOptions().withDefaults()
	allocOpts := chromedpAllocOptions(opts)
	// defaults, user agent, window size and one entry per flag
	assert.Len(t, allocOpts, len(chromedp.DefaultExecAllocatorOptions)+2+len(chromeFlags(opts)))
}
