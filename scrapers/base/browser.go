package base

import (
	"context"
	"errors"
	"time"

	"github.com/raushankrgupta/fish-scout/models"
)

// DesktopUserAgent is sent by every driver unless Options overrides it
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrUnsupported is returned by drivers that cannot perform an operation
var ErrUnsupported = errors.New("operation not supported by driver")

// Page is a single browser tab driven by one of the automation backends
type Page interface {
	// Navigate loads url and returns once the DOM is ready
	Navigate(ctx context.Context, url string) error
	// HTML returns the serialized document
	HTML(ctx context.Context) (string, error)
	// Text returns the rendered text of the body
	Text(ctx context.Context) (string, error)
	// ScrollBy scrolls down by fraction of the document height
	ScrollBy(ctx context.Context, fraction float64) error
	Screenshot(ctx context.Context) ([]byte, error)
	Cookies(ctx context.Context) ([]models.Cookie, error)
	SetCookies(ctx context.Context, cookies []models.Cookie) error
	// Closed reports whether the user closed the window or the browser exited
	Closed() bool
	Close() error
}

// Driver opens pages with a particular automation backend
type Driver interface {
	Name() string
	Open(ctx context.Context, opts Options) (Page, error)
}

// Options controls how a browser is launched
type Options struct {
	Headless          bool
	NoProxy           bool
	UserAgent         string
	Width             int
	Height            int
	NavigationTimeout time.Duration
}

// DefaultOptions is a visible desktop browser that bypasses any system proxy
func DefaultOptions() Options {
	return Options{
		Headless:          false,
		NoProxy:           true,
		UserAgent:         DesktopUserAgent,
		Width:             1400,
		Height:            900,
		NavigationTimeout: 60 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.Width == 0 || o.Height == 0 {
		o.Width, o.Height = d.Width, d.Height
	}
	if o.NavigationTimeout == 0 {
		o.NavigationTimeout = d.NavigationTimeout
	}
	return o
}

const bodyTextScript = `document.body ? document.body.innerText : ""`

func scrollScript(fraction float64) string {
	return "window.scrollBy(0, document.body.scrollHeight * " + formatFloat(fraction) + ")"
}
