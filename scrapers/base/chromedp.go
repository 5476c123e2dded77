package base

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/raushankrgupta/fish-scout/models"
)

// ChromeDPDriver drives a local Chrome over the DevTools protocol
type ChromeDPDriver struct{}

func (d *ChromeDPDriver) Name() string { return "chromedp" }

// Open launches Chrome and returns its first tab
func (d *ChromeDPDriver) Open(ctx context.Context, opts Options) (Page, error) {
	opts = opts.withDefaults()

	allocOpts := chromedpAllocOptions(opts)

	// The browser outlives the caller's request context; Close tears it down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	p := &chromedpPage{
		ctx:     tabCtx,
		cancel:  func() { tabCancel(); allocCancel() },
		timeout: opts.NavigationTimeout,
	}
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch ev.(type) {
		case *inspector.EventDetached, *inspector.EventTargetCrashed:
			p.closed.Store(true)
		}
	})

	// Starts the browser process.
	if err := p.run(ctx, chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height))); err != nil {
		p.cancel()
		return nil, fmt.Errorf("chromedp launch error: %w", err)
	}
	return p, nil
}

// chromeFlags are the command line switches every Chrome launch gets
func chromeFlags(opts Options) map[string]interface{} {
	flags := map[string]interface{}{
		"headless":               opts.Headless,
		"disable-blink-features": "AutomationControlled",
	}
	if opts.NoProxy {
		flags["no-proxy-server"] = true
	}
	return flags
}

func chromedpAllocOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	for name, value := range chromeFlags(opts) {
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}
	return allocOpts
}

type chromedpPage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	closed  atomic.Bool
}

// run executes actions on the tab, aborting when ctx is done
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("chromedp navigation error: %w", err)
	}
	return nil
}

func (p *chromedpPage) HTML(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromedpPage) Text(ctx context.Context) (string, error) {
	var text string
	err := p.run(ctx, chromedp.Evaluate(bodyTextScript, &text))
	return text, err
}

func (p *chromedpPage) ScrollBy(ctx context.Context, fraction float64) error {
	return p.run(ctx, chromedp.Evaluate(scrollScript(fraction), nil))
}

func (p *chromedpPage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

func (p *chromedpPage) Cookies(ctx context.Context) ([]models.Cookie, error) {
	var out []models.Cookie
	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			out = append(out, models.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
			})
		}
		return nil
	}))
	return out, err
}

func (p *chromedpPage) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		param := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			param.Expires = &expires
		}
		params = append(params, param)
	}
	return p.run(ctx, network.SetCookies(params))
}

func (p *chromedpPage) Closed() bool {
	return p.closed.Load() || p.ctx.Err() != nil
}

func (p *chromedpPage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	return err
}
