package base

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/raushankrgupta/fish-scout/models"
)

// RodDriver drives Chrome through go-rod
type RodDriver struct{}

func (d *RodDriver) Name() string { return "rod" }

// Open launches Chrome with the rod launcher and creates a blank tab
func (d *RodDriver) Open(ctx context.Context, opts Options) (Page, error) {
	opts = opts.withDefaults()

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", opts.Width, opts.Height))
	if opts.NoProxy {
		l = l.Set("no-proxy-server")
	}

	launcherURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launcherURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	// Detach from the open context so later calls pick their own.
	page = page.Context(context.Background())

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to set user agent: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	return &rodPage{launcher: l, browser: browser, page: page, opts: opts}, nil
}

type rodPage struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	opts     Options
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx).Timeout(p.opts.NavigationTimeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("rod navigation error: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("rod wait error: %w", err)
	}
	return nil
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) Text(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval("() => " + bodyTextScript)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (p *rodPage) ScrollBy(ctx context.Context, fraction float64) error {
	_, err := p.page.Context(ctx).Eval("() => " + scrollScript(fraction))
	return err
}

func (p *rodPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (p *rodPage) Cookies(ctx context.Context) ([]models.Cookie, error) {
	cookies, err := p.browser.Context(ctx).GetCookies()
	if err != nil {
		return nil, err
	}
	out := make([]models.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return out, nil
}

func (p *rodPage) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  proto.TimeSinceEpoch(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return p.browser.Context(ctx).SetCookies(params)
}

func (p *rodPage) Closed() bool {
	_, err := p.page.Info()
	return err != nil
}

func (p *rodPage) Close() error {
	err := p.browser.Close()
	p.launcher.Kill()
	p.launcher.Cleanup()
	return err
}
