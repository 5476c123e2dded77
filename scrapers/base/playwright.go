package base

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"github.com/raushankrgupta/fish-scout/models"
)

// PlaywrightDriver drives Chromium through playwright-go
type PlaywrightDriver struct{}

func (d *PlaywrightDriver) Name() string { return "playwright" }

// Open starts the playwright runtime and a fresh browser context
func (d *PlaywrightDriver) Open(ctx context.Context, opts Options) (Page, error) {
	opts = opts.withDefaults()

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	var args []string
	if opts.NoProxy {
		args = append(args, "--no-proxy-server")
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     args,
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(opts.UserAgent),
		Viewport:  &playwright.Size{Width: opts.Width, Height: opts.Height},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	return &playwrightPage{pw: pw, browser: browser, bctx: bctx, page: page, timeout: float64(opts.NavigationTimeout.Milliseconds())}, nil
}

type playwrightPage struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	timeout float64
}

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(p.timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("playwright navigation error: %w", err)
	}
	return nil
}

func (p *playwrightPage) HTML(ctx context.Context) (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Text(ctx context.Context) (string, error) {
	return p.page.InnerText("body")
}

func (p *playwrightPage) ScrollBy(ctx context.Context, fraction float64) error {
	_, err := p.page.Evaluate(scrollScript(fraction))
	return err
}

func (p *playwrightPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{})
}

func (p *playwrightPage) Cookies(ctx context.Context) ([]models.Cookie, error) {
	cookies, err := p.bctx.Cookies()
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
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		})
	}
	return out, nil
}

func (p *playwrightPage) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	optional := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		domain := c.Domain
		path := c.Path
		httpOnly := c.HTTPOnly
		secure := c.Secure
		expires := c.Expires

		optional = append(optional, playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   &domain,
			Path:     &path,
			HttpOnly: &httpOnly,
			Secure:   &secure,
			Expires:  &expires,
		})
	}
	return p.bctx.AddCookies(optional)
}

func (p *playwrightPage) Closed() bool {
	return p.page.IsClosed() || !p.browser.IsConnected()
}

func (p *playwrightPage) Close() error {
	if err := p.browser.Close(); err != nil {
		p.pw.Stop()
		return err
	}
	return p.pw.Stop()
}
