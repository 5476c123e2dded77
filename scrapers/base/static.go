package base

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/raushankrgupta/fish-scout/models"
)

// StaticDriver fetches pages with colly. Nothing is rendered, so it only
// helps with server-side rendered results or saved pages.
type StaticDriver struct{}

func (d *StaticDriver) Name() string { return "static" }

// Open prepares a collector; no process is started.
func (d *StaticDriver) Open(ctx context.Context, opts Options) (Page, error) {
	opts = opts.withDefaults()

	c := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(opts.NavigationTimeout)
	if opts.NoProxy {
		c.WithTransport(&http.Transport{
			Proxy:               nil,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		})
	}

	return &staticPage{collector: c}, nil
}

type staticPage struct {
	collector *colly.Collector

	mu   sync.Mutex
	url  string
	html string
}

func (p *staticPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body string
	var fetchErr error
	// Clones share the cookie jar and transport but not callbacks.
	c := p.collector.Clone()
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	})
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch error: %w", err)
	})
	if err := c.Visit(url); err != nil {
		return fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return fetchErr
	}

	p.mu.Lock()
	p.url, p.html = url, body
	p.mu.Unlock()
	return nil
}

func (p *staticPage) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, nil
}

func (p *staticPage) Text(ctx context.Context) (string, error) {
	html, _ := p.HTML(ctx)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	return doc.Find("body").Text(), nil
}

func (p *staticPage) ScrollBy(ctx context.Context, fraction float64) error { return nil }

func (p *staticPage) Screenshot(ctx context.Context) ([]byte, error) {
	return nil, ErrUnsupported
}

func (p *staticPage) Cookies(ctx context.Context) ([]models.Cookie, error) {
	p.mu.Lock()
	url := p.url
	p.mu.Unlock()
	if url == "" {
		return nil, nil
	}

	var out []models.Cookie
	for _, c := range p.collector.Cookies(url) {
		out = append(out, models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		})
	}
	return out, nil
}

func (p *staticPage) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	byURL := map[string][]*http.Cookie{}
	for _, c := range cookies {
		u := "https://" + strings.TrimPrefix(c.Domain, ".") + "/"
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		byURL[u] = append(byURL[u], hc)
	}
	for u, list := range byURL {
		if err := p.collector.SetCookies(u, list); err != nil {
			return err
		}
	}
	return nil
}

func (p *staticPage) Closed() bool { return false }

func (p *staticPage) Close() error { return nil }
