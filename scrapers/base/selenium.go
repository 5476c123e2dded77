package base

import (
	"context"
	"fmt"

	"github.com/raushankrgupta/fish-scout/models"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

const chromeDriverPath = "/usr/local/bin/chromedriver"

// SeleniumDriver drives Chrome through a local chromedriver service
type SeleniumDriver struct {
	DriverPath string
}

func (d *SeleniumDriver) Name() string { return "selenium" }

// Open starts chromedriver on a free port and opens a WebDriver session
func (d *SeleniumDriver) Open(ctx context.Context, opts Options) (Page, error) {
	opts = opts.withDefaults()
	InitPortManager(4444, 16)

	port, err := GlobalPortManager.GetPort()
	if err != nil {
		return nil, fmt.Errorf("port error: %w", err)
	}

	path := d.DriverPath
	if path == "" {
		path = chromeDriverPath
	}
	service, err := selenium.NewChromeDriverService(path, port)
	if err != nil {
		GlobalPortManager.ReleasePort(port)
		return nil, fmt.Errorf("error starting Chrome driver service: %w", err)
	}

	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		fmt.Sprintf("--window-size=%d,%d", opts.Width, opts.Height),
		fmt.Sprintf("--user-agent=%s", opts.UserAgent),
	}
	if opts.Headless {
		args = append(args, "--headless=new")
	}
	if opts.NoProxy {
		args = append(args, "--no-proxy-server")
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chrome.Capabilities{
		Args:            args,
		ExcludeSwitches: []string{"enable-automation"},
	})

	driver, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", port))
	if err != nil {
		service.Stop()
		GlobalPortManager.ReleasePort(port)
		return nil, fmt.Errorf("error creating WebDriver: %w", err)
	}
	driver.SetPageLoadTimeout(opts.NavigationTimeout)

	return &seleniumPage{driver: driver, service: service, port: port}, nil
}

type seleniumPage struct {
	driver  selenium.WebDriver
	service *selenium.Service
	port    int
}

func (p *seleniumPage) Navigate(ctx context.Context, url string) error {
	if err := p.driver.Get(url); err != nil {
		return fmt.Errorf("navigation error: %w", err)
	}
	return nil
}

func (p *seleniumPage) HTML(ctx context.Context) (string, error) {
	return p.driver.PageSource()
}

func (p *seleniumPage) Text(ctx context.Context) (string, error) {
	v, err := p.driver.ExecuteScript("return "+bodyTextScript, nil)
	if err != nil {
		return "", err
	}
	text, _ := v.(string)
	return text, nil
}

func (p *seleniumPage) ScrollBy(ctx context.Context, fraction float64) error {
	_, err := p.driver.ExecuteScript(scrollScript(fraction), nil)
	return err
}

func (p *seleniumPage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.driver.Screenshot()
}

func (p *seleniumPage) Cookies(ctx context.Context) ([]models.Cookie, error) {
	cookies, err := p.driver.GetCookies()
	if err != nil {
		return nil, err
	}
	out := make([]models.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, models.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Domain:  c.Domain,
			Path:    c.Path,
			Expires: float64(c.Expiry),
			Secure:  c.Secure,
		})
	}
	return out, nil
}

// SetCookies only applies cookies for the domain currently loaded, a
// WebDriver restriction.
func (p *seleniumPage) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	for _, c := range cookies {
		cookie := &selenium.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
			Secure: c.Secure,
		}
		if c.Expires > 0 {
			cookie.Expiry = uint(c.Expires)
		}
		if err := p.driver.AddCookie(cookie); err != nil {
			return fmt.Errorf("failed to add cookie %s: %w", c.Name, err)
		}
	}
	return nil
}

func (p *seleniumPage) Closed() bool {
	_, err := p.driver.CurrentWindowHandle()
	return err != nil
}

func (p *seleniumPage) Close() error {
	err := p.driver.Quit()
	p.service.Stop()
	GlobalPortManager.ReleasePort(p.port)
	return err
}
