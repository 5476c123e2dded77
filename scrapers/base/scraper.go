package base

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// BaseScraper launches a browser page using the first driver that works
type BaseScraper struct {
	Drivers []Driver
	Options Options
}

// NewBaseScraper creates a BaseScraper for the named drivers, in order.
// Unknown names are skipped with a warning.
func NewBaseScraper(names []string, opts Options) (*BaseScraper, error) {
	var drivers []Driver
	for _, name := range names {
		d, err := DriverByName(name)
		if err != nil {
			log.Warnf("[BaseScraper] %v", err)
			continue
		}
		drivers = append(drivers, d)
	}
	if len(drivers) == 0 {
		return nil, fmt.Errorf("no usable browser driver in %q", strings.Join(names, ","))
	}
	return &BaseScraper{Drivers: drivers, Options: opts.withDefaults()}, nil
}

// DriverByName returns the driver registered under name
func DriverByName(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "chromedp":
		return &ChromeDPDriver{}, nil
	case "playwright":
		return &PlaywrightDriver{}, nil
	case "rod":
		return &RodDriver{}, nil
	case "selenium":
		return &SeleniumDriver{DriverPath: chromeDriverPath}, nil
	case "static":
		return &StaticDriver{}, nil
	}
	return nil, fmt.Errorf("unknown browser driver %q", name)
}

// OpenPage tries each driver in turn and returns the first page that opens
func (b *BaseScraper) OpenPage(ctx context.Context) (Page, string, error) {
	var errs []string
	for _, d := range b.Drivers {
		log.Infof("[BaseScraper] Trying %s", d.Name())
		page, err := d.Open(ctx, b.Options)
		if err == nil {
			log.Infof("[BaseScraper] %s Success", d.Name())
			return page, d.Name(), nil
		}
		log.Warnf("[BaseScraper] %s Failed: %v", d.Name(), err)
		errs = append(errs, fmt.Sprintf("%s: %v", d.Name(), err))
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
	}
	return nil, "", fmt.Errorf("all browser drivers failed: %s", strings.Join(errs, "; "))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
