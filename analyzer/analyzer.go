package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raushankrgupta/fish-scout/models"
	"github.com/raushankrgupta/fish-scout/utils"
	log "github.com/sirupsen/logrus"
)

// Cache stores analysis results keyed by provider, model and data
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Recommendation, bool, error)
	Set(ctx context.Context, key string, recs []models.Recommendation) error
}

// Options tunes the retry loop
type Options struct {
	MaxAttempts   int
	RetryWait     time.Duration
	RateLimitWait time.Duration
	// NoReconnect disables rebuilding the client after a region error
	NoReconnect bool
	// Connect builds providers, Connect when nil
	Connect Connector
}

// DefaultOptions allows three attempts, 2s between failures, 5s after a 429
func DefaultOptions() Options {
	return Options{MaxAttempts: 3, RetryWait: 2 * time.Second, RateLimitWait: 5 * time.Second}
}

// Connector builds a provider from a client config
type Connector func(ctx context.Context, cfg ClientConfig) (Provider, error)

// Result is a successful analysis
type Result struct {
	Recommendations []models.Recommendation
	Provider        string
	Cached          bool
}

// Analyzer owns the AI client and scores listings with it
type Analyzer struct {
	mu       sync.RWMutex
	provider Provider
	cfg      ClientConfig

	connect Connector
	cache   Cache
	opts    Options
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates an analyzer. cfg supplies everything but the API key, which
// comes with Init. cache may be nil.
func New(cfg ClientConfig, cache Cache, opts Options) *Analyzer {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOptions().MaxAttempts
	}
	connect := opts.Connect
	if connect == nil {
		connect = Connect
	}
	return &Analyzer{
		cfg:     cfg,
		connect: connect,
		cache:   cache,
		opts:    opts,
		sleep:   sleepContext,
	}
}

// Ready reports whether a client has been initialised
func (a *Analyzer) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.provider != nil
}

// Init (re)builds the client for apiKey. An empty key reuses the last one.
func (a *Analyzer) Init(ctx context.Context, apiKey string) error {
	a.mu.Lock()
	cfg := a.cfg
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	a.mu.Unlock()

	provider, err := a.connect(ctx, cfg)
	if err != nil {
		return err
	}

	a.mu.Lock()
	old := a.provider
	a.provider = provider
	a.cfg = cfg
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Close releases the current client
func (a *Analyzer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.provider == nil {
		return nil
	}
	err := a.provider.Close()
	a.provider = nil
	return err
}

func (a *Analyzer) current() Provider {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.provider
}

// Analyze scores listings with the AI provider. When the provider is
// unreachable from this region the local scorer is used and a
// *FallbackError carrying its picks is returned.
func (a *Analyzer) Analyze(ctx context.Context, listings []models.Listing) (*Result, error) {
	if len(listings) == 0 {
		return nil, ErrNoData
	}
	provider := a.current()
	if provider == nil {
		return nil, ErrNoClient
	}

	cacheKey := utils.CacheKey(provider.Name(), provider.Model(), listings)
	if a.cache != nil {
		recs, ok, err := a.cache.Get(ctx, cacheKey)
		if err != nil {
			log.Warnf("[CACHE] %v", err)
		} else if ok {
			log.Infof("[ANALYZE] Cache hit, %d recommendations", len(recs))
			return &Result{Recommendations: recs, Provider: provider.Name(), Cached: true}, nil
		}
	}

	log.Infof("[ANALYZE] Scoring %d listings with %s", len(listings), provider.Name())
	prompt := BuildPrompt(listings)

	var lastErr error
	for attempt := 1; attempt <= a.opts.MaxAttempts; attempt++ {
		text, err := provider.Generate(ctx, prompt)
		if err == nil {
			recs, perr := ParseRecommendations(text)
			if perr == nil {
				log.Infof("[ANALYZE] Success, %d recommendations", len(recs))
				a.store(ctx, cacheKey, recs)
				return &Result{Recommendations: recs, Provider: provider.Name()}, nil
			}
			err = perr
		}

		err = Classify(provider.Name(), err)
		lastErr = err
		log.Warnf("[ANALYZE] Attempt %d/%d failed: %v", attempt, a.opts.MaxAttempts, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		switch {
		case errors.Is(err, ErrRegionRestricted):
			if attempt > 1 || a.opts.NoReconnect {
				return nil, a.fallback(listings, err)
			}
			log.Info("[ANALYZE] Region restriction detected, reinitialising the client")
			if rerr := a.Init(ctx, ""); rerr != nil {
				return nil, a.fallback(listings, fmt.Errorf("%w (reinit failed: %v)", err, rerr))
			}
			provider = a.current()
			continue
		case errors.Is(err, ErrRateLimited):
			if attempt < a.opts.MaxAttempts {
				log.Infof("[ANALYZE] Rate limited, waiting %s", a.opts.RateLimitWait)
				if serr := a.sleep(ctx, a.opts.RateLimitWait); serr != nil {
					return nil, serr
				}
			}
		default:
			if attempt < a.opts.MaxAttempts {
				if serr := a.sleep(ctx, a.opts.RetryWait); serr != nil {
					return nil, serr
				}
			}
		}
	}
	return nil, fmt.Errorf("analysis failed after %d attempts: %w", a.opts.MaxAttempts, lastErr)
}

func (a *Analyzer) fallback(listings []models.Listing, cause error) error {
	recs := LocalScore(listings)
	log.Warnf("[ANALYZE] Falling back to local scoring: %d picks", len(recs))
	return &FallbackError{Cause: cause, Recommendations: recs}
}

func (a *Analyzer) store(ctx context.Context, key string, recs []models.Recommendation) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, recs); err != nil {
		log.Warnf("[CACHE] %v", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
