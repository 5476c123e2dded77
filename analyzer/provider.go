package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fish-scout/utils"
	log "github.com/sirupsen/logrus"
)

// Provider sends one prompt to a hosted model and returns its text answer
type Provider interface {
	Name() string
	Model() string
	// Generate asks for a JSON answer to prompt
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// DefaultModels maps provider names to the model used when none is set
var DefaultModels = map[string]string{
	"gemini":    "gemini-2.5-flash",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-20250514",
}

// ClientConfig describes how to reach a provider
type ClientConfig struct {
	Provider string
	Model    string
	APIKey   string
	// Proxy is used for provider traffic and the egress check
	Proxy         utils.ProxyConfig
	ProxyCheckURL string
}

// NewProvider creates the named provider. httpClient carries the proxy.
func NewProvider(ctx context.Context, cfg ClientConfig, httpClient *http.Client) (Provider, error) {
	name := strings.ToLower(cfg.Provider)
	if name == "" {
		name = "gemini"
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModels[name]
	}

	switch name {
	case "gemini":
		return NewGeminiProvider(ctx, cfg.APIKey, model, httpClient)
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, model, httpClient), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, model, httpClient), nil
	}
	return nil, fmt.Errorf("unknown AI provider: %s (available: gemini, openai, anthropic)", cfg.Provider)
}

// Connect checks proxy egress and then builds the provider. A restricted
// egress country fails with ErrRegionRestricted.
func Connect(ctx context.Context, cfg ClientConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is empty")
	}

	httpClient, err := utils.NewHTTPClient(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	if cfg.Proxy.URL != "" && cfg.ProxyCheckURL != "" {
		log.Infof("[PROXY] Using proxy %s", cfg.Proxy.URL)
		status, err := utils.CheckProxy(ctx, httpClient, cfg.ProxyCheckURL)
		if err != nil {
			return nil, fmt.Errorf("proxy connection failed, check that a proxy is running at %s: %w", cfg.Proxy.URL, err)
		}
		log.Infof("[PROXY] Egress IP=%s country=%s", status.IP, status.Country)
		if status.Restricted() {
			return nil, fmt.Errorf("%w: egress IP %s is still in %s, switch the proxy to global mode", ErrRegionRestricted, status.IP, status.Country)
		}
	}

	provider, err := NewProvider(ctx, cfg, httpClient)
	if err != nil {
		return nil, Classify(cfg.Provider, err)
	}
	log.Infof("[AI] %s client ready (model %s)", provider.Name(), provider.Model())
	return provider, nil
}
