package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RestrictedCountry is the egress location the AI providers refuse to serve.
const RestrictedCountry = "China"

// proxyEnvKeys are stripped from the scraper's environment so the browser
// always connects directly.
var proxyEnvKeys = []string{"http_proxy", "https_proxy", "all_proxy", "HTTP_PROXY", "HTTPS_PROXY", "ALL_PROXY"}

// ProxyConfig describes how outbound AI traffic leaves this machine.
// An empty URL means a direct connection.
type ProxyConfig struct {
	URL     string
	Timeout time.Duration
}

// ProxyStatus is the result of a geo-IP lookup made through the proxy
type ProxyStatus struct {
	OK      bool
	Country string
	IP      string
}

// Restricted reports whether the egress IP sits in a region the AI
// provider blocks.
func (s ProxyStatus) Restricted() bool {
	return s.Country == RestrictedCountry
}

// NewHTTPClient builds a client that routes through cfg.URL. It never
// consults the process environment.
func NewHTTPClient(cfg ProxyConfig) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:                 nil,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if cfg.URL != "" {
		proxyURL, err := url.Parse(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", cfg.URL, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// CheckProxy asks a geo-IP service (ip-api.com compatible) where requests
// made through client appear to come from.
func CheckProxy(ctx context.Context, client *http.Client, checkURL string) (ProxyStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checkURL, nil)
	if err != nil {
		return ProxyStatus{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return ProxyStatus{}, fmt.Errorf("proxy check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ProxyStatus{}, fmt.Errorf("proxy check returned status %d", resp.StatusCode)
	}

	var body struct {
		Country string `json:"country"`
		Query   string `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ProxyStatus{}, fmt.Errorf("failed to decode proxy check response: %w", err)
	}

	status := ProxyStatus{OK: true, Country: "Unknown", IP: "Unknown"}
	if body.Country != "" {
		status.Country = body.Country
	}
	if body.Query != "" {
		status.IP = body.Query
	}
	return status, nil
}

// StripProxyEnv returns a copy of env without any proxy variables.
func StripProxyEnv(env []string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		key, _, _ := strings.Cut(kv, "=")
		if isProxyKey(key) {
			continue
		}
		out = append(out, kv)
	}
	return out
}

func isProxyKey(key string) bool {
	for _, k := range proxyEnvKeys {
		if key == k {
			return true
		}
	}
	return false
}
