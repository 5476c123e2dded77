package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckProxy(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		status         int
		wantErr        bool
		wantCountry    string
		wantIP         string
		wantRestricted bool
	}{
		{
			name:        "Allowed region",
			body:        `{"status":"success","country":"Japan","query":"203.0.113.7"}`,
			status:      http.StatusOK,
			wantCountry: "Japan",
			wantIP:      "203.0.113.7",
		},
		{
			name:           "Restricted region",
			body:           `{"country":"China","query":"198.51.100.1"}`,
			status:         http.StatusOK,
			wantCountry:    "China",
			wantIP:         "198.51.100.1",
			wantRestricted: true,
		},
		{
			name:        "Missing fields",
			body:        `{}`,
			status:      http.StatusOK,
			wantCountry: "Unknown",
			wantIP:      "Unknown",
		},
		{
			name:    "Upstream failure",
			body:    `oops`,
			status:  http.StatusBadGateway,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := NewHTTPClient(ProxyConfig{})
			require.NoError(t, err)

			status, err := CheckProxy(context.Background(), client, srv.URL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, status.OK)
			assert.Equal(t, tt.wantCountry, status.Country)
			assert.Equal(t, tt.wantIP, status.IP)
			assert.Equal(t, tt.wantRestricted, status.Restricted())
		})
	}
}

func TestNewHTTPClient_Proxy(t *testing.T) {
	client, err := NewHTTPClient(ProxyConfig{URL: "http://127.0.0.1:7890"})
	require.NoError(t, err)

	transport := client.Transport.(*http.Transport)
	req := httptest.NewRequest(http.MethodGet, "https://generativelanguage.googleapis.com/", nil)
	proxyURL, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7890", proxyURL.Host)

	direct, err := NewHTTPClient(ProxyConfig{})
	require.NoError(t, err)
	assert.Nil(t, direct.Transport.(*http.Transport).Proxy)

	_, err = NewHTTPClient(ProxyConfig{URL: "://bad"})
	assert.Error(t, err)
}

func TestStripProxyEnv(t *testing.T) {
	env := []string{
		"PATH=/usr/bin",
		"http_proxy=http://127.0.0.1:7890",
		"HTTPS_PROXY=http://127.0.0.1:7890",
		"ALL_PROXY=socks5://127.0.0.1:7891",
		"GEMINI_API_KEY=abc",
		"NO_PROXY=localhost",
	}

	got := StripProxyEnv(env)

	assert.Equal(t, []string{"PATH=/usr/bin", "GEMINI_API_KEY=abc", "NO_PROXY=localhost"}, got)
	assert.Len(t, env, 6, "input must not be modified")
}
