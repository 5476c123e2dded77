package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
)

// GeminiProvider talks to the Gemini API
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini client. When httpClient is set the
// key rides on its transport, since option.WithHTTPClient overrides
// option.WithAPIKey.
func NewGeminiProvider(ctx context.Context, apiKey, model string, httpClient *http.Client) (*GeminiProvider, error) {
	var opts []option.ClientOption
	if httpClient != nil {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Timeout:   httpClient.Timeout,
			Transport: &transport.APIKey{Key: apiKey, Transport: base},
		}))
	} else {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string  { return "gemini" }
func (p *GeminiProvider) Model() string { return p.model }

// Generate asks for an application/json answer
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	model := p.client.GenerativeModel(p.model)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}
