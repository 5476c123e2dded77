package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/raushankrgupta/fish-scout/models"
	"google.golang.org/api/googleapi"
)

var (
	// ErrRegionRestricted means the provider refuses requests from the
	// egress location.
	ErrRegionRestricted = errors.New("AI provider is not available in this region")
	// ErrRateLimited means the provider rejected the call for quota reasons
	ErrRateLimited = errors.New("AI provider rate limit reached")
	// ErrEmptyResponse means the provider answered with no text
	ErrEmptyResponse = errors.New("AI provider returned an empty response")
	// ErrBadResponse means the answer could not be parsed as recommendations
	ErrBadResponse = errors.New("failed to parse AI response")
	// ErrNoClient is returned when Analyze runs before Init
	ErrNoClient = errors.New("AI client is not initialised")
	// ErrNoData is returned when there is nothing to analyze
	ErrNoData = errors.New("no listings to analyze")
)

// ProviderError tags a provider failure with its kind
type ProviderError struct {
	Provider string
	Kind     error
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// FallbackError carries the local scoring used in place of the provider
type FallbackError struct {
	Cause           error
	Recommendations []models.Recommendation
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("AI analysis unavailable, local scoring applied: %v", e.Cause)
}

func (e *FallbackError) Unwrap() error { return e.Cause }

// Classify maps a provider SDK error onto ErrRegionRestricted,
// ErrRateLimited or leaves it as is.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pe *ProviderError
	// Parse failures quote the model's answer, which must not be read as
	// a provider message.
	if errors.As(err, &pe) || errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrBadResponse) {
		return err
	}

	kind := classifyStatus(err)
	if kind == nil {
		kind = classifyMessage(err.Error())
	}
	if kind == nil {
		return err
	}
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

func classifyStatus(err error) error {
	status := 0
	var gerr *googleapi.Error
	var oerr *openai.Error
	var aerr *anthropic.Error
	switch {
	case errors.As(err, &gerr):
		status = gerr.Code
	case errors.As(err, &oerr):
		status = oerr.StatusCode
	case errors.As(err, &aerr):
		status = aerr.StatusCode
	}
	if status == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	return nil
}

func classifyMessage(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "FAILED_PRECONDITION"),
		strings.Contains(lower, "location is not supported"),
		strings.Contains(lower, "unsupported_country_region_territory"):
		return ErrRegionRestricted
	case strings.Contains(msg, "429"),
		strings.Contains(lower, "quota"),
		strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return ErrRateLimited
	}
	return nil
}
