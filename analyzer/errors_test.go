package analyzer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "Gemini quota status", err: &googleapi.Error{Code: 429, Message: "slow down"}, want: ErrRateLimited},
		{name: "Gemini region", err: &googleapi.Error{Code: 400, Message: "User location is not supported for the API use."}, want: ErrRegionRestricted},
		{name: "Precondition text", err: errors.New("rpc error: FAILED_PRECONDITION"), want: ErrRegionRestricted},
		{name: "OpenAI region code", err: errors.New(`403 Forbidden {"code":"unsupported_country_region_territory"}`), want: ErrRegionRestricted},
		{name: "Quota text", err: errors.New("You exceeded your current quota"), want: ErrRateLimited},
		{name: "Wrapped 429", err: fmt.Errorf("call failed: %w", errors.New("HTTP 429")), want: ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("gemini", tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)

			var pe *ProviderError
			assert.True(t, errors.As(got, &pe))
			assert.Equal(t, "gemini", pe.Provider)
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	assert.Nil(t, Classify("gemini", nil))
	assert.Equal(t, context.Canceled, Classify("gemini", context.Canceled))

	plain := errors.New("connection refused")
	assert.Equal(t, plain, Classify("gemini", plain))

	assert.Equal(t, ErrEmptyResponse, Classify("gemini", ErrEmptyResponse))

	once := Classify("gemini", errors.New("429"))
	assert.Same(t, once, Classify("gemini", once))
}

func TestClassify_ParseFailureIsNotRateLimit(t *testing.T) {
	_, perr := ParseRecommendations("Switch ¥429, quota of 1 per buyer")
	require.Error(t, perr)
	assert.ErrorIs(t, perr, ErrBadResponse)

	err := Classify("gemini", perr)
	assert.Equal(t, perr, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrRegionRestricted)
}

func TestFallbackError(t *testing.T) {
	cause := &ProviderError{Provider: "gemini", Kind: ErrRegionRestricted, Err: errors.New("FAILED_PRECONDITION")}
	err := error(&FallbackError{Cause: cause})

	assert.ErrorIs(t, err, ErrRegionRestricted)
	assert.Contains(t, err.Error(), "local scoring applied")
}
