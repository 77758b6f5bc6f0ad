package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("store horoscope: %w", &ValidationError{Field: "sign", Message: "must be one of the twelve zodiac signs"})

	assert.Equal(t, "store horoscope: validation error on field 'sign': must be one of the twelve zodiac signs", err.Error())
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.NotErrorIs(t, err, ErrInvalidInput)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "sign", ve.Field)
}

func TestProviderError_WithoutCause(t *testing.T) {
	err := NewProviderError("claude", ErrProviderTimeout, nil)
	assert.Equal(t, "claude: provider timeout", err.Error())
	assert.Len(t, err.Unwrap(), 1)
}

func TestProviderError(t *testing.T) {
	cause := errors.New("HTTP 503: upstream overloaded")
	err := fmt.Errorf("generate: %w", NewProviderError("openai", ErrProviderUnavailable, cause))

	assert.True(t, errors.Is(err, ErrProviderUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrProviderRejected))
	assert.Equal(t, "generate: openai: provider unavailable: HTTP 503: upstream overloaded", err.Error())

	var pe *ProviderError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "openai", pe.Provider)
}

func TestProviderErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"timeout", NewProviderError("claude", ErrProviderTimeout, nil), ErrProviderTimeout},
		{"rejected", NewProviderError("runware", ErrProviderRejected, errors.New("nsfw")), ErrProviderRejected},
		{"unavailable", fmt.Errorf("wrap: %w", NewProviderError("deepseek", ErrProviderUnavailable, nil)), ErrProviderUnavailable},
		{"plain error", errors.New("boom"), nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProviderErrorKind(tt.err))
		})
	}
}
