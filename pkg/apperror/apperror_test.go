package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedError(t *testing.T) {
	base := Conflict("Only active encounters can be paused")
	wrapped := fmt.Errorf("pause encounter: %w", base)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, "Only active encounters can be paused", MessageOf(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "boom", MessageOf(errors.New("boom")))
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindNotFound, http.StatusNotFound},
		{KindForbidden, http.StatusForbidden},
		{KindNotConfigured, http.StatusServiceUnavailable},
		{KindServiceUnavailable, http.StatusBadGateway},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.kind))
		})
	}
}

func TestNegotiateLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", LangRussian},
		{"kk-KZ,kk;q=0.9", LangKazakh},
		{"en-US,en;q=0.8", LangEnglish},
		{"ru-RU", LangRussian},
		{"de-DE", LangRussian},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, NegotiateLanguage(tt.header))
		})
	}
}

func TestLocalizeCoversAllLanguages(t *testing.T) {
	err := ServiceUnavailable("service unavailable", errors.New("dial tcp: refused"))

	all := Trilingual(err)
	assert.Len(t, all, 3)
	for lang, msg := range all {
		assert.NotEmpty(t, msg, lang)
	}
	assert.Equal(t, all[LangEnglish], Localize(err, LangEnglish))
	assert.Equal(t, all[LangRussian], Localize(err, "fr"))
}

func TestLocalizeKeepsUserFacingMessages(t *testing.T) {
	shown := NewUserFacing(KindServiceUnavailable, "Аудио слишком короткое")
	assert.Equal(t, "Аудио слишком короткое", Localize(shown, LangEnglish))
	assert.True(t, errors.Is(shown, ErrServiceUnavailable))

	internal := PermissionDenied("microphone access failed", errors.New("NotAllowedError"))
	assert.Equal(t, LocalizeKind(KindPermissionDenied, LangRussian), Localize(internal, LangRussian))
}
