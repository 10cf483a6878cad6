package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"amanai-be/internal/dto"
	"amanai-be/internal/pkg/logger"
	"amanai-be/internal/repository/memory"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply   string
	err     error
	history []llm.Message
	options llm.Options
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.history = history
	for _, o := range options {
		o(&f.options)
	}
	return f.reply, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func TestChatUsesStoredSessionContext(t *testing.T) {
	ctx := context.Background()
	contexts := NewSessionContextService(memory.NewSessionContextRepository())
	_, err := contexts.Save(ctx, "sess-1", &dto.SaveSessionContextRequest{Context: "Пациент 45 лет, гипертония"})
	require.NoError(t, err)

	provider := &fakeProvider{reply: "  Откройте раздел анализа крови.  "}
	svc := NewChatService(provider, contexts, logger.NewNopLogger())

	res, err := svc.Chat(ctx, "sess-1", &dto.ChatRequest{
		Messages: []dto.ChatMessage{{Role: "user", Content: "Где загрузить анализ крови?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Откройте раздел анализа крови.", res.Message)
	require.NotEmpty(t, res.Actions)
	assert.Equal(t, "/dashboard/blood", res.Actions[0].Path)

	require.Len(t, provider.history, 2)
	assert.Equal(t, "system", provider.history[0].Role)
	assert.Contains(t, provider.history[0].Content, "Пациент 45 лет, гипертония")
}

func TestChatRequestContextOverridesStored(t *testing.T) {
	ctx := context.Background()
	contexts := NewSessionContextService(memory.NewSessionContextRepository())
	_, _ = contexts.Save(ctx, "sess-1", &dto.SaveSessionContextRequest{Context: "stored"})

	provider := &fakeProvider{reply: "ok"}
	svc := NewChatService(provider, contexts, logger.NewNopLogger())

	_, err := svc.Chat(ctx, "sess-1", &dto.ChatRequest{
		Messages:       []dto.ChatMessage{{Role: "user", Content: "hi"}},
		SessionContext: "from request",
	})
	require.NoError(t, err)
	assert.Contains(t, provider.history[0].Content, "from request")
	assert.NotContains(t, provider.history[0].Content, "stored")
}

func TestChatErrors(t *testing.T) {
	ctx := context.Background()

	svc := NewChatService(&fakeProvider{}, nil, logger.NewNopLogger())
	_, err := svc.Chat(ctx, "", &dto.ChatRequest{})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	svc = NewChatService(&fakeProvider{err: errors.New("boom")}, nil, logger.NewNopLogger())
	_, err = svc.Chat(ctx, "", &dto.ChatRequest{Messages: []dto.ChatMessage{{Role: "user", Content: "hi"}}})
	assert.Equal(t, apperror.KindServiceUnavailable, apperror.KindOf(err))
}

func TestMatchChatActions(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		paths []string
	}{
		{"russian consultation", "Начать консультацию", []string{"/dashboard/consultation"}},
		{"kazakh blood", "Қан талдауы", []string{"/dashboard/blood"}},
		{"english report and genetics", "Download the genetic REPORT", []string{"/dashboard/genetics", "/dashboard/reports"}},
		{"no match", "Добрый день", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var paths []string
			for _, a := range matchChatActions(tt.text) {
				paths = append(paths, a.Path)
			}
			assert.Equal(t, tt.paths, paths)
		})
	}
}

func TestSessionContextSaveTruncates(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionContextService(memory.NewSessionContextRepository())

	res, err := svc.Save(ctx, "sess-1", &dto.SaveSessionContextRequest{Context: strings.Repeat("ж", 2500)})
	require.NoError(t, err)
	assert.Equal(t, 2000, res.Length)
	assert.Equal(t, 2000, utf8.RuneCountInString(res.Context))

	got, err := svc.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, res.Context, got.Context)

	require.NoError(t, svc.Delete(ctx, "sess-1"))
	got, err = svc.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, got.Context)
	assert.Nil(t, got.UpdatedAt)
}

func TestSessionContextSaveSanitizes(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionContextService(memory.NewSessionContextRepository())

	res, err := svc.Save(ctx, "sess-1", &dto.SaveSessionContextRequest{Context: "  line1\r\n\r\n\r\n\r\nline2\x00  "})
	require.NoError(t, err)
	assert.Equal(t, "line1\n\nline2", res.Context)

	// an empty value clears the entry
	_, err = svc.Save(ctx, "sess-1", &dto.SaveSessionContextRequest{Context: " \x01 "})
	require.NoError(t, err)
	assert.Equal(t, "", svc.Lookup("sess-1"))
}
