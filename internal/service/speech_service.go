package service

import (
	"context"
	"strings"

	"amanai-be/internal/dto"
	"amanai-be/internal/pkg/logger"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/stt"
)

// SpeechRecognizer is satisfied by *stt.Client.
type SpeechRecognizer interface {
	Configured() bool
	Recognize(ctx context.Context, audio []byte, lang string) (string, error)
}

type ISpeechService interface {
	SpeechToText(ctx context.Context, audio []byte, lang string) (*dto.SpeechToTextResponse, error)
}

type speechService struct {
	recognizer SpeechRecognizer
	logger     logger.ILogger
}

func NewSpeechService(recognizer SpeechRecognizer, log logger.ILogger) ISpeechService {
	return &speechService{
		recognizer: recognizer,
		logger:     log,
	}
}

func (s *speechService) SpeechToText(ctx context.Context, audio []byte, lang string) (*dto.SpeechToTextResponse, error) {
	if s.recognizer == nil || !s.recognizer.Configured() {
		return nil, apperror.NotConfigured("YANDEX_SPEECH_API_KEY not configured")
	}
	if len(audio) == 0 {
		return nil, apperror.Validation("Audio file is required")
	}
	if strings.TrimSpace(lang) == "" {
		lang = stt.DefaultLanguage
	}

	text, err := s.recognizer.Recognize(ctx, audio, lang)
	if err != nil {
		s.logger.Warn("SpeechService", "Recognition failed", map[string]interface{}{
			"lang":  lang,
			"error": err.Error(),
		})
		return nil, err
	}

	return &dto.SpeechToTextResponse{Text: text, Language: lang}, nil
}
