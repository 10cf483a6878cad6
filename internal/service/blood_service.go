package service

import (
	"context"

	"amanai-be/internal/pkg/logger"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/bloodnlp"
)

// BloodExtractor is satisfied by *bloodnlp.Client.
type BloodExtractor interface {
	Configured() bool
	Extract(ctx context.Context, filename, contentType string, data []byte) (*bloodnlp.Result, error)
}

type IBloodService interface {
	Extract(ctx context.Context, filename, contentType string, data []byte) (*bloodnlp.Result, error)
	Markers() []bloodnlp.TrackedMarker
}

type bloodService struct {
	extractor BloodExtractor
	logger    logger.ILogger
}

func NewBloodService(extractor BloodExtractor, log logger.ILogger) IBloodService {
	return &bloodService{
		extractor: extractor,
		logger:    log,
	}
}

func (s *bloodService) Extract(ctx context.Context, filename, contentType string, data []byte) (*bloodnlp.Result, error) {
	if !bloodnlp.AllowedContentType(contentType) {
		return nil, apperror.Validation("Invalid file type")
	}
	if s.extractor == nil || !s.extractor.Configured() {
		return nil, apperror.NotConfigured("BLOOD_NLP_URL not configured")
	}

	result, err := s.extractor.Extract(ctx, filename, contentType, data)
	if err != nil {
		s.logger.Error("BloodService", "Marker extraction failed", map[string]interface{}{
			"filename": filename,
			"error":    err,
		})
		return nil, err
	}

	s.logger.Info("BloodService", "Markers extracted", map[string]interface{}{
		"filename": filename,
		"markers":  len(result.Markers),
	})
	return result, nil
}

func (s *bloodService) Markers() []bloodnlp.TrackedMarker {
	return bloodnlp.TrackedMarkers()
}
