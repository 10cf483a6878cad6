package service

import (
	"context"
	"time"
	"unicode/utf8"

	"amanai-be/internal/dto"
	"amanai-be/internal/repository/memory"
	"amanai-be/pkg/sessioncontext"
)

type ISessionContextService interface {
	Save(ctx context.Context, key string, req *dto.SaveSessionContextRequest) (*dto.SessionContextResponse, error)
	Get(ctx context.Context, key string) (*dto.SessionContextResponse, error)
	Delete(ctx context.Context, key string) error
	// Lookup returns the stored context for key, or "".
	Lookup(key string) string
}

type sessionContextService struct {
	repo *memory.SessionContextRepository
}

func NewSessionContextService(repo *memory.SessionContextRepository) ISessionContextService {
	return &sessionContextService{repo: repo}
}

func (s *sessionContextService) Save(ctx context.Context, key string, req *dto.SaveSessionContextRequest) (*dto.SessionContextResponse, error) {
	clean := sessioncontext.Sanitize(req.Context)
	if clean == "" {
		s.repo.Delete(key)
		return &dto.SessionContextResponse{Context: "", Length: 0}, nil
	}

	sc := &memory.SessionContext{
		Key:       key,
		Context:   clean,
		UpdatedAt: time.Now().UTC(),
	}
	s.repo.Save(sc)
	return toSessionContextResponse(sc), nil
}

func (s *sessionContextService) Get(ctx context.Context, key string) (*dto.SessionContextResponse, error) {
	sc, ok := s.repo.Get(key)
	if !ok {
		return &dto.SessionContextResponse{Context: "", Length: 0}, nil
	}
	return toSessionContextResponse(sc), nil
}

func (s *sessionContextService) Delete(ctx context.Context, key string) error {
	s.repo.Delete(key)
	return nil
}

func (s *sessionContextService) Lookup(key string) string {
	sc, ok := s.repo.Get(key)
	if !ok {
		return ""
	}
	return sc.Context
}

func toSessionContextResponse(sc *memory.SessionContext) *dto.SessionContextResponse {
	updated := sc.UpdatedAt
	return &dto.SessionContextResponse{
		Context:   sc.Context,
		Length:    utf8.RuneCountInString(sc.Context),
		UpdatedAt: &updated,
	}
}
