package service

import (
	"context"
	"strings"

	"amanai-be/internal/dto"
	"amanai-be/internal/pkg/logger"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/llm"
	"amanai-be/pkg/sessioncontext"
)

const chatSystemPrompt = `You are the Aman AI assistant for doctors in Kazakhstan.
You help with consultations, SOAP documentation, blood marker interpretation and genetic reports.
Answer in the language of the last user message (Russian, Kazakh or English).
Be concise and clinically precise. Never invent patient data. If a question needs a physical
examination or a laboratory test, say so.`

type chatRoute struct {
	label    string
	path     string
	keywords []string
}

// chatRoutes are matched against the latest user message, in order.
var chatRoutes = []chatRoute{
	{
		label:    "Consultation",
		path:     "/dashboard/consultation",
		keywords: []string{"консультац", "приём", "прием", "запис", "кеңес", "consultation", "record", "soap"},
	},
	{
		label:    "Blood analysis",
		path:     "/dashboard/blood",
		keywords: []string{"кров", "анализ", "маркер", "қан", "blood", "marker", "lab"},
	},
	{
		label:    "Genetics",
		path:     "/dashboard/genetics",
		keywords: []string{"генет", "днк", "генетика", "gene", "genetic", "dna"},
	},
	{
		label:    "Reports",
		path:     "/dashboard/reports",
		keywords: []string{"отчет", "отчёт", "pdf", "есеп", "report"},
	},
	{
		label:    "Patients",
		path:     "/dashboard/patients",
		keywords: []string{"пациент", "науқас", "patient"},
	},
}

type IChatService interface {
	Chat(ctx context.Context, sessionKey string, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

type chatService struct {
	provider       llm.LLMProvider
	sessionContext ISessionContextService
	logger         logger.ILogger
}

func NewChatService(provider llm.LLMProvider, sessionContext ISessionContextService, log logger.ILogger) IChatService {
	return &chatService{
		provider:       provider,
		sessionContext: sessionContext,
		logger:         log,
	}
}

func (s *chatService) Chat(ctx context.Context, sessionKey string, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, apperror.Validation("Messages are required")
	}
	if s.provider == nil {
		return nil, apperror.NotConfigured("LLM provider not configured")
	}

	contextText := sessioncontext.Sanitize(req.SessionContext)
	if contextText == "" && s.sessionContext != nil {
		contextText = s.sessionContext.Lookup(sessionKey)
	}

	history := make([]llm.Message, 0, len(req.Messages)+1)
	history = append(history, llm.Message{Role: "system", Content: buildChatSystemPrompt(contextText)})
	var lastUser string
	for _, m := range req.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
		if m.Role == "user" {
			lastUser = m.Content
		}
	}

	answer, err := s.provider.Chat(ctx, history, llm.WithTemperature(0.3))
	if err != nil {
		s.logger.Error("ChatService", "LLM request failed", map[string]interface{}{"error": err})
		return nil, apperror.ServiceUnavailable("LLM service unavailable", err)
	}

	return &dto.ChatResponse{
		Message: strings.TrimSpace(answer),
		Actions: matchChatActions(lastUser),
	}, nil
}

func buildChatSystemPrompt(contextText string) string {
	if contextText == "" {
		return chatSystemPrompt
	}
	return chatSystemPrompt + "\n\nContext provided by the doctor for this session:\n" + contextText
}

func matchChatActions(text string) []dto.ChatAction {
	lower := strings.ToLower(text)
	if lower == "" {
		return nil
	}
	var actions []dto.ChatAction
	for _, route := range chatRoutes {
		for _, kw := range route.keywords {
			if strings.Contains(lower, kw) {
				actions = append(actions, dto.ChatAction{Label: route.label, Path: route.path})
				break
			}
		}
	}
	return actions
}
