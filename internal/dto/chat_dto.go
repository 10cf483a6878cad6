package dto

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type ChatRequest struct {
	Messages       []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	SessionContext string        `json:"sessionContext"`
}

type ChatAction struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

type ChatResponse struct {
	Message string       `json:"message"`
	Actions []ChatAction `json:"actions,omitempty"`
}
