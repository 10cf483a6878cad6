package factory

import (
	"amanai-be/pkg/llm"
	"amanai-be/pkg/llm/groq"
	"amanai-be/pkg/llm/ollama"
	"fmt"
)

type Config struct {
	Provider     string
	Model        string
	BaseURL      string
	APIKey       string
	WhisperModel string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "", "groq":
		return groq.NewGroqProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.WhisperModel), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
