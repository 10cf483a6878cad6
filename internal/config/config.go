package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Keys     APIKeys
	Ai       AIConfig
	Report   ReportConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	PublicBaseURL      string
	Environment        string
	LogFilePath        string
	NotificationLog    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	Groq           string
	YandexSpeech   string
	YandexFolderID string
	BloodNLPURL    string
}

type AIConfig struct {
	LLMProvider   string // "groq" or "ollama"
	LLMModel      string
	GroqBaseURL   string
	OllamaBaseURL string
	WhisperModel  string
	SoapModel     string
}

type ReportConfig struct {
	FontPath    string
	LogoPath    string
	OutputDir   string
	RenderTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "https://amanai.kz"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			NotificationLog:    getEnv("NOTIFICATION_LOG_FILE_PATH", "logs/notification.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://amanai.kz"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Aman AI"),
		},
		Keys: APIKeys{
			Groq:           getEnv("GROQ_API_KEY", ""),
			YandexSpeech:   getEnv("YANDEX_API_KEY", ""),
			YandexFolderID: getEnv("YANDEX_FOLDER_ID", ""),
			BloodNLPURL:    getEnv("BLOOD_NLP_URL", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "groq"),
			LLMModel:      getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
			GroqBaseURL:   getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			WhisperModel:  getEnv("WHISPER_MODEL", "whisper-large-v3"),
			SoapModel:     getEnv("SOAP_MODEL", "llama-3.3-70b-versatile"),
		},
		Report: ReportConfig{
			FontPath:    getEnv("REPORT_FONT_PATH", ""),
			LogoPath:    getEnv("REPORT_LOGO_PATH", ""),
			OutputDir:   getEnv("REPORT_OUTPUT_DIR", "./uploads/reports"),
			RenderTopic: getEnv("RENDER_REPORT_TOPIC", "RENDER_REPORT_PDF"),
		},
	}
}

// IsProduction switches the console logger to JSON.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// TracingEnabled mirrors OTEL_ENABLED.
func TracingEnabled() bool {
	return getEnvAsBool("OTEL_ENABLED", false)
}
