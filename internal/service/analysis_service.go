package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"amanai-be/internal/pkg/logger"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/llm"
)

const (
	MinAudioBytes      = 1000
	minTranscriptRunes = 20

	soapTemperature = 0.1
	soapMaxTokens   = 4000

	StageTranscribing = "transcribing"
	StageAnalyzing    = "analyzing"
)

const (
	msgAudioTooSmall     = "Audio data too small. Please record a longer conversation."
	msgSpeechUnreadable  = "Не удалось распознать речь. Убедитесь в качестве записи."
	msgStructuringFailed = "Анализ завершен, но структурирование данных не удалось."
)

const soapSystemPrompt = `You are a medical documentation assistant. Analyze the doctor-patient conversation and generate a structured medical note in SOAP format.

Identify speakers as SPEAKER_0, SPEAKER_1, etc. Try to determine who is the doctor and who is the patient based on context.

Return a JSON object with these fields:
{
    "subjective": "Patient's reported symptoms, complaints, and history",
    "objective": "Observable findings, vital signs mentioned, physical examination notes",
    "assessment": "Primary diagnosis or clinical impression based on the conversation",
    "differentialDiagnosis": "Alternative diagnoses if mentioned or implied",
    "plan": "Treatment plan, medications, recommendations, follow-up instructions",
    "generalCondition": "Overall patient condition summary",
    "dialogueProtocol": "Full dialogue with speaker labels (SPEAKER_0: text, SPEAKER_1: text)",
    "recommendations": "Summary of all recommendations given",
    "conclusion": "Brief conclusion statement"
}

Be thorough and accurate. Extract all relevant medical information from the conversation.
If information for a field is not available, leave it empty but include the field.
Respond ONLY with the JSON object, no additional text.`

// AnalysisResult is the payload of a completed analysis frame.
type AnalysisResult struct {
	Result   map[string]interface{}
	Language string
}

type IAnalysisService interface {
	// Analyze transcribes audio and structures it as a SOAP note. progress is
	// called with the stage name before each upstream call and may be nil.
	Analyze(ctx context.Context, audio []byte, progress func(stage string)) (*AnalysisResult, error)
}

type analysisService struct {
	transcriber llm.Transcriber
	provider    llm.LLMProvider
	soapModel   string
	logger      logger.ILogger
}

func NewAnalysisService(transcriber llm.Transcriber, provider llm.LLMProvider, soapModel string, log logger.ILogger) IAnalysisService {
	return &analysisService{
		transcriber: transcriber,
		provider:    provider,
		soapModel:   soapModel,
		logger:      log,
	}
}

func (s *analysisService) Analyze(ctx context.Context, audio []byte, progress func(stage string)) (*AnalysisResult, error) {
	if progress == nil {
		progress = func(string) {}
	}
	if len(audio) < MinAudioBytes {
		return nil, apperror.Validation(msgAudioTooSmall)
	}
	if s.transcriber == nil || s.provider == nil {
		return nil, apperror.NotConfigured("GROQ_API_KEY not configured")
	}

	progress(StageTranscribing)
	// empty language lets Whisper detect it
	tr, err := s.transcriber.Transcribe(ctx, audioFilename(audio), audio, "")
	if err != nil {
		return nil, apperror.ServiceUnavailable(fmt.Sprintf("Transcription failed: %v", err), err)
	}

	transcript := tr.Text
	language := tr.Language
	if language == "" {
		language = "unknown"
	}
	s.logger.Info("AnalysisService", "Transcription complete", map[string]interface{}{
		"language": language,
		"length":   utf8.RuneCountInString(transcript),
	})

	if utf8.RuneCountInString(transcript) < minTranscriptRunes {
		return nil, apperror.Validation(msgSpeechUnreadable)
	}

	progress(StageAnalyzing)
	result, err := s.soap(ctx, transcript)
	if err != nil {
		return nil, err
	}

	if v, _ := result["dialogueProtocol"].(string); strings.TrimSpace(v) == "" {
		result["dialogueProtocol"] = transcript
	}

	return &AnalysisResult{Result: result, Language: language}, nil
}

func (s *analysisService) soap(ctx context.Context, transcript string) (map[string]interface{}, error) {
	opts := []llm.Option{llm.WithTemperature(soapTemperature), llm.WithMaxTokens(soapMaxTokens)}
	if s.soapModel != "" {
		opts = append(opts, llm.WithModel(s.soapModel))
	}

	content, err := s.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: soapSystemPrompt},
		{Role: "user", Content: "Analyze this medical consultation transcript:\n\n" + transcript},
	}, opts...)
	if err != nil {
		return nil, apperror.ServiceUnavailable(fmt.Sprintf("Analysis failed: %v", err), err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &result); err != nil || result == nil {
		s.logger.Warn("AnalysisService", "LLM response is not JSON", map[string]interface{}{
			"length": len(content),
		})
		return fallbackAnalysis(transcript), nil
	}
	return result, nil
}

// stripCodeFence extracts the body of a ```json or bare ``` markdown block.
func stripCodeFence(content string) string {
	for _, fence := range []string{"```json", "```"} {
		if idx := strings.Index(content, fence); idx >= 0 {
			rest := content[idx+len(fence):]
			if end := strings.Index(rest, "```"); end >= 0 {
				rest = rest[:end]
			}
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(content)
}

func fallbackAnalysis(transcript string) map[string]interface{} {
	return map[string]interface{}{
		"dialogueProtocol": transcript,
		"generalCondition": "",
		"recommendations":  "",
		"conclusion":       msgStructuringFailed,
		"subjective":       "",
		"objective":        "",
		"assessment":       "",
		"plan":             "",
	}
}

func audioFilename(audio []byte) string {
	if bytes.HasPrefix(audio, []byte("RIFF")) {
		return "audio.wav"
	}
	return "audio.webm"
}
