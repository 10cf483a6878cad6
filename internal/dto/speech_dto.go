package dto

type SpeechToTextResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}
