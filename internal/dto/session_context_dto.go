package dto

import "time"

type SaveSessionContextRequest struct {
	Context string `json:"context"`
}

type SessionContextResponse struct {
	Context   string     `json:"context"`
	Length    int        `json:"length"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
