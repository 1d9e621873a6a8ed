package models

import "ai-photoshoot-gateway/internal/chat"

type GenerateResponse struct {
	ProjectID string   `json:"project_id"`
	ImageURLs []string `json:"image_urls"`
	// ImagesParam is the ready-to-use navigation parameter for the chat
	// entry point.
	ImagesParam string `json:"images_param"`
}

type SessionResponse struct {
	SessionID      string         `json:"session_id"`
	ProjectID      string         `json:"project_id"`
	State          string         `json:"state"`
	ActiveImageURL string         `json:"active_image_url,omitempty"`
	Messages       []chat.Message `json:"messages"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
