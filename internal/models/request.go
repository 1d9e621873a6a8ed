package models

type CreateSessionRequest struct {
	ProjectID string `json:"project_id"`
	// Images is the URL-encoded JSON list handed off by the generation
	// workflow. A malformed value opens the session with an empty
	// transcript instead of failing.
	Images string `json:"images"`
}

type SelectImageRequest struct {
	MessageID string `json:"message_id" binding:"required"`
	ImageURL  string `json:"image_url" binding:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
