package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-photoshoot-gateway/internal/logger"
	"ai-photoshoot-gateway/internal/supabase"
)

// ArchiveService mirrors freshly generated design images from the studio
// backend's ephemeral URLs into our Supabase Storage bucket, so a user's
// designs survive the backend's retention window. Archiving is best-effort
// and never blocks or fails a generation run.
type ArchiveService struct {
	storageClient  *supabase.StorageClient
	realtimeClient *supabase.RealtimeClient
	httpClient     *http.Client
	log            *logger.Logger
}

func NewArchiveService(
	storageClient *supabase.StorageClient,
	realtimeClient *supabase.RealtimeClient,
	log *logger.Logger,
) *ArchiveService {
	return &ArchiveService{
		storageClient:  storageClient,
		realtimeClient: realtimeClient,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// ArchiveDesigns downloads each image URL and uploads it under the user's
// project prefix. Individual failures are logged and skipped; the event is
// published only if at least one image was archived.
func (s *ArchiveService) ArchiveDesigns(ctx context.Context, userID, projectID string, imageURLs []string) {
	// The archive mirrors the project's current design set; anything left
	// under the prefix from an earlier run is cleared first.
	if err := s.storageClient.DeleteProjectFiles(userID, projectID); err != nil {
		s.log.Warn("failed to clear stale archive",
			"project_id", projectID,
			"error", err)
	}

	storageURLs := make([]string, 0, len(imageURLs))
	for i, imageURL := range imageURLs {
		data, contentType, err := s.download(ctx, imageURL)
		if err != nil {
			s.log.Warn("failed to download design for archive",
				"project_id", projectID,
				"image_url", imageURL,
				"error", err)
			continue
		}

		filename := fmt.Sprintf("design_%02d_%s%s", i+1,
			time.Now().Format("20060102_150405"), extensionFor(contentType))

		storagePath, storageURL, err := s.storageClient.UploadDesign(userID, projectID, filename, contentType, data)
		if err != nil {
			s.log.Warn("failed to archive design",
				"project_id", projectID,
				"filename", filename,
				"error", err)
			continue
		}

		s.log.Debug("archived design", "path", storagePath)
		storageURLs = append(storageURLs, storageURL)
	}

	if len(storageURLs) == 0 {
		return
	}

	s.log.Info("archived designs",
		"project_id", projectID,
		"count", len(storageURLs))

	if s.realtimeClient != nil {
		if err := s.realtimeClient.PublishProjectEvent(userID, projectID, "archive_ready",
			supabase.ArchiveReadyPayload(projectID, storageURLs)); err != nil {
			s.log.Warn("failed to publish archive event",
				"project_id", projectID,
				"error", err)
		}
	}
}

func (s *ArchiveService) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
