package supabase

import (
	"github.com/supabase-community/supabase-go"
)

// RealtimeClient publishes workflow progress to the dashboard. Events are
// written as rows to the workflow_events table; Supabase Realtime streams
// inserts to subscribed clients, so a row insert is the publish.
type RealtimeClient struct {
	client *supabase.Client
}

const eventsTable = "workflow_events"

type workflowEvent struct {
	UserID  string                 `json:"user_id"`
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(userID, channel, event string, payload map[string]interface{}) error {
	row := workflowEvent{
		UserID:  userID,
		Channel: channel,
		Event:   event,
		Payload: payload,
	}
	_, _, err := r.client.From(eventsTable).Insert(row, false, "", "minimal", "").Execute()
	return err
}

func (r *RealtimeClient) PublishProductEvent(userID, productID, event string, payload map[string]interface{}) error {
	return r.PublishEvent(userID, "product:"+productID, event, payload)
}

func (r *RealtimeClient) PublishProjectEvent(userID, projectID, event string, payload map[string]interface{}) error {
	return r.PublishEvent(userID, "project:"+projectID, event, payload)
}

// Event payloads
func StageChangedPayload(stage, message string) map[string]interface{} {
	return map[string]interface{}{
		"stage":   stage,
		"message": message,
	}
}

func ProductReadyPayload(productID, bgRemovedImageURL string) map[string]interface{} {
	return map[string]interface{}{
		"product_id":           productID,
		"bg_removed_image_url": bgRemovedImageURL,
	}
}

func DesignsReadyPayload(projectID string, imageURLs []string) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID,
		"stage":      "complete",
		"image_urls": imageURLs,
	}
}

func ArchiveReadyPayload(projectID string, storageURLs []string) map[string]interface{} {
	return map[string]interface{}{
		"project_id":   projectID,
		"storage_urls": storageURLs,
	}
}
