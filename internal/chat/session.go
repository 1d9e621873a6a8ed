// Package chat implements the edit loop over a generated design set: an
// append-only typed transcript, a single active selection, and strictly
// serialized edit requests against the studio backend.
package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"ai-photoshoot-gateway/internal/logger"
	"ai-photoshoot-gateway/internal/studio"
)

// State is the session's position in the edit loop. An in-flight edit is a
// first-class state: a second submit while one is outstanding is rejected
// by the state machine, not by a disabled control.
type State string

const (
	StateNoSelection  State = "no-selection"
	StateSelected     State = "selected"
	StateAwaitingEdit State = "awaiting-edit"
)

var (
	ErrEditInFlight    = errors.New("an edit request is already in flight")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotImageGrid    = errors.New("message is not an image grid")
	ErrImageNotInGrid  = errors.New("image is not part of that message")
	ErrEmptySubmission = errors.New("message text is empty")
)

const (
	welcomeText      = "I've generated some creative product photography concepts for you! Click on any image below to select it, then tell me how you'd like to edit it."
	confirmationText = "Perfect! I've selected that image. Now tell me how you'd like to edit it - for example: 'change the background to a modern kitchen' or 'make the lighting more dramatic'."
	thinkingText     = "Let me edit that image for you..."
	followupText     = "Here's your edited image! You can select it and ask for more changes, or choose a different image from above to work with."
	selectFirstText  = "Please first select an image from above by clicking on it, then I can help you edit it!"
	apologyText      = "Sorry, I had trouble processing that request. Please try again."
)

type Session struct {
	ID        string
	ProjectID string
	UserID    string

	mu             sync.Mutex
	state          State
	activeDesignID string
	activeImageURL string
	messages       []Message

	log *logger.Logger
}

// NewSession seeds the transcript from the handoff image list. An empty
// list yields an empty transcript, not an error.
func NewSession(userID, projectID string, imageURLs []string, log *logger.Logger) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		UserID:    userID,
		state:     StateNoSelection,
	}
	s.log = log.With("session_id", s.ID)
	if len(imageURLs) > 0 {
		s.messages = append(s.messages,
			newTextMessage(welcomeText, SenderAI),
			newImageGridMessage(imageURLs),
		)
	}
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) ActiveImageURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeImageURL
}

// Messages returns a snapshot of the transcript in append order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}

// Select marks one image of a grid message as the active edit target. Any
// previous selection anywhere in the transcript is cleared, keeping at most
// one image selected transcript-wide. A confirmation message is appended
// and the session moves to Selected.
func (s *Session) Select(messageID, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAwaitingEdit {
		return ErrEditInFlight
	}

	var target *ImageGridMessage
	for _, msg := range s.messages {
		grid, ok := msg.(*ImageGridMessage)
		if !ok {
			continue
		}
		if grid.ID == messageID {
			target = grid
		}
	}
	if target == nil {
		for _, msg := range s.messages {
			if text, ok := msg.(*TextMessage); ok && text.ID == messageID {
				return ErrNotImageGrid
			}
		}
		return ErrMessageNotFound
	}

	index := -1
	for i, url := range target.Images {
		if url == imageURL {
			index = i
			break
		}
	}
	if index < 0 {
		return ErrImageNotInGrid
	}

	for _, msg := range s.messages {
		if grid, ok := msg.(*ImageGridMessage); ok {
			grid.SelectedImageIndex = nil
		}
	}
	target.SelectedImageIndex = &index

	s.activeDesignID = "design-" + uuid.NewString()
	s.activeImageURL = imageURL
	s.state = StateSelected

	s.messages = append(s.messages, newTextMessage(confirmationText, SenderAI))
	return nil
}

// Submit handles one free-text message. With no selection it appends an
// advisory reply and performs no network call. With a selection it appends
// the user message plus a thinking placeholder, issues the edit, and on
// resolution replaces the placeholder with the result pair (edited image
// grid + follow-up) or an apology. Edits are serialized per session: a
// submit while one is outstanding returns ErrEditInFlight.
func (s *Session) Submit(ctx context.Context, sc *studio.Client, text string) error {
	s.mu.Lock()
	if text == "" {
		s.mu.Unlock()
		return ErrEmptySubmission
	}
	if s.state == StateAwaitingEdit {
		s.mu.Unlock()
		return ErrEditInFlight
	}

	s.messages = append(s.messages, newTextMessage(text, SenderUser))

	if s.state == StateNoSelection {
		s.messages = append(s.messages, newTextMessage(selectFirstText, SenderAI))
		s.mu.Unlock()
		return nil
	}

	s.messages = append(s.messages, newTextMessage(thinkingText, SenderAI))
	s.state = StateAwaitingEdit
	designID := s.activeDesignID
	baseImageURL := s.activeImageURL
	s.mu.Unlock()

	editedURL, err := sc.EditImage(ctx, designID, text, baseImageURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The placeholder is always the last element: no other transcript
	// mutation is permitted while the edit is outstanding.
	s.messages = s.messages[:len(s.messages)-1]
	s.state = StateSelected

	if err != nil {
		s.log.Error("image edit failed",
			"project_id", s.ProjectID,
			"error", err)
		s.messages = append(s.messages, newTextMessage(apologyText, SenderAI))
		return nil
	}

	s.messages = append(s.messages,
		newImageGridMessage([]string{editedURL}),
		newTextMessage(followupText, SenderAI),
	)
	s.activeImageURL = editedURL
	return nil
}
