package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventType discriminates the JSON events exchanged on the channel.
type EventType string

// Server event types.
const (
	EventSessionCreated         EventType = "session.created"
	EventSessionUpdated         EventType = "session.updated"
	EventSpeechStarted          EventType = "input_audio_buffer.speech_started"
	EventSpeechStopped          EventType = "input_audio_buffer.speech_stopped"
	EventAudioCommitted         EventType = "input_audio_buffer.committed"
	EventTranscriptionCompleted EventType = "conversation.item.input_audio_transcription.completed"
	EventResponseCreated        EventType = "response.created"
	EventResponseDone           EventType = "response.done"
	EventAudioDelta             EventType = "response.audio.delta"
	EventAudioDone              EventType = "response.audio.done"
	EventTextDelta              EventType = "response.text.delta"
	EventTextDone               EventType = "response.text.done"
	EventError                  EventType = "error"
)

// Client event types.
const (
	EventSessionUpdate          EventType = "session.update"
	EventInputAudioAppend       EventType = "input_audio_buffer.append"
	EventInputAudioCommit       EventType = "input_audio_buffer.commit"
	EventInputAudioClear        EventType = "input_audio_buffer.clear"
	EventConversationItemCreate EventType = "conversation.item.create"
	EventResponseCreate         EventType = "response.create"
	EventResponseCancel         EventType = "response.cancel"
)

// ServerEvent is one inbound message from the speech service. Only the
// fields relevant to the event's type are populated.
type ServerEvent struct {
	Type EventType `json:"type"`

	// Transcript carries the user's transcribed speech on
	// transcription-completed events.
	Transcript string `json:"transcript,omitempty"`

	// Delta carries base64 PCM on audio deltas and text on text deltas.
	Delta string `json:"delta,omitempty"`

	// Session identifies the session on lifecycle events.
	Session *SessionInfo `json:"session,omitempty"`

	// Error is populated on error events.
	Error *APIEventError `json:"error,omitempty"`
}

// SessionInfo identifies the remote session.
type SessionInfo struct {
	ID string `json:"id"`
}

// APIEventError is the payload of an error event from the service.
type APIEventError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIEventError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime: API error (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("realtime: API error: %s", e.Message)
}

// IsRecoverable reports whether the error is a known transient
// condition that warrants a brief wait instead of terminating the
// session. "Response already in progress" arrives when a response is
// requested while the previous one is still streaming.
func (e *APIEventError) IsRecoverable() bool {
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "already in progress") ||
		strings.Contains(msg, "already has an active response")
}

// ParseServerEvent decodes one inbound message. Unknown event types are
// not an error; the caller decides whether to ignore them.
func ParseServerEvent(data []byte) (*ServerEvent, error) {
	var ev ServerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("realtime: malformed event: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("realtime: event missing type")
	}
	return &ev, nil
}
