package call

import (
	"context"

	"github.com/gilangrmdn/preptalk/internal/models"
)

// Transport is the control surface of the vendor voice SDK. The SDK itself is
// opaque; the session only starts and stops it and consumes its events.
type Transport interface {
	Start(ctx context.Context, sessionID string, variables map[string]string) error
	Stop() error
}

type EventType string

const (
	EventCallStart   EventType = "call-start"
	EventCallEnd     EventType = "call-end"
	EventTranscript  EventType = "transcript"
	EventSpeechStart EventType = "speech-start"
	EventSpeechEnd   EventType = "speech-end"
	EventError       EventType = "error"
)

const (
	TranscriptFinal   = "final"
	TranscriptPartial = "partial"
)

// Event is one callback delivered by the voice transport.
type Event struct {
	Type EventType

	// transcript events
	Speaker        models.Speaker
	Text           string
	TranscriptType string

	// error events
	Err error
}

// Config carries the externally provisioned voice-session identifiers.
// WorkflowID drives setup calls, AssistantID drives structured interviews.
type Config struct {
	WorkflowID  string
	AssistantID string
}
