package models

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// TranscriptEntry is one finalized utterance from the live call.
type TranscriptEntry struct {
	Speaker Speaker `json:"role"`
	Text    string  `json:"content"`
}
