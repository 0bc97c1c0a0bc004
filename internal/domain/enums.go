package domain

import "strings"

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole accepts the stored role names plus the "ai" alias used by the
// web client.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, true
	case "assistant", "ai":
		return RoleAssistant, true
	default:
		return "", false
	}
}

// FeedbackType classifies a piece of user feedback on a message.
type FeedbackType string

const (
	FeedbackThumbsUp   FeedbackType = "thumbs_up"
	FeedbackThumbsDown FeedbackType = "thumbs_down"
	FeedbackReport     FeedbackType = "report"
	FeedbackSuggestion FeedbackType = "suggestion"
)

// Valid reports whether t is a known feedback type.
func (t FeedbackType) Valid() bool {
	switch t {
	case FeedbackThumbsUp, FeedbackThumbsDown, FeedbackReport, FeedbackSuggestion:
		return true
	}
	return false
}

// EventType is the kind of a live session event.
type EventType string

const (
	EventMessageAppended EventType = "message_appended"
	EventSourcesAttached EventType = "sources_attached"
	EventSessionRenamed  EventType = "session_renamed"
	EventSessionArchived EventType = "session_archived"
	EventSessionDeleted  EventType = "session_deleted"
)
