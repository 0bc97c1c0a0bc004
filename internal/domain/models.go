// Package domain holds the core types of the chat persistence model.
package domain

import "time"

// DefaultTitle is the title of a session nobody has named yet.
const DefaultTitle = "New Chat"

// Session is a conversation container.
type Session struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	UserID       *string   `json:"user_id,omitempty" db:"user_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	MessageCount int       `json:"message_count" db:"message_count"`
	Metadata     Metadata  `json:"metadata" db:"metadata"`
	Tags         Tags      `json:"tags" db:"tags"`
}

// Message is one turn in a session.
type Message struct {
	ID             string    `json:"id" db:"id"`
	SessionID      string    `json:"session_id" db:"session_id"`
	Role           Role      `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	SequenceNumber int       `json:"sequence_number" db:"sequence_number"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	ModelUsed      *string   `json:"model_used,omitempty" db:"model_used"`
	TokensUsed     *int      `json:"tokens_used,omitempty" db:"tokens_used"`
	ResponseTimeMs *int      `json:"response_time_ms,omitempty" db:"response_time_ms"`
	SearchQuery    *string   `json:"search_query,omitempty" db:"search_query"`
	SourcesCount   int       `json:"sources_count" db:"sources_count"`
	FeedbackRating *int      `json:"feedback_rating,omitempty" db:"feedback_rating"`
	FeedbackText   *string   `json:"feedback_text,omitempty" db:"feedback_text"`
	IsHelpful      *bool     `json:"is_helpful,omitempty" db:"is_helpful"`
	Metadata       Metadata  `json:"metadata" db:"metadata"`

	Sources []Source `json:"sources" db:"-"`
}

// MessageMeta carries the optional generation fields of a message.
type MessageMeta struct {
	ModelUsed      *string
	TokensUsed     *int
	ResponseTimeMs *int
	SearchQuery    *string
	Metadata       Metadata
}

// Source is a citation attached to an assistant message.
type Source struct {
	ID             string     `json:"id" db:"id"`
	MessageID      string     `json:"message_id" db:"message_id"`
	Title          string     `json:"title" db:"title"`
	URL            string     `json:"url" db:"url"`
	Snippet        string     `json:"snippet" db:"snippet"`
	Domain         string     `json:"domain" db:"domain"`
	FaviconURL     string     `json:"favicon_url" db:"favicon_url"`
	PublishedDate  *time.Time `json:"published_date,omitempty" db:"published_date"`
	RelevanceScore float64    `json:"relevance_score" db:"relevance_score"`
	DisplayOrder   int        `json:"display_order" db:"display_order"`
	ContentType    string     `json:"content_type" db:"content_type"`
	WordCount      *int       `json:"word_count,omitempty" db:"word_count"`
	Language       string     `json:"language" db:"language"`
	ClickCount     int        `json:"click_count" db:"click_count"`
	LastClickedAt  *time.Time `json:"last_clicked_at,omitempty" db:"last_clicked_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	Metadata       Metadata   `json:"metadata" db:"metadata"`
}

// SessionDetail is a session with its ordered messages and their sources.
type SessionDetail struct {
	Session
	Messages []Message `json:"messages"`
}

// User is a credential-backed account.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Feedback is one user reaction to a message.
type Feedback struct {
	ID           string       `json:"id" db:"id"`
	MessageID    string       `json:"message_id" db:"message_id"`
	SessionID    string       `json:"session_id" db:"session_id"`
	FeedbackType FeedbackType `json:"feedback_type" db:"feedback_type"`
	Rating       *int         `json:"rating,omitempty" db:"rating"`
	Text         *string      `json:"text,omitempty" db:"text"`
	IsHelpful    *bool        `json:"is_helpful,omitempty" db:"is_helpful"`
	UserAgent    string       `json:"user_agent" db:"user_agent"`
	Browser      string       `json:"browser" db:"browser"`
	OS           string       `json:"os" db:"os"`
	Device       string       `json:"device" db:"device"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// SearchRecord is one search performed for a chat question.
type SearchRecord struct {
	ID               string    `json:"id" db:"id"`
	SessionID        *string   `json:"session_id,omitempty" db:"session_id"`
	Query            string    `json:"query" db:"query"`
	ResultsCount     int       `json:"results_count" db:"results_count"`
	SearchDurationMs int       `json:"search_duration_ms" db:"search_duration_ms"`
	Provider         string    `json:"provider" db:"provider"`
	ProviderMetadata Metadata  `json:"provider_metadata" db:"provider_metadata"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// DomainCount is a cited domain and how many sources point at it.
type DomainCount struct {
	Domain string `json:"domain" db:"domain"`
	Count  int    `json:"count" db:"count"`
}

// AnalyticsSummary backs the analytics dashboard.
type AnalyticsSummary struct {
	TotalSessions       int            `json:"total_sessions"`
	ActiveSessions      int            `json:"active_sessions"`
	TotalMessages       int            `json:"total_messages"`
	TotalSources        int            `json:"total_sources"`
	TotalSourceClicks   int            `json:"total_source_clicks"`
	TotalSearches       int            `json:"total_searches"`
	AvgSearchDurationMs float64        `json:"avg_search_duration_ms"`
	TopDomains          []DomainCount  `json:"top_domains"`
	Feedback            map[string]int `json:"feedback"`
}

// SessionEvent is pushed to live subscribers of a session.
type SessionEvent struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp int64     `json:"ts"`
}
