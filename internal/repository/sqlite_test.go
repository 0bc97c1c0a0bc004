package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedSession(t *testing.T, store *SQLiteStore, id string) *domain.Session {
	t.Helper()
	now := time.Now().UTC()
	session := &domain.Session{
		ID:        id,
		Title:     domain.DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
		Metadata:  domain.Metadata{"origin": "test"},
		Tags:      domain.Tags{"t1"},
	}
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return session
}

func seedMessage(t *testing.T, store *SQLiteStore, sessionID, id string, role domain.Role, seq int) *domain.Message {
	t.Helper()
	msg := &domain.Message{
		ID:             id,
		SessionID:      sessionID,
		Role:           role,
		Content:        "content " + id,
		SequenceNumber: seq,
		CreatedAt:      time.Now().UTC(),
		Metadata:       domain.Metadata{},
	}
	if err := store.InsertMessage(context.Background(), msg); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}
	return msg
}

func TestSQLiteStoreSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store, "s1")

	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	assert.Equal(t, domain.DefaultTitle, got.Title)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.UserID)
	assert.Equal(t, "test", got.Metadata["origin"])
	assert.Equal(t, domain.Tags{"t1"}, got.Tags)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	_, err = store.GetSession(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSQLiteStoreSequenceNumbers(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store, "s1")

	next, err := store.NextSequenceNumber(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	seedMessage(t, store, "s1", "m1", domain.RoleUser, 1)
	seedMessage(t, store, "s1", "m2", domain.RoleAssistant, 2)

	next, err = store.NextSequenceNumber(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	dup := &domain.Message{
		ID:             "m3",
		SessionID:      "s1",
		Role:           domain.RoleUser,
		Content:        "again",
		SequenceNumber: 2,
		CreatedAt:      time.Now().UTC(),
	}
	err = store.InsertMessage(ctx, dup)
	assert.True(t, errors.Is(err, domain.ErrConflict), "expected conflict, got %v", err)

	session, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, session.MessageCount)
}

func TestSQLiteStoreInsertMessageMissingSession(t *testing.T) {
	store := newTestStore(t)

	err := store.InsertMessage(context.Background(), &domain.Message{
		ID:             "m1",
		SessionID:      "nope",
		Role:           domain.RoleUser,
		Content:        "hi",
		SequenceNumber: 1,
		CreatedAt:      time.Now().UTC(),
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound), "expected not found, got %v", err)
}

func TestSQLiteStoreMessageOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store, "s1")

	for i, id := range []string{"a", "b", "c", "d"} {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		seedMessage(t, store, "s1", id, role, i+1)
	}

	msgs, err := store.ListMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	for i, msg := range msgs {
		assert.Equal(t, i+1, msg.SequenceNumber)
	}

	recent, err := store.RecentMessages(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].ID)
	assert.Equal(t, "d", recent[1].ID)

	first, err := store.FirstUserMessage(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "a", first.ID)

	seedSession(t, store, "empty")
	none, err := store.FirstUserMessage(ctx, "empty")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSQLiteStoreAttachSources(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store, "s1")
	seedMessage(t, store, "s1", "m1", domain.RoleAssistant, 1)

	sources := domain.NormalizeSources([]domain.RawSource{
		{Title: "one", URL: "https://one.example/a"},
		{Title: "two", URL: "https://two.example/b"},
		{Title: "three", URL: "https://three.example/c"},
	})
	require.NoError(t, store.AttachSources(ctx, "m1", sources))
	for _, src := range sources {
		assert.NotEmpty(t, src.ID)
		assert.Equal(t, "m1", src.MessageID)
	}

	byMessage, err := store.ListSources(ctx, []string{"m1"})
	require.NoError(t, err)
	got := byMessage["m1"]
	require.Len(t, got, 3)
	for i, src := range got {
		assert.Equal(t, i+1, src.DisplayOrder)
	}
	assert.Equal(t, "one.example", got[0].Domain)

	msg, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 3, msg.SourcesCount)
}

func TestSQLiteStoreAttachSourcesRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store, "s1")
	seedMessage(t, store, "s1", "m1", domain.RoleAssistant, 1)

	sources := domain.NormalizeSources([]domain.RawSource{
		{Title: "one", URL: "https://one.example"},
		{Title: "two", URL: "https://two.example"},
	})
	sources[1].DisplayOrder = 1

	err := store.AttachSources(ctx, "m1", sources)
	require.Error(t, err)

	byMessage, err := store.ListSources(ctx, []string{"m1"})
	require.NoError(t, err)
	assert.Empty(t, byMessage["m1"])

	msg, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 0, msg.SourcesCount)
}

func TestSQLiteStoreAttachSourcesEmptyAndMissing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store, "s1")
	seedMessage(t, store, "s1", "m1", domain.RoleAssistant, 1)

	require.NoError(t, store.AttachSources(ctx, "m1", nil))
	msg, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 0, msg.SourcesCount)

	err = store.AttachSources(ctx, "missing", domain.NormalizeSources([]domain.RawSource{{Title: "x"}}))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSQLiteStoreDeleteSessionCascades(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store, "s1")
	seedMessage(t, store, "s1", "m1", domain.RoleUser, 1)
	seedMessage(t, store, "s1", "m2", domain.RoleAssistant, 2)
	require.NoError(t, store.AttachSources(ctx, "m2", domain.NormalizeSources([]domain.RawSource{
		{Title: "a", URL: "https://a.example"},
		{Title: "b", URL: "https://b.example"},
	})))

	require.NoError(t, store.DeleteSession(ctx, "s1"))
	require.NoError(t, store.DeleteSession(ctx, "s1"))

	var messages, sources int
	require.NoError(t, store.db.Get(&messages, `SELECT COUNT(*) FROM messages WHERE session_id = ?`, "s1"))
	require.NoError(t, store.db.Get(&sources, `SELECT COUNT(*) FROM message_sources WHERE message_id IN ('m1', 'm2')`))
	assert.Equal(t, 0, messages)
	assert.Equal(t, 0, sources)

	_, err := store.GetSession(ctx, "s1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSQLiteStoreTitleArchiveAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store, "older")
	seedSession(t, store, "newer")

	require.NoError(t, store.UpdateSessionTitle(ctx, "older", "Renamed", time.Now().UTC().Add(time.Second)))

	sessions, err := store.ListRecentSessions(ctx, nil, 20)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "older", sessions[0].ID)
	assert.Equal(t, "Renamed", sessions[0].Title)

	require.NoError(t, store.ArchiveSession(ctx, "newer", time.Now().UTC().Add(2*time.Second)))
	sessions, err = store.ListRecentSessions(ctx, nil, 20)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	err = store.UpdateSessionTitle(ctx, "missing", "x", time.Now().UTC())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	owner := "u1"
	mine, err := store.ListRecentSessions(ctx, &owner, 20)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestSQLiteStoreTrackSourceClick(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store, "s1")
	seedMessage(t, store, "s1", "m1", domain.RoleAssistant, 1)
	sources := domain.NormalizeSources([]domain.RawSource{{Title: "a", URL: "https://a.example"}})
	require.NoError(t, store.AttachSources(ctx, "m1", sources))

	require.NoError(t, store.TrackSourceClick(ctx, sources[0].ID, time.Now().UTC()))
	require.NoError(t, store.TrackSourceClick(ctx, sources[0].ID, time.Now().UTC()))

	byMessage, err := store.ListSources(ctx, []string{"m1"})
	require.NoError(t, err)
	assert.Equal(t, 2, byMessage["m1"][0].ClickCount)
	assert.NotNil(t, byMessage["m1"][0].LastClickedAt)

	err = store.TrackSourceClick(ctx, "missing", time.Now().UTC())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSQLiteStoreSourceSessionID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedSession(t, store, "s1")
	seedMessage(t, store, "s1", "m1", domain.RoleAssistant, 1)
	sources := domain.NormalizeSources([]domain.RawSource{{Title: "a", URL: "https://a.example"}})
	require.NoError(t, store.AttachSources(ctx, "m1", sources))

	sessionID, err := store.SourceSessionID(ctx, sources[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "s1", sessionID)

	_, err = store.SourceSessionID(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSQLiteStoreUsersAndAnalytics(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user := &domain.User{ID: "u1", Email: "a@example.com", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.CreateUser(ctx, user))
	dup := &domain.User{ID: "u2", Email: "A@example.com", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	assert.True(t, errors.Is(store.CreateUser(ctx, dup), domain.ErrConflict))

	got, err := store.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.ID)

	missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	seedSession(t, store, "s1")
	seedMessage(t, store, "s1", "m1", domain.RoleAssistant, 1)
	require.NoError(t, store.AttachSources(ctx, "m1", domain.NormalizeSources([]domain.RawSource{
		{URL: "https://go.dev/doc"},
		{URL: "https://go.dev/blog"},
		{URL: "https://example.com"},
	})))
	sessionID := "s1"
	require.NoError(t, store.SaveSearchRecord(ctx, &domain.SearchRecord{
		ID: "q1", SessionID: &sessionID, Query: "go", ResultsCount: 3, SearchDurationMs: 120,
		Provider: "mock", CreatedAt: time.Now().UTC(),
	}))
	rating := 5
	require.NoError(t, store.SaveFeedback(ctx, &domain.Feedback{
		ID: "f1", MessageID: "m1", SessionID: "s1", FeedbackType: domain.FeedbackThumbsUp,
		Rating: &rating, CreatedAt: time.Now().UTC(),
	}))

	summary, err := store.AnalyticsSummary(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalSessions)
	assert.Equal(t, 1, summary.TotalMessages)
	assert.Equal(t, 3, summary.TotalSources)
	assert.Equal(t, 1, summary.TotalSearches)
	assert.Equal(t, 120.0, summary.AvgSearchDurationMs)
	require.NotEmpty(t, summary.TopDomains)
	assert.Equal(t, domain.DomainCount{Domain: "go.dev", Count: 2}, summary.TopDomains[0])
	assert.Equal(t, 1, summary.Feedback["thumbs_up"])

	msg, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, msg.FeedbackRating)
	assert.Equal(t, 5, *msg.FeedbackRating)
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on&_busy_timeout=5000", withPragmas(":memory:", true))
	assert.Equal(t,
		"file:x.db?mode=rwc&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate",
		withPragmas("file:x.db?mode=rwc", false))
	assert.Equal(t,
		"file:x.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate",
		withPragmas("file:x.db?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", false))
}
