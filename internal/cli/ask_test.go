package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/S342D32/Mini-Perplexity/internal/adapter/llm"
	"github.com/S342D32/Mini-Perplexity/internal/config"
	"github.com/S342D32/Mini-Perplexity/internal/logger"
	"github.com/S342D32/Mini-Perplexity/internal/policy"
	"github.com/S342D32/Mini-Perplexity/internal/repository"
	"github.com/S342D32/Mini-Perplexity/internal/search"
	"github.com/S342D32/Mini-Perplexity/internal/service"
	transport "github.com/S342D32/Mini-Perplexity/internal/transport/http"
	"github.com/S342D32/Mini-Perplexity/tests/helpers"
)

func startServer(t *testing.T) (string, *repository.SQLiteStore) {
	t.Helper()
	cfg := &config.Config{
		CORSOrigins:     []string{"*"},
		ChatRPS:         100,
		ChatBurst:       100,
		AppendRetries:   5,
		SessionPageSize: 20,
		ContextMessages: 10,
		SearchTimeout:   time.Second,
		LLMTimeout:      time.Second,
		StorageTimeout:  5 * time.Second,
		JWTSecret:       "test-secret",
		TokenTTL:        time.Hour,
	}
	store := helpers.NewTestSQLiteStore(t)
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	log := logger.Discard()
	svc := service.New(store, search.NewMockSearcher(), llm.NewMockClient(), nil, engine, nil, cfg, log)
	ts := httptest.NewServer(transport.NewServer(cfg, svc, nil, nil, log).Handler())
	t.Cleanup(ts.Close)
	return ts.URL, store
}

func TestREPLSavesTurns(t *testing.T) {
	url, store := startServer(t)
	client := NewClient(url+"/", "")

	in := strings.NewReader("What is AI?\n\n/quit\n")
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), client, in, &out))

	output := out.String()
	assert.Contains(t, output, "[MOCK]")
	assert.Contains(t, output, "[1] OpenAI - Artificial Intelligence Research - https://openai.com")
	assert.Contains(t, output, "Bye!")

	sessions, err := store.ListRecentSessions(context.Background(), nil, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "What is AI?", sessions[0].Title)

	messages, err := store.ListMessages(context.Background(), sessions[0].ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, 2, messages[1].SourcesCount)
}

func TestREPLNewSession(t *testing.T) {
	url, store := startServer(t)
	client := NewClient(url, "")

	in := strings.NewReader("/new\n")
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), client, in, &out))

	sessions, err := store.ListRecentSessions(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestClientReportsAPIErrors(t *testing.T) {
	url, _ := startServer(t)
	client := NewClient(url, "")

	_, err := client.Chat(context.Background(), "", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message is required")
	assert.Contains(t, err.Error(), "status 400")
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"serve", "migrate", "ask"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestMigrateCommand(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	dsn := "file:" + t.TempDir() + "/migrate.db"
	root.SetArgs([]string{"migrate", "--database", dsn})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "schema up to date")
}
