package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

func newAskCommand() *cobra.Command {
	var (
		addr  string
		token string
	)
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Chat with a running server from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			client := NewClient(addr, token)
			return runREPL(ctx, client, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:3000", "server base URL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("MINIPLEX_TOKEN"), "bearer token from /api/auth/login")
	return cmd
}

// Client talks to the HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ChatReply is the answer to one question.
type ChatReply struct {
	Response       string             `json:"response"`
	Sources        []domain.RawSource `json:"sources"`
	Model          string             `json:"model_used"`
	TokensUsed     int                `json:"tokens_used"`
	ResponseTimeMs int                `json:"response_time_ms"`
	SearchQuery    string             `json:"search_query"`
}

// CreateSession starts a new session and returns its ID.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var resp struct {
		Session domain.Session `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", map[string]interface{}{}, &resp); err != nil {
		return "", err
	}
	return resp.Session.ID, nil
}

// Chat asks a question in the context of a session.
func (c *Client) Chat(ctx context.Context, sessionID, message string) (*ChatReply, error) {
	var reply ChatReply
	body := map[string]string{"message": message, "sessionId": sessionID}
	if err := c.do(ctx, http.MethodPost, "/api/chat", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// SaveTurn persists a question and the reply to it.
func (c *Client) SaveTurn(ctx context.Context, sessionID, question string, reply *ChatReply) error {
	if err := c.do(ctx, http.MethodPost, "/api/messages", map[string]interface{}{
		"session_id": sessionID,
		"type":       "user",
		"content":    question,
	}, nil); err != nil {
		return err
	}

	answer := map[string]interface{}{
		"session_id": sessionID,
		"type":       "ai",
		"content":    reply.Response,
		"sources":    reply.Sources,
	}
	if reply.Model != "" {
		answer["model_used"] = reply.Model
		answer["tokens_used"] = reply.TokensUsed
		answer["response_time_ms"] = reply.ResponseTimeMs
		answer["search_query"] = reply.SearchQuery
	}
	return c.do(ctx, http.MethodPost, "/api/messages", answer, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// runREPL reads questions line by line, prints each answer with numbered
// sources and saves the turn. "/new" starts a new session, "/quit" exits.
func runREPL(ctx context.Context, client *Client, in io.Reader, out io.Writer) error {
	sessionID, err := client.CreateSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	fmt.Fprintf(out, "Session %s\nAsk anything. Commands: /new, /quit\n\n", sessionID)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "/new":
			if sessionID, err = client.CreateSession(ctx); err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}
			fmt.Fprintf(out, "Session %s\n", sessionID)
			continue
		}

		reply, err := client.Chat(ctx, sessionID, input)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		printReply(out, reply)

		if err := client.SaveTurn(ctx, sessionID, input, reply); err != nil {
			fmt.Fprintf(out, "warning: turn not saved: %v\n", err)
		}
	}
}

func printReply(out io.Writer, reply *ChatReply) {
	fmt.Fprintf(out, "\n%s\n", reply.Response)
	if len(reply.Sources) == 0 {
		fmt.Fprintln(out)
		return
	}
	fmt.Fprintln(out, "\nSources:")
	for i, src := range reply.Sources {
		fmt.Fprintf(out, "  [%d] %s - %s\n", i+1, src.Title, src.URL)
	}
	fmt.Fprintln(out)
}
