package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 1024
	apiVersion       = "2023-06-01"
)

// Config holds the HTTP backend settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client talks to a messages-style completion API over HTTP with server-sent
// events for streaming.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a client, filling config defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type apiRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream,omitempty"`
}

func (c *Client) post(ctx context.Context, body apiRequest) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("completion request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}
	return resp, nil
}

// Stream implements Generator.
func (c *Client) Stream(ctx context.Context, system string, messages []Message) (Stream, error) {
	resp, err := c.post(ctx, apiRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    system,
		Messages:  messages,
		Stream:    true,
	})
	if err != nil {
		return nil, err
	}
	return &sseStream{body: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

// Complete implements Generator.
func (c *Client) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	resp, err := c.post(ctx, apiRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    system,
		Messages:  messages,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}

	var sb strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// sseStream parses the event stream of a messages completion, yielding only
// text deltas.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

type ssePayload struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *sseStream) Recv() (string, error) {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		var payload ssePayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return "", fmt.Errorf("decode stream event: %w", err)
		}

		switch payload.Type {
		case "content_block_delta":
			if payload.Delta.Type == "text_delta" {
				return payload.Delta.Text, nil
			}
		case "message_stop":
			return "", io.EOF
		case "error":
			return "", fmt.Errorf("stream error: %s", payload.Error.Message)
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	return "", io.EOF
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
