package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultBotPrompt = "You are a helpful assistant."

// BotConfig points at an OpenAI-compatible chat-completions endpoint.
type BotConfig struct {
	APIURL  string
	APIKey  string
	Model   string
	Prompt  string
	Timeout time.Duration
}

type Bot struct {
	cfg    BotConfig
	client *http.Client
}

func NewBot(cfg BotConfig) *Bot {
	if cfg.Prompt == "" {
		cfg.Prompt = defaultBotPrompt
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Bot{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// StreamReply starts a streaming completion and returns the chunk sequence.
// The first chunk mentions the speaker; the channel closes when the reply
// finishes or the context is canceled. The sequence is not restartable.
func (b *Bot) StreamReply(ctx context.Context, query, speaker, room string) (<-chan string, error) {
	if b.cfg.APIURL == "" || b.cfg.Model == "" {
		return nil, fmt.Errorf("no ai model configured")
	}

	prompt := b.cfg.Prompt
	prompt += fmt.Sprintf("\nUser's nickname is %s. You are in room %s.", speaker, room)

	body, err := json.Marshal(chatCompletionRequest{
		Model: b.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: query},
		},
		Stream:      true,
		Temperature: 0.7,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("ai api returned status %d", resp.StatusCode)
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		send := func(chunk string) bool {
			select {
			case out <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send("@" + speaker + " ") {
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}
			var chunk chatCompletionChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				if !send(chunk.Choices[0].Delta.Content) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			log.Printf("ai stream interrupted: %v", err)
		}
	}()
	return out, nil
}
