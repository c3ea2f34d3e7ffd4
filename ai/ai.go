// Package ai is the client for the text-generation collaborator that powers
// the assistant identity's replies.
package ai

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Client calls the generation endpoint with a prompt and returns the
// generated text. The endpoint is an opaque collaborator; only this narrow
// contract is assumed.
type Client struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func New(url, apiKey string) *Client {
	return &Client{URL: url, APIKey: apiKey, Timeout: 20 * time.Second}
}

// Reply generates a response for the given prompt.
func (c *Client) Reply(prompt string) (string, error) {
	if c.URL == "" {
		return "", fmt.Errorf("ai: no generation endpoint configured")
	}

	agent := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(agent)

	req := agent.Request()
	req.Header.SetMethod(fiber.MethodPost)
	req.SetRequestURI(c.URL)
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	agent.Timeout(c.Timeout)
	agent.JSON(generateRequest{Prompt: prompt})

	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("ai: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("ai: %w", errs[0])
	}
	if code != fiber.StatusOK {
		return "", fmt.Errorf("ai: generation endpoint returned %d", code)
	}

	out := new(generateResponse)
	if err := json.Unmarshal(body, out); err != nil {
		return "", fmt.Errorf("ai: %w", err)
	}
	if out.Text == "" {
		return "", fmt.Errorf("ai: empty generation")
	}
	return out.Text, nil
}
