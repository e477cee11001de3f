package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIClient talks to any OpenAI-compatible endpoint (chat completions +
// embeddings).
type OpenAIClient struct {
	BaseURL    string // e.g. https://api.openai.com/v1
	APIKey     string
	Model      string // e.g. gpt-4.1-nano
	EmbedModel string // e.g. text-embedding-3-small
	HTTP       *http.Client
}

func NewOpenAIClient(baseURL, apiKey, model, embedModel string) *OpenAIClient {
	return &OpenAIClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		EmbedModel: embedModel,
		HTTP:       &http.Client{Timeout: 60 * time.Second},
	}
}

type oaChatRequest struct {
	Model     string      `json:"model"`
	Messages  []oaMessage `json:"messages"`
	MaxTokens int         `json:"max_completion_tokens,omitempty"`
}

type oaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaChatResponse struct {
	Choices []struct {
		Message oaMessage `json:"message"`
	} `json:"choices"`
	Error *oaError `json:"error"`
}

type oaError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := oaChatRequest{
		Model:     c.Model,
		Messages:  []oaMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}

	var out oaChatResponse
	if err := c.post(ctx, "/chat/completions", reqBody, &out); err != nil {
		return "", err
	}
	if out.Error != nil {
		return "", fmt.Errorf("openai: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return out.Choices[0].Message.Content, nil
}

type oaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type oaEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *oaError `json:"error"`
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.APIKey == "" || c.EmbedModel == "" {
		return nil, nil // unavailable, caller falls back
	}

	var out oaEmbedResponse
	if err := c.post(ctx, "/embeddings", oaEmbedRequest{Model: c.EmbedModel, Input: text}, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("openai embeddings: %s", out.Error.Message)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty data")
	}
	return out.Data[0].Embedding, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("openai: http %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return json.Unmarshal(body, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
