package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenRouterClient calls the OpenAI-compatible chat completions endpoint
// exposed by OpenRouter.
type OpenRouterClient struct {
	baseURL    string
	apiKey     string
	siteURL    string
	appName    string
	httpClient *http.Client
}

func NewOpenRouterClient(baseURL, apiKey, siteURL, appName string) *OpenRouterClient {
	return &OpenRouterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		siteURL: siteURL,
		appName: appName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []chatContentPart
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    *float64            `json:"temperature,omitempty"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends req as a single user turn at temperature 0.
func (c *OpenRouterClient) Complete(ctx context.Context, req Request) (Completion, error) {
	zero := 0.0
	body := chatRequest{
		Model:       req.Model,
		Temperature: &zero,
		MaxTokens:   maxTokens(req),
	}
	if req.JSON {
		body.ResponseFormat = &chatResponseFormat{Type: "json_object"}
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	if req.Image != nil {
		dataURL := "data:" + req.Image.MIME + ";base64," + base64.StdEncoding.EncodeToString(req.Image.Data)
		body.Messages = append(body.Messages, chatMessage{Role: "user", Content: []chatContentPart{
			{Type: "text", Text: req.Prompt},
			{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL}},
		}})
	} else {
		body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Completion{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Completion{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.siteURL != "" {
		httpReq.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.appName != "" {
		httpReq.Header.Set("X-Title", c.appName)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Completion{}, fmt.Errorf("openrouter api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Completion{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return Completion{}, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return Completion{}, fmt.Errorf("openrouter api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return Completion{}, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return Completion{}, fmt.Errorf("openrouter error: %v: %s", apiResp.Error.Code, apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 {
		return Completion{}, fmt.Errorf("empty response from openrouter")
	}

	out := Completion{
		Text:  apiResp.Choices[0].Message.Content,
		Model: apiResp.Model,
	}
	if apiResp.Usage != nil {
		out.Usage = Usage{InputTokens: apiResp.Usage.PromptTokens, OutputTokens: apiResp.Usage.CompletionTokens}
	}
	return out, nil
}

// Close releases resources.
func (c *OpenRouterClient) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
