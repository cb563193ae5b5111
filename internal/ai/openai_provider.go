package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/nutrihub/server/internal/config"
)

type OpenAIProvider struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAIProvider(cfg *config.Config) *OpenAIProvider {
	timeoutSeconds := cfg.AITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 20
	}

	return &OpenAIProvider{
		apiKey: cfg.OpenAIAPIKey,
		model:  cfg.OpenAIModel,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	messages := make([]chatMessageRequest, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := strings.TrimSpace(msg.Role)
		if role == "" {
			continue
		}
		messages = append(messages, chatMessageRequest{
			Role:    role,
			Content: msg.Content,
		})
	}

	requestPayload := chatCompletionsRequest{
		Model:       p.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    messages,
	}

	body, err := json.Marshal(requestPayload)
	if err != nil {
		return GenerateResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return GenerateResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return GenerateResult{}, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		return GenerateResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return GenerateResult{}, fmt.Errorf("%w: openai request failed with status %d", ErrUpstream, resp.StatusCode)
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return GenerateResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResult{}, fmt.Errorf("%w: openai response does not contain choices", ErrUpstream)
	}

	return GenerateResult{
		Content: strings.TrimSpace(parsed.Choices[0].Message.Content),
		Usage: Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
		},
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type chatCompletionsRequest struct {
	Model       string               `json:"model"`
	Messages    []chatMessageRequest `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
}

type chatMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}
