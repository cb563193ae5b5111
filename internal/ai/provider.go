package ai

import (
	"context"
	"errors"
)

var (
	ErrUpstream        = errors.New("upstream provider failed")
	ErrUpstreamTimeout = errors.New("upstream provider timed out")
)

type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

type Message struct {
	Role    string
	Content string
}

type GenerateRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

type GenerateResult struct {
	Content string
	Usage   Usage
}
