// Package real implements the completion provider against an
// OpenAI-compatible chat completions API.
package real

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/resume-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/resume-matcher/internal/config"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

const (
	providerName = "openai"
	// maxResponseBytes bounds how much of a provider response is buffered.
	maxResponseBytes = 8 << 20
	snippetBytes     = 512
)

var (
	errEmptyChoices = errors.New("response contained no choices")
	errMissingKey   = errors.New("OPENAI_API_KEY not configured")
)

// Client implements domain.CompletionProvider. It never retries; retry policy
// belongs to callers.
type Client struct {
	cfg     config.Config
	hc      *http.Client
	counter *tokencount.Counter
}

// New constructs a client whose transport is traced with otelhttp.
func New(cfg config.Config) *Client {
	timeout := cfg.AIChatTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		counter: tokencount.DefaultCounter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func snippet(b []byte) string {
	if len(b) > snippetBytes {
		return string(b[:snippetBytes])
	}
	return string(b)
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.OpenAIBaseURL, "/") + path
}

// Complete sends req to {base}/chat/completions and returns the first
// choice's content unmodified.
func (c *Client) Complete(ctx domain.Context, req domain.CompletionRequest) (string, error) {
	schema := string(req.Schema)
	lg := observability.LoggerFromContext(ctx).With(
		slog.String("provider", providerName),
		slog.String("schema", schema),
		slog.String("model", c.cfg.ChatModel),
	)
	ctx, span := otel.Tracer("ai.openai").Start(ctx, "chat.completions")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.schema", schema),
		attribute.String("ai.model", c.cfg.ChatModel),
		attribute.Int("ai.max_tokens", req.MaxTokens),
	)

	if c.cfg.OpenAIAPIKey == "" {
		lg.Error("OpenAI API key missing")
		return "", &domain.ProviderError{StatusCode: http.StatusUnauthorized, Body: errMissingKey.Error(), Err: errMissingKey}
	}

	msgs := make([]chatMessage, 0, 2)
	if req.SystemInstruction != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.SystemInstruction})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Prompt})
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.ChatModel,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("op=openai.Complete marshal: %w", err)
	}

	promptTokens := c.counter.EstimateChatTokens(req.SystemInstruction, req.Prompt, c.cfg.ChatModel)
	observability.ObservePromptTokens(schema, promptTokens)
	span.SetAttributes(attribute.Int("ai.prompt_tokens_estimate", promptTokens))
	lg.Debug("calling chat completions", slog.Int("prompt_tokens_estimate", promptTokens), slog.Int("max_tokens", req.MaxTokens), slog.Float64("temperature", req.Temperature))

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/chat/completions"), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("op=openai.Complete request: %w", err)
	}
	hreq.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
	hreq.Header.Set("Content-Type", "application/json")
	if rid := observability.RequestIDFromContext(ctx); rid != "" {
		hreq.Header.Set("X-Request-Id", rid)
	}

	start := time.Now()
	resp, err := c.hc.Do(hreq)
	if err != nil {
		observability.ObserveAIRequest(providerName, schema, 0, time.Since(start))
		lg.Error("ai provider transport error", slog.Any("error", err), slog.Duration("elapsed", time.Since(start)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return "", &domain.ProviderError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	observability.ObserveAIRequest(providerName, schema, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if err != nil {
		lg.Error("failed to read response body", slog.Any("error", err))
		return "", &domain.ProviderError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		lvl := slog.LevelWarn
		if resp.StatusCode >= 500 {
			lvl = slog.LevelError
		}
		lg.Log(ctx, lvl, "ai provider non-2xx",
			slog.Int("status", resp.StatusCode),
			slog.String("x_request_id", resp.Header.Get("X-Request-Id")),
			slog.String("body", snippet(raw)))
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return "", &domain.ProviderError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		lg.Error("ai provider decode error", slog.Any("error", err), slog.String("body", snippet(raw)))
		return "", &domain.ProviderError{StatusCode: resp.StatusCode, Body: snippet(raw), Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(out.Choices) == 0 {
		lg.Error("ai provider returned empty choices")
		return "", &domain.ProviderError{StatusCode: resp.StatusCode, Body: snippet(raw), Err: errEmptyChoices}
	}

	attrs := []any{
		slog.Duration("elapsed", time.Since(start)),
		slog.String("finish_reason", out.Choices[0].FinishReason),
		slog.Int("content_len", len(out.Choices[0].Message.Content)),
	}
	if out.Usage != nil {
		attrs = append(attrs, slog.Int("prompt_tokens", out.Usage.PromptTokens), slog.Int("completion_tokens", out.Usage.CompletionTokens))
	}
	lg.Info("chat completion received", attrs...)
	return out.Choices[0].Message.Content, nil
}

// Ping checks that the provider is reachable and accepts the configured key.
func (c *Client) Ping(ctx domain.Context) error {
	if c.cfg.OpenAIAPIKey == "" {
		return errMissingKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/models"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("openai status %d", resp.StatusCode)
	}
	return nil
}
