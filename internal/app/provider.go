package app

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/ai/breaker"
	"github.com/fairyhunter13/resume-matcher/internal/adapter/ai/real"
	"github.com/fairyhunter13/resume-matcher/internal/adapter/ai/stub"
	"github.com/fairyhunter13/resume-matcher/internal/config"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// Provider is a completion backend that can also report its own health.
type Provider interface {
	domain.CompletionProvider
	Ping(ctx context.Context) error
}

// BuildProvider selects the completion backend for cfg and returns it with
// the name used in logs and metrics.
func BuildProvider(cfg config.Config) (Provider, string, error) {
	if cfg.UseStubProvider() {
		if cfg.IsProd() {
			return nil, "", fmt.Errorf("op=app.BuildProvider: %w: stub provider is not allowed in prod", domain.ErrInvalidArgument)
		}
		return stub.New(), config.ProviderStub, nil
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, "", fmt.Errorf("op=app.BuildProvider: %w: OPENAI_API_KEY is required", domain.ErrInvalidArgument)
	}
	var p Provider = real.New(cfg)
	if cfg.AIBreakerMaxFailures > 0 {
		p = breaker.New(p, config.ProviderOpenAI, cfg.AIBreakerMaxFailures, cfg.AIBreakerCooldown)
	}
	return p, config.ProviderOpenAI, nil
}
