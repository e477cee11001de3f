package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Fallback tries the primary provider first and falls back to the secondary
// on any error. Either side may be nil.
type Fallback struct {
	Primary   TextGenerator
	Secondary TextGenerator
	Log       *slog.Logger
}

func (f *Fallback) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if f.Primary != nil {
		text, err := f.Primary.GenerateText(ctx, prompt, maxTokens)
		if err == nil {
			return text, nil
		}
		if f.Secondary == nil {
			return "", err
		}
		if f.Log != nil {
			f.Log.Warn("primary text provider failed, falling back", "err", err)
		}
	}
	if f.Secondary == nil {
		return "", errNoProvider
	}
	return f.Secondary.GenerateText(ctx, prompt, maxTokens)
}

var errNoProvider = &ProviderError{Message: "no text provider configured"}

type ProviderError struct{ Message string }

func (e *ProviderError) Error() string { return e.Message }

// Retrying wraps a generator with a constant-backoff retry policy.
// Attempts/Delay are tunables, not policy baked into call sites.
type Retrying struct {
	Inner    TextGenerator
	Attempts uint64        // extra attempts after the first (0 disables retry)
	Delay    time.Duration // constant backoff between attempts
}

func (r *Retrying) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if r.Attempts == 0 {
		return r.Inner.GenerateText(ctx, prompt, maxTokens)
	}

	var text string
	backoff := retry.WithMaxRetries(r.Attempts, retry.NewConstant(r.Delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		t, err := r.Inner.GenerateText(ctx, prompt, maxTokens)
		if err != nil {
			return retry.RetryableError(err)
		}
		text = t
		return nil
	})
	return text, err
}
