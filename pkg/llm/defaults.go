package llm

import "context"

// defaultOptionsProvider applies construction-time options to every call.
// Per-call options are appended after the defaults, so callers can still
// override them.
type defaultOptionsProvider struct {
	inner    LLMProvider
	defaults []Option
}

// WithDefaultOptions wraps a provider so that the given options are applied
// on every Chat and Generate call.
func WithDefaultOptions(inner LLMProvider, defaults ...Option) LLMProvider {
	if len(defaults) == 0 {
		return inner
	}
	return &defaultOptionsProvider{inner: inner, defaults: defaults}
}

func (p *defaultOptionsProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return p.inner.Chat(ctx, history, append(append([]Option{}, p.defaults...), options...)...)
}

func (p *defaultOptionsProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.inner.Generate(ctx, prompt, append(append([]Option{}, p.defaults...), options...)...)
}
