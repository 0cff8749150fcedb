package factory

import (
	"fmt"

	"news-council-be/pkg/llm"
	"news-council-be/pkg/llm/gemini"
	"news-council-be/pkg/llm/ollama"
	"news-council-be/pkg/llm/openai"
)

// ProviderSettings carries everything a backend needs to be constructed.
// Unused fields are ignored by providers that do not need them.
type ProviderSettings struct {
	APIKey  string
	BaseURL string
}

func NewLLMProvider(providerType, modelName string, settings ProviderSettings) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "gemini", "google":
		if settings.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(settings.APIKey, modelName), nil
	case "openai":
		if settings.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return openai.NewOpenAIProvider(settings.APIKey, modelName, settings.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
