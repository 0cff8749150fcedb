package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	App  AppConfig
	Keys APIKeys
	Ai   AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type APIKeys struct {
	OpenAI       string
	GoogleGemini string
}

// ModelConfig is the reasoning-backend selection for one agent role.
type ModelConfig struct {
	Provider    string // "openai", "gemini", "ollama"
	Model       string
	Temperature float64
}

type AIConfig struct {
	Provider      string // default provider for all roles
	OllamaBaseURL string
	OpenAIBaseURL string // optional OpenAI-compatible endpoint

	// ExpertProvider/ExpertModel override the backend for the four content
	// experts only; the master/supervisor keeps the default provider.
	ExpertProvider string
	ExpertModel    string

	Models map[string]ModelConfig // role → model, built by Load
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/council.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			Provider:       getEnv("LLM_PROVIDER", "openai"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
			ExpertProvider: getEnv("EXPERT_LLM_PROVIDER", ""),
			ExpertModel:    getEnv("EXPERT_LLM_MODEL", ""),
		},
	}
	cfg.Ai.Models = defaultModelMap(cfg.Ai)
	return cfg
}

// roleDefaults mirror the historical per-role tuning: the master runs the
// strongest model with near-zero temperature, experts get role-appropriate
// creativity.
var roleDefaults = []struct {
	Role        string
	Model       string
	Temperature float64
}{
	{"master", "gpt-4o", 0.1},
	{"summarizer", "gpt-4o-mini", 0.0},
	{"fact_checker", "gpt-4o", 0.0},
	{"researcher", "gpt-4o", 0.2},
	{"impact_assessor", "gpt-4o", 0.3},
}

func defaultModelMap(ai AIConfig) map[string]ModelConfig {
	models := make(map[string]ModelConfig, len(roleDefaults))
	for _, d := range roleDefaults {
		mc := ModelConfig{
			Provider:    ai.Provider,
			Model:       getEnv("LLM_MODEL", d.Model),
			Temperature: d.Temperature,
		}
		if d.Role != "master" && ai.ExpertProvider != "" && ai.ExpertModel != "" {
			mc.Provider = ai.ExpertProvider
			mc.Model = ai.ExpertModel
		}
		models[d.Role] = mc
	}
	return models
}

// ModelForRole returns the configured model for a role. The expert
// supervisor (chairman) shares the master's model.
func (c *Config) ModelForRole(role string) ModelConfig {
	if role == "expert_supervisor" {
		role = "master"
	}
	if mc, ok := c.Ai.Models[role]; ok {
		return mc
	}
	return ModelConfig{Provider: c.Ai.Provider, Model: "gpt-4o-mini"}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
