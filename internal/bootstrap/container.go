package bootstrap

import (
	"fmt"
	"log"

	"news-council-be/internal/config"
	"news-council-be/internal/controller"
	"news-council-be/internal/pkg/logger"
	"news-council-be/internal/repository/memory"
	"news-council-be/internal/service"
	"news-council-be/pkg/council"
	"news-council-be/pkg/events"
	"news-council-be/pkg/llm"
	"news-council-be/pkg/llm/factory"
)

type Container struct {
	CouncilController controller.ICouncilController

	// Shared infrastructure (exposed for shutdown)
	Bus    *events.Bus
	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	bus := events.NewBus()

	// 3. Reasoning backends, one per council role
	providers, err := BuildProviders(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM providers: %v", err)
	}

	// 4. Services
	runRepo := memory.NewCouncilRunRepository()
	councilService := service.NewCouncilService(
		providers,
		council.DefaultPrompts(),
		runRepo,
		bus,
		sysLogger,
	)

	// 5. Controllers
	return &Container{
		CouncilController: controller.NewCouncilController(councilService),
		Bus:               bus,
		Logger:            sysLogger,
	}
}

// BuildProviders constructs the role → backend map from config. Each role
// can point at a different provider/model; the expert supervisor shares the
// master's model.
func BuildProviders(cfg *config.Config) (map[council.Role]llm.LLMProvider, error) {
	roles := append([]council.Role{}, council.ExpectedExperts...)
	roles = append(roles, council.RoleExpertSupervisor)

	providers := make(map[council.Role]llm.LLMProvider, len(roles))
	for _, role := range roles {
		mc := cfg.ModelForRole(string(role))

		settings := factory.ProviderSettings{BaseURL: cfg.Ai.OllamaBaseURL}
		switch mc.Provider {
		case "openai":
			settings = factory.ProviderSettings{APIKey: cfg.Keys.OpenAI, BaseURL: cfg.Ai.OpenAIBaseURL}
		case "gemini", "google":
			settings = factory.ProviderSettings{APIKey: cfg.Keys.GoogleGemini}
		}

		provider, err := factory.NewLLMProvider(mc.Provider, mc.Model, settings)
		if err != nil {
			return nil, fmt.Errorf("role %s: %w", role, err)
		}
		providers[role] = llm.WithDefaultOptions(provider, llm.WithTemperature(mc.Temperature))
		log.Printf("[INFO] Role %s using LLM Provider: %s (%s, temp=%.1f)", role, mc.Provider, mc.Model, mc.Temperature)
	}
	return providers, nil
}
