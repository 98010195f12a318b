package provider

import (
	"fmt"
	"strings"

	"promptos/internal/config"
)

// NewFromConfig builds the client for the given model ID using whichever API
// keys are configured. Models prefixed "grok" route through OpenRouter,
// everything else goes to Gemini. An empty model defers to the config's
// provider selection with each provider's default model.
func NewFromConfig(cfg *config.UserConfig, model string) (Client, error) {
	name := ""
	switch {
	case strings.HasPrefix(model, "grok"):
		name = "grok"
	case model != "":
		name = "gemini"
	default:
		name, _ = cfg.GetActiveProvider()
	}

	switch name {
	case "grok":
		key := cfg.OpenRouterAPIKey
		if key == "" {
			key = cfg.XAIAPIKey
		}
		if key == "" {
			return nil, fmt.Errorf("no OpenRouter API key configured for Grok models")
		}
		return NewGrokClient(key, model), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("no Gemini API key configured")
		}
		return NewGeminiClient(cfg.GeminiAPIKey, model), nil
	default:
		return nil, fmt.Errorf("no provider API key configured; set gemini_api_key or openrouter_api_key")
	}
}
