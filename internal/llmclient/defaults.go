package llmclient

import (
	"context"
	"strings"
)

// Credentials holds the API keys the default registrations need. They are
// threaded explicitly from configuration so clients never read ambient
// environment state.
type Credentials struct {
	GeminiAPIKey string
	GroqAPIKey   string
}

// RegisterDefaults registers every backend this service knows how to build.
// Which of them actually run, and in what order, is decided by the
// configured model list.
func RegisterDefaults(reg *Registry, creds Credentials) error {
	geminiModels := []string{"gemini-2.5-flash", "gemini-2.5-pro"}
	for _, model := range geminiModels {
		model := model
		id := "gemini:" + model
		if err := reg.Register(Registration{
			ID:       id,
			Provider: "gemini",
			Model:    model,
			Check:    requireKey(id, "GEMINI_API_KEY", creds.GeminiAPIKey),
			Factory: func(ctx context.Context) (Client, error) {
				return NewGeminiClient(ctx, creds.GeminiAPIKey, model)
			},
		}); err != nil {
			return err
		}
	}

	groqModels := []string{"llama-3.3-70b-versatile"}
	for _, model := range groqModels {
		model := model
		id := "groq:" + model
		if err := reg.Register(Registration{
			ID:       id,
			Provider: "groq",
			Model:    model,
			Check:    requireKey(id, "GROQ_API_KEY", creds.GroqAPIKey),
			Factory: func(ctx context.Context) (Client, error) {
				return NewGroqClient(creds.GroqAPIKey, model), nil
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func requireKey(backend, envVar, key string) func() error {
	return func() error {
		if strings.TrimSpace(key) == "" {
			return &MissingCredentialError{Backend: backend, EnvVar: envVar}
		}
		return nil
	}
}
