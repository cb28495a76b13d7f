package config

import "fmt"

type AIConfig struct {
	// Model is the full genkit model name, e.g. "googleai/gemini-2.0-flash".
	Model string `koanf:"model"`
	// Embedder is the embedding model used by the knowledge store.
	Embedder string `koanf:"embedder"`
}

func (c *AIConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("AI model is not configured")
	}
	if c.Embedder == "" {
		return fmt.Errorf("AI embedder is not configured")
	}
	return nil
}
