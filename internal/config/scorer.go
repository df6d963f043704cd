package config

// ScorerConfig selects and configures the relevance scorer backend.
type ScorerConfig struct {
	// Provider is "gemini" or "openrouter".
	Provider string `envconfig:"SCORER_PROVIDER" default:"gemini"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" default:""`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	OpenRouterAPIKey string `envconfig:"OPENROUTER_API_KEY" default:""`
	OpenRouterModel  string `envconfig:"OPENROUTER_MODEL" default:"openai/gpt-4o-mini"`

	// ResumePath points at the applicant's résumé (.pdf or plain text);
	// its text is embedded in the scoring prompt.
	ResumePath string `envconfig:"RESUME_PATH" default:"resume.pdf"`

	// MinScore is the relevance threshold on the scorer's 0–10 scale.
	MinScore float64 `envconfig:"RELEVANCE_THRESHOLD" default:"8.0"`
}
