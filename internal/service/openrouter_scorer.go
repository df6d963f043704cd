package service

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"jobpilot/internal/config"
)

const openRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterScorer scores postings through an OpenAI-compatible chat
// endpoint. Alternative backend to GeminiScorer, selected by
// JOBPILOT_SCORER_PROVIDER.
type OpenRouterScorer struct {
	client     *resty.Client
	apiKey     string
	model      string
	resumeText string
}

func NewOpenRouterScorer(cfg config.ScorerConfig, resumeText string) (*OpenRouterScorer, error) {
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("JOBPILOT_OPENROUTER_API_KEY not set")
	}
	return &OpenRouterScorer{
		client:     resty.New(),
		apiKey:     cfg.OpenRouterAPIKey,
		model:      cfg.OpenRouterModel,
		resumeText: resumeText,
	}, nil
}

func (s *OpenRouterScorer) Score(ctx context.Context, jobText string) (float64, string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"model": s.model,
			"messages": []map[string]string{
				{"role": "system", "content": scoreSystemPrompt},
				{"role": "user", "content": buildScorePrompt(jobText, s.resumeText)},
			},
		}).
		Post(openRouterEndpoint)
	if err != nil {
		return 0, "", fmt.Errorf("openrouter request: %w", err)
	}
	if resp.IsError() {
		return 0, "", fmt.Errorf("openrouter status %d: %.200s", resp.StatusCode(), resp.String())
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if text == "" {
		return 0, "", fmt.Errorf("no answer from %s", s.model)
	}
	return parseScoreAnswer(text)
}
