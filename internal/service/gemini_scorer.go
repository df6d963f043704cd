package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"jobpilot/internal/config"
)

// GeminiScorer scores postings with the Gemini API. It keeps its own small
// retry loop: the scorer is an external collaborator and is not paced by
// the site-facing rate limiter.
type GeminiScorer struct {
	client     *genai.Client
	model      string
	resumeText string
	maxRetries int
	baseDelay  time.Duration
	log        *zap.SugaredLogger
}

func NewGeminiScorer(ctx context.Context, cfg config.ScorerConfig, resumeText string, log *zap.SugaredLogger) (*GeminiScorer, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("JOBPILOT_GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiScorer{
		client:     client,
		model:      cfg.GeminiModel,
		resumeText: resumeText,
		maxRetries: 3,
		baseDelay:  time.Second,
		log:        log,
	}, nil
}

func (s *GeminiScorer) Score(ctx context.Context, jobText string) (float64, string, error) {
	if strings.TrimSpace(jobText) == "" {
		return 0, "", fmt.Errorf("job text is empty")
	}

	prompt := buildScorePrompt(jobText, s.resumeText)
	genCfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(0.1)),
		SystemInstruction: genai.NewContentFromText(scoreSystemPrompt, genai.RoleUser),
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.baseDelay << (attempt - 1)
			s.log.Warnw("[scorer] retrying gemini call", "attempt", attempt, "delay", delay, "err", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return 0, "", ctx.Err()
			}
		}

		result, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), genCfg)
		if err == nil {
			text := result.Text()
			if text == "" {
				return 0, "", fmt.Errorf("empty answer from %s", s.model)
			}
			return parseScoreAnswer(text)
		}

		lastErr = err
		if !geminiRetryable(err) {
			return 0, "", fmt.Errorf("gemini generate: %w", err)
		}
	}
	return 0, "", fmt.Errorf("gemini generate after %d retries: %w", s.maxRetries, lastErr)
}

func geminiRetryable(err error) bool {
	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "EOF")
}
