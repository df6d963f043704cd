package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Scorer rates how well a job description matches the applicant's résumé.
// It is pure with respect to the Job Store: implementations call an
// external model and return a verdict, nothing else.
type Scorer interface {
	// Score returns a relevance score in [0,10] and a short reason.
	Score(ctx context.Context, jobText string) (float64, string, error)
}

const scoreSystemPrompt = "You are an expert in HR and resume evaluation. " +
	"Rate how well a candidate matches a job posting."

const scorePromptTemplate = `Evaluate how relevant the following job posting is for the candidate.

Return your answer STRICTLY in JSON format with this schema:
{
  "score": <float 0-10, how strong a match the posting is for the candidate>,
  "reason": "<one or two sentences explaining the score>"
}

Job posting:
%s

Candidate resume:
%s
`

// buildScorePrompt renders the prompt for one posting. Long descriptions
// are truncated so one oversized posting cannot blow the token budget.
func buildScorePrompt(jobText, resumeText string) string {
	const limit = 8000
	jobText = strings.TrimSpace(jobText)
	if len(jobText) > limit {
		jobText = jobText[:limit] + " ...[truncated]..."
	}
	return fmt.Sprintf(scorePromptTemplate, jobText, resumeText)
}

// parseScoreAnswer pulls score and reason out of the model's JSON answer.
// Models occasionally wrap the JSON in prose or code fences, so parsing
// starts at the outermost object.
func parseScoreAnswer(answer string) (float64, string, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start >= 0 && end > start {
		answer = answer[start : end+1]
	}
	score := gjson.Get(answer, "score")
	if !score.Exists() {
		return 0, "", fmt.Errorf("no score in model answer: %.120s", answer)
	}
	reason := gjson.Get(answer, "reason").String()
	return clampScore(score.Float()), reason, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
