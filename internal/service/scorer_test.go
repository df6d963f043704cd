package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScoreAnswer_PlainJSON(t *testing.T) {
	score, reason, err := parseScoreAnswer(`{"score": 8.5, "reason": "strong backend overlap"}`)
	require.NoError(t, err)
	assert.Equal(t, 8.5, score)
	assert.Equal(t, "strong backend overlap", reason)
}

func TestParseScoreAnswer_FencedJSON(t *testing.T) {
	answer := "Here is my evaluation:\n```json\n{\"score\": 6, \"reason\": \"partial match\"}\n```"
	score, reason, err := parseScoreAnswer(answer)
	require.NoError(t, err)
	assert.Equal(t, 6.0, score)
	assert.Equal(t, "partial match", reason)
}

func TestParseScoreAnswer_ClampsOutOfRange(t *testing.T) {
	score, _, err := parseScoreAnswer(`{"score": 14, "reason": "over-enthusiastic model"}`)
	require.NoError(t, err)
	assert.Equal(t, 10.0, score)

	score, _, err = parseScoreAnswer(`{"score": -2, "reason": "grumpy model"}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestParseScoreAnswer_MissingScore(t *testing.T) {
	_, _, err := parseScoreAnswer(`{"reason": "forgot the number"}`)
	assert.Error(t, err)

	_, _, err = parseScoreAnswer("I cannot answer in JSON, sorry.")
	assert.Error(t, err)
}

func TestBuildScorePrompt_TruncatesLongPostings(t *testing.T) {
	long := strings.Repeat("x", 20000)
	prompt := buildScorePrompt(long, "résumé text")

	assert.Less(t, len(prompt), 10000)
	assert.Contains(t, prompt, "...[truncated]...")
	assert.Contains(t, prompt, "résumé text")
}

func TestBuildScorePrompt_KeepsShortPostingsIntact(t *testing.T) {
	prompt := buildScorePrompt("  Go developer wanted  ", "résumé text")
	assert.Contains(t, prompt, "Go developer wanted")
	assert.NotContains(t, prompt, "truncated")
}
