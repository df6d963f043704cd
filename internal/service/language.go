// Package service hosts the external collaborators of the pipeline:
// relevance scoring, language detection and résumé loading. None of them
// touch the Job Store.
package service

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// LangUnknown is returned when the text is too short or detection is not
// confident enough to be trusted.
const LangUnknown = "unknown"

// minDetectChars guards against misdetecting stub descriptions.
const minDetectChars = 300

// DetectLanguage returns the ISO 639-1 code of text, or LangUnknown.
func DetectLanguage(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minDetectChars {
		return LangUnknown
	}
	info := whatlanggo.Detect(trimmed)
	if !info.IsReliable() {
		return LangUnknown
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return LangUnknown
	}
	return code
}

// LanguageFilter decides whether a detected description language passes
// the configured allow-list.
type LanguageFilter struct {
	allowed     map[string]bool
	keepUnknown bool
}

func NewLanguageFilter(allowed []string, keepUnknown bool) *LanguageFilter {
	m := make(map[string]bool, len(allowed))
	for _, l := range allowed {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" {
			m[l] = true
		}
	}
	return &LanguageFilter{allowed: m, keepUnknown: keepUnknown}
}

// Allowed reports whether a record in the given language may proceed.
// An empty allow-list passes everything.
func (f *LanguageFilter) Allowed(lang string) bool {
	if len(f.allowed) == 0 {
		return true
	}
	if lang == "" || lang == LangUnknown {
		return f.keepUnknown
	}
	return f.allowed[strings.ToLower(lang)]
}
