package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// LoadResumeText reads the applicant's résumé for use as scoring context.
// PDF files are extracted page by page; anything else is read as plain
// text. A résumé too short to evaluate against is an error.
func LoadResumeText(path string) (string, error) {
	var text string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = extractPDFText(path)
	default:
		var raw []byte
		raw, err = os.ReadFile(path)
		text = string(raw)
	}
	if err != nil {
		return "", fmt.Errorf("load resume %s: %w", path, err)
	}

	text = strings.TrimSpace(text)
	if len(text) < 100 {
		return "", fmt.Errorf("resume %s: content too short for meaningful evaluation", path)
	}
	return text, nil
}

func extractPDFText(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		page, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", n+1, err)
		}
		page = strings.TrimSpace(page)
		if page != "" {
			sb.WriteString(page)
			sb.WriteString("\n\n")
		}
	}
	return sb.String(), nil
}
