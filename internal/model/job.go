package model

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// JobRecord is one row per discovered posting. ID is derived from the
// canonical posting URL and never reassigned; every other field may be
// back-filled by later collection passes.
type JobRecord struct {
	ID             string     `gorm:"primaryKey;size:40" json:"id"`
	Title          string     `json:"title"`
	Company        string     `json:"company"`
	URL            string     `gorm:"type:text" json:"url"`
	ExternalURL    string     `gorm:"type:text" json:"external_url,omitempty"`
	Description    string     `gorm:"type:text" json:"description,omitempty"`
	Language       string     `gorm:"size:8" json:"language,omitempty"`
	RelevanceScore *float64   `json:"relevance_score,omitempty"`
	ScoreReason    string     `gorm:"type:text" json:"score_reason,omitempty"`
	Status         Status     `gorm:"size:16;index" json:"status"`
	ReasonCode     string     `gorm:"size:32" json:"reason_code,omitempty"`
	DiscoveredAt   time.Time  `json:"discovered_at"`
	LastActionAt   *time.Time `json:"last_action_at,omitempty"`
	AttemptCount   int        `json:"attempt_count"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (r *JobRecord) TableName() string {
	return "job_records"
}

// Scored reports whether the record has been evaluated by the scorer.
func (r *JobRecord) Scored() bool {
	return r.RelevanceScore != nil
}

// CanonicalURL strips query string and fragment from a posting URL so that
// tracking parameters never produce duplicate rows.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/")
}

// JobID derives the stable record identifier from the posting URL.
func JobID(rawURL string) string {
	sum := sha1.Sum([]byte(CanonicalURL(rawURL)))
	return hex.EncodeToString(sum[:])
}

// NewJobRecord builds a record for a first sighting at status NEW.
func NewJobRecord(rawURL, title, company string, now time.Time) JobRecord {
	return JobRecord{
		ID:           JobID(rawURL),
		Title:        title,
		Company:      company,
		URL:          strings.TrimSpace(rawURL),
		Status:       StatusNew,
		DiscoveredAt: now,
	}
}
