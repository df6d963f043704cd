package model

import "time"

// RunKind identifies which pipeline stage produced a RunRecord.
type RunKind string

const (
	RunCollect RunKind = "collect"
	RunScore   RunKind = "score"
	RunApply   RunKind = "apply"
	RunFull    RunKind = "full"
)

// RunStats holds the aggregate counters of one invocation. It is built
// in memory during a run and written once at the end.
type RunStats struct {
	Seen       int `json:"seen"`
	New        int `json:"new"`
	Duplicate  int `json:"duplicate"`
	Scored     int `json:"scored"`
	Applied    int `json:"applied"`
	WouldApply int `json:"would_apply"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
	Blocked    int `json:"blocked"`
}

// RunRecord is the append-only run log row. The autoincrement ID doubles
// as the monotonic run identifier.
type RunRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RunUID     string    `gorm:"size:36;index" json:"run_uid"`
	Kind       RunKind   `gorm:"size:16" json:"kind"`
	Source     string    `gorm:"type:text" json:"source,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	RunStats   `gorm:"embedded"`
}

func (r *RunRecord) TableName() string {
	return "run_records"
}
