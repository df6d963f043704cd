package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"jobpilot/internal/model"
)

var (
	// ErrNotFound is returned when no record exists for the given id.
	ErrNotFound = errors.New("job record not found")
	// ErrIllegalTransition is returned when a status write violates the
	// transition table. The store rejects it rather than trusting callers.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// AttemptMeta carries the bookkeeping of one apply attempt. CountAttempt
// increments attempt_count and refreshes last_action_at; a plain status
// correction leaves both untouched.
type AttemptMeta struct {
	ReasonCode   string
	At           time.Time
	CountAttempt bool
}

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db}
}

// Upsert merges incoming into the store keyed by id and reports whether
// the record was new. Non-blank incoming fields overwrite, blank ones
// never erase previously captured values, and a duplicate sighting never
// moves status backward or resets discovered_at.
func (r *JobRepository) Upsert(incoming *model.JobRecord) (created bool, err error) {
	err = r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.JobRecord
		res := tx.First(&existing, "id = ?", incoming.ID)
		if res.Error != nil {
			if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("lookup %s: %w", incoming.ID, res.Error)
			}
			if incoming.Status == "" {
				incoming.Status = model.StatusNew
			}
			if err := tx.Create(incoming).Error; err != nil {
				return fmt.Errorf("insert %s: %w", incoming.ID, err)
			}
			created = true
			return nil
		}

		mergeText(&existing.Title, incoming.Title)
		mergeText(&existing.Company, incoming.Company)
		mergeText(&existing.URL, incoming.URL)
		mergeText(&existing.ExternalURL, incoming.ExternalURL)
		mergeText(&existing.Description, incoming.Description)
		mergeText(&existing.Language, incoming.Language)

		if err := tx.Save(&existing).Error; err != nil {
			return fmt.Errorf("merge %s: %w", incoming.ID, err)
		}
		return nil
	})
	return created, err
}

func mergeText(dst *string, incoming string) {
	if incoming != "" {
		*dst = incoming
	}
}

// UpdateStatus is the single path by which a record moves through its
// lifecycle. The write is transactional: either the full transition plus
// its attempt bookkeeping lands, or nothing does.
func (r *JobRepository) UpdateStatus(id string, to model.Status, meta AttemptMeta) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var rec model.JobRecord
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return fmt.Errorf("lookup %s: %w", id, err)
		}

		if !model.IsTransitionAllowed(rec.Status, to) {
			return fmt.Errorf("%w: %s → %s (id=%s)", ErrIllegalTransition, rec.Status, to, id)
		}

		rec.Status = to
		if meta.ReasonCode != "" {
			rec.ReasonCode = meta.ReasonCode
		}
		if meta.CountAttempt {
			rec.AttemptCount++
			at := meta.At
			if at.IsZero() {
				at = time.Now()
			}
			rec.LastActionAt = &at
		}

		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("commit status %s for %s: %w", to, id, err)
		}
		return nil
	})
}

// RecordScore writes the scorer verdict and the resulting status in one
// transaction, subject to the same transition validation.
func (r *JobRepository) RecordScore(id string, score float64, reason string, to model.Status) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var rec model.JobRecord
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return fmt.Errorf("lookup %s: %w", id, err)
		}

		if !model.IsTransitionAllowed(rec.Status, to) {
			return fmt.Errorf("%w: %s → %s (id=%s)", ErrIllegalTransition, rec.Status, to, id)
		}

		rec.RelevanceScore = &score
		rec.ScoreReason = reason
		rec.Status = to

		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("commit score for %s: %w", id, err)
		}
		return nil
	})
}

// LoadAll returns every record, oldest sighting first.
func (r *JobRepository) LoadAll() ([]model.JobRecord, error) {
	var recs []model.JobRecord
	if err := r.db.Order("discovered_at asc, id asc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load all: %w", err)
	}
	return recs, nil
}

// LoadByStatus returns records currently in any of the given statuses.
func (r *JobRepository) LoadByStatus(statuses ...model.Status) ([]model.JobRecord, error) {
	var recs []model.JobRecord
	if err := r.db.Where("status IN ?", statuses).
		Order("discovered_at asc, id asc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load by status: %w", err)
	}
	return recs, nil
}

// Page returns one page of records, newest sighting first, optionally
// narrowed to a status. total is the row count before paging.
func (r *JobRepository) Page(status model.Status, page, pageSize int) ([]model.JobRecord, int64, error) {
	q := r.db.Model(&model.JobRecord{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}
	var recs []model.JobRecord
	err := q.Order("discovered_at desc, id asc").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("page records: %w", err)
	}
	return recs, total, nil
}

// Find returns one record by id.
func (r *JobRepository) Find(id string) (*model.JobRecord, error) {
	var rec model.JobRecord
	if err := r.db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("lookup %s: %w", id, err)
	}
	return &rec, nil
}

// CountByStatus returns how many records sit in each status.
func (r *JobRepository) CountByStatus() (map[model.Status]int64, error) {
	type row struct {
		Status model.Status
		N      int64
	}
	var rows []row
	err := r.db.Model(&model.JobRecord{}).
		Select("status, count(*) as n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	counts := make(map[model.Status]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.N
	}
	return counts, nil
}

// LastActionAt returns the most recent last_action_at across all records.
// The Applicator's minimum-interval gate is global, so it survives process
// restarts through this query.
func (r *JobRepository) LastActionAt() (*time.Time, error) {
	var rec model.JobRecord
	err := r.db.Where("last_action_at IS NOT NULL").
		Order("last_action_at desc").First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("last action: %w", err)
	}
	return rec.LastActionAt, nil
}

// Requeue moves scored FAILED records (except manual-verification blocks)
// back to ELIGIBLE so a later run can retry them. Unscored failures are left
// alone: they never made it past scoring and the Evaluator re-scores them.
func (r *JobRepository) Requeue() (int, error) {
	recs, err := r.LoadByStatus(model.StatusFailed)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range recs {
		if rec.ReasonCode == model.ReasonManualVerification {
			continue // a human must clear the gate first
		}
		if !rec.Scored() {
			continue
		}
		err := r.UpdateStatus(rec.ID, model.StatusEligible, AttemptMeta{ReasonCode: model.ReasonRetryNextRun})
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
