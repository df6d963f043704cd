package repository

import (
	"fmt"

	"gorm.io/gorm"

	"jobpilot/internal/model"
)

// RunRepository appends to and reads the run log. Rows are written once
// at the end of a stage and never updated.
type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db}
}

func (r *RunRepository) Append(run *model.RunRecord) error {
	if err := r.db.Create(run).Error; err != nil {
		return fmt.Errorf("append run record: %w", err)
	}
	return nil
}

// Recent returns the newest runs, most recent first.
func (r *RunRepository) Recent(limit int) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []model.RunRecord
	if err := r.db.Order("id desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	return runs, nil
}
