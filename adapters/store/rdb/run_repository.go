package rdb

import (
	"context"

	"gorm.io/gorm"

	"github.com/denvops/denv/domain"
	"github.com/denvops/denv/domain/model"
)

type RunRepository struct{ db *gorm.DB }

func NewRunRepository(db *gorm.DB) *RunRepository { return &RunRepository{db: db} }

func (r *RunRepository) Latest(ctx context.Context) (*domain.Run, error) {
	var rec RunRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&rec).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, model.ErrRunNotFound
		}
		return nil, err
	}
	var arts []ArtifactRecord
	if err := r.db.WithContext(ctx).Where("run_id = ?", rec.ID).Order("id ASC").Find(&arts).Error; err != nil {
		return nil, err
	}
	run := &domain.Run{ID: rec.ID, ConfigHash: rec.ConfigHash, CreatedAt: rec.CreatedAt}
	for _, a := range arts {
		run.Artifacts = append(run.Artifacts, a.Path)
	}
	return run, nil
}

func (r *RunRepository) Record(ctx context.Context, run *domain.Run) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := &RunRecord{ID: run.ID, ConfigHash: run.ConfigHash, CreatedAt: run.CreatedAt}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		for _, p := range run.Artifacts {
			if err := tx.Create(&ArtifactRecord{RunID: run.ID, Path: p}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var _ domain.RunRepository = (*RunRepository)(nil)
