package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"RestaurantSync/internal/interfaces"
	"RestaurantSync/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) interfaces.RunRepository {
	return &runRepository{db: db}
}

// Save 保存一次同步的汇总；失败明细与删除列表存为 JSON
func (r *runRepository) Save(ctx context.Context, report *model.IngestionReport) error {
	failures, err := json.Marshal(report.Failed)
	if err != nil {
		return fmt.Errorf("序列化失败明细失败: %w", err)
	}
	removed, err := json.Marshal(report.Removed)
	if err != nil {
		return fmt.Errorf("序列化删除列表失败: %w", err)
	}

	run := &model.IngestionRun{
		RunUUID:    report.RunUUID,
		Kind:       report.Kind,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Candidates: len(report.Candidates),
		Succeeded:  len(report.Succeeded),
		Failed:     len(report.Failed),
		Failures:   datatypes.JSON(failures),
		Removed:    datatypes.JSON(removed),
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("保存同步记录失败: %w, run_uuid: %s", err, report.RunUUID)
	}
	return nil
}

func (r *runRepository) Recent(ctx context.Context, limit int) ([]model.IngestionRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var list []model.IngestionRun
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
