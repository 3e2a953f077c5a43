package repository

import (
	"context"
	"fmt"
	"time"

	"RestaurantSync/internal/interfaces"
	"RestaurantSync/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type quotaRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewQuotaRepository(db *gorm.DB, logger *logrus.Logger) interfaces.QuotaCounter {
	return &quotaRepository{db: db, logger: logger}
}

// Increment 每个档位本月计数 +1；当月记录不存在时按固定上限创建
func (r *quotaRepository) Increment(ctx context.Context, now time.Time, tiers ...string) error {
	month := model.MonthKey(now)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tier := range tiers {
			limit, ok := model.QuotaLimits[tier]
			if !ok {
				r.logger.WithField("api_service", tier).Warn("未知的API档位，跳过计数")
				continue
			}
			row := model.GoogleAPIQuota{
				MonthYear:  month,
				APIService: tier,
				QuotaLimit: limit,
				QuotaUsed:  1,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "month_year"}, {Name: "api_service"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"quota_used": gorm.Expr("quota_used + 1"),
					"updated_at": now,
				}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("更新API配额失败: %w, month: %s, service: %s", err, month, tier)
			}
		}
		return nil
	})
}

func (r *quotaRepository) Usage(ctx context.Context, month time.Time) ([]model.GoogleAPIQuota, error) {
	var list []model.GoogleAPIQuota
	if err := r.db.WithContext(ctx).
		Where("month_year = ?", model.MonthKey(month)).
		Order("api_service ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
