package repository

import (
	"context"
	"errors"
	"fmt"

	"RestaurantSync/internal/interfaces"
	"RestaurantSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound 查询的餐厅不存在
var ErrNotFound = errors.New("restaurant not found")

// restaurantUpsertColumns google_id 冲突时整行覆盖的列（created_at 保持不变）
var restaurantUpsertColumns = []string{
	"google_name", "google_display_name",
	"street_type", "street_name", "street_number", "street_complement", "street_neighborhood",
	"postalcode", "city", "state", "country",
	"business_status", "editorial_summary", "google_url",
	"latitude", "longitude", "ratings", "vegetarian_food", "website",
	"opening_hours_description", "weekday_descriptions", "primary_type",
	"updated_at",
}

type restaurantRepository struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) interfaces.RestaurantRepository {
	return &restaurantRepository{db: db}
}

// Commit 一个事务内完成：
// 1. 按 google_id upsert 餐厅并取回主键
// 2. 删除并重建营业时间
// 3. 插入类型标签（已存在则忽略），主类型单独处理，保证每个餐厅最多一个主类型
func (r *restaurantRepository) Commit(ctx context.Context, rec *model.EnrichedRestaurant) (uint64, error) {
	if rec == nil || rec.ExternalID() == "" {
		return 0, errors.New("餐厅记录缺少 google_id")
	}

	var id uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := rec.Restaurant
		row.ID = 0
		row.OpeningHours = nil
		row.Types = nil
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "google_id"}},
			DoUpdates: clause.AssignmentColumns(restaurantUpsertColumns),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("写入餐厅失败: %w, google_id: %s", err, row.GoogleID)
		}

		// 冲突更新时不一定回填 id，统一按 google_id 回查
		var stored model.Restaurant
		if err := tx.Select("id").Where("google_id = ?", row.GoogleID).Take(&stored).Error; err != nil {
			return fmt.Errorf("回查餐厅ID失败: %w, google_id: %s", err, row.GoogleID)
		}
		id = stored.ID

		if err := replaceSchedule(tx, id, rec.Schedule); err != nil {
			return err
		}
		return insertTypes(tx, id, rec.Types, rec.PrimaryType)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func replaceSchedule(tx *gorm.DB, restaurantID uint64, schedule []model.ScheduleEntry) error {
	if err := tx.Where("restaurant_id = ?", restaurantID).Delete(&model.OpeningHours{}).Error; err != nil {
		return fmt.Errorf("删除营业时间失败: %w, restaurant_id: %d", err, restaurantID)
	}
	if len(schedule) == 0 {
		return nil
	}

	rows := make([]model.OpeningHours, 0, len(schedule))
	for _, e := range schedule {
		rows = append(rows, model.OpeningHours{
			RestaurantID: restaurantID,
			DayIndex:     e.DayIndex,
			DayOfWeek:    e.DayName,
			OpensAt:      e.OpensAt,
			ClosesAt:     e.ClosesAt,
			IsOpened:     e.IsOpen,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("写入营业时间失败: %w, restaurant_id: %d", err, restaurantID)
	}
	return nil
}

// insertTypes 标签只增不删；主类型插入前先清掉其他标签的主类型标记
func insertTypes(tx *gorm.DB, restaurantID uint64, types []string, primary *string) error {
	if len(types) > 0 {
		rows := make([]model.RestaurantType, 0, len(types))
		for _, t := range types {
			rows = append(rows, model.RestaurantType{RestaurantID: restaurantID, RestaurantType: t})
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "restaurant_id"}, {Name: "restaurant_type"}},
			DoNothing: true,
		}).Create(&rows).Error; err != nil {
			return fmt.Errorf("写入类型标签失败: %w, restaurant_id: %d", err, restaurantID)
		}
	}

	if primary == nil || *primary == "" {
		return nil
	}
	if err := tx.Model(&model.RestaurantType{}).
		Where("restaurant_id = ? AND restaurant_type <> ? AND is_primary_type = ?", restaurantID, *primary, true).
		Update("is_primary_type", false).Error; err != nil {
		return fmt.Errorf("重置主类型失败: %w, restaurant_id: %d", err, restaurantID)
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "restaurant_id"}, {Name: "restaurant_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_primary_type"}),
	}).Create(&model.RestaurantType{
		RestaurantID:   restaurantID,
		RestaurantType: *primary,
		IsPrimaryType:  true,
	}).Error; err != nil {
		return fmt.Errorf("写入主类型失败: %w, restaurant_id: %d", err, restaurantID)
	}
	return nil
}

func (r *restaurantRepository) ListStoredNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&model.Restaurant{}).Order("google_name ASC").Pluck("google_name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

func (r *restaurantRepository) ListStored(ctx context.Context) ([]interfaces.StoredRestaurant, error) {
	var list []interfaces.StoredRestaurant
	if err := r.db.WithContext(ctx).Model(&model.Restaurant{}).
		Select("id", "google_id", "google_name").
		Order("id ASC").
		Scan(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteByNames 子表没有依赖数据库级联，显式先删
func (r *restaurantRepository) DeleteByNames(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{}, nil
	}

	removed := []string{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []model.Restaurant
		if err := tx.Select("id", "google_name").Where("google_name IN ?", names).Order("google_name ASC").Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]uint64, 0, len(rows))
		seen := make(map[string]struct{}, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
			if _, ok := seen[row.GoogleName]; !ok {
				seen[row.GoogleName] = struct{}{}
				removed = append(removed, row.GoogleName)
			}
		}

		if err := tx.Where("restaurant_id IN ?", ids).Delete(&model.OpeningHours{}).Error; err != nil {
			return fmt.Errorf("删除营业时间失败: %w", err)
		}
		if err := tx.Where("restaurant_id IN ?", ids).Delete(&model.RestaurantType{}).Error; err != nil {
			return fmt.Errorf("删除类型标签失败: %w", err)
		}
		if err := tx.Where("id IN ?", ids).Delete(&model.Restaurant{}).Error; err != nil {
			return fmt.Errorf("删除餐厅失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *restaurantRepository) List(ctx context.Context, filter interfaces.RestaurantFilter) ([]model.Restaurant, int64, error) {
	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	db := r.db.WithContext(ctx).Model(&model.Restaurant{})
	if filter.City != "" {
		db = db.Where("city = ?", filter.City)
	}
	if filter.Neighborhood != "" {
		db = db.Where("street_neighborhood = ?", filter.Neighborhood)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []model.Restaurant
	if err := db.Order("google_name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *restaurantRepository) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	var rest model.Restaurant
	err := r.db.WithContext(ctx).
		Preload("OpeningHours", func(db *gorm.DB) *gorm.DB { return db.Order("day_index ASC") }).
		Preload("Types", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&rest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rest, nil
}
