package interfaces

import (
	"context"
	"time"

	"RestaurantSync/internal/model"
)

// StoredRestaurant 刷新时需要的最小信息
type StoredRestaurant struct {
	ID         uint64
	GoogleID   string
	GoogleName string
}

// RestaurantFilter 列表查询条件
type RestaurantFilter struct {
	City         string
	Neighborhood string
	Page         int
	PageSize     int
}

// RestaurantRepository 餐厅存储
type RestaurantRepository interface {
	// Commit 在一个事务内写入餐厅、营业时间、类型标签，返回代理主键
	Commit(ctx context.Context, rec *model.EnrichedRestaurant) (uint64, error)
	ListStoredNames(ctx context.Context) ([]string, error)
	ListStored(ctx context.Context) ([]StoredRestaurant, error)
	// DeleteByNames 删除列表中已移除的餐厅（连同子表），返回实际删除的名称
	DeleteByNames(ctx context.Context, names []string) ([]string, error)
	List(ctx context.Context, filter RestaurantFilter) ([]model.Restaurant, int64, error)
	GetByID(ctx context.Context, id uint64) (*model.Restaurant, error)
}

// QuotaCounter 月度 API 用量计数
type QuotaCounter interface {
	Increment(ctx context.Context, now time.Time, tiers ...string) error
	Usage(ctx context.Context, month time.Time) ([]model.GoogleAPIQuota, error)
}

// RunRepository 同步结果持久化
type RunRepository interface {
	Save(ctx context.Context, report *model.IngestionReport) error
	Recent(ctx context.Context, limit int) ([]model.IngestionRun, error)
}
