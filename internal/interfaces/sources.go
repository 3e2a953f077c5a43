package interfaces

import (
	"context"
	"errors"

	"RestaurantSync/internal/model"
)

// ErrPlaceNotFound 外部没有匹配的地点（正常结果，不重试）
var ErrPlaceNotFound = errors.New("place not found")

// NameSource 收藏列表：返回权威的餐厅名称列表
type NameSource interface {
	ListNames(ctx context.Context) ([]string, error)
}

// DetailSource 按名称查询地点详情；无匹配时返回 ErrPlaceNotFound
type DetailSource interface {
	Fetch(ctx context.Context, name string) (*model.PlaceDetail, error)
}

// PlaceByIDFetcher 可选能力：按已保存的 Place ID 直接拉详情（月度刷新用）
type PlaceByIDFetcher interface {
	FetchByID(ctx context.Context, placeID string) (*model.PlaceDetail, error)
}
