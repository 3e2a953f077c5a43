package model

import (
	"time"

	"gorm.io/datatypes"
)

// Restaurant 对应 restaurants 表；google_id 为业务唯一键，id 为首次插入时分配的代理主键
type Restaurant struct {
	ID                      uint64           `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	GoogleID                string           `gorm:"column:google_id;type:varchar(255);uniqueIndex;not null;comment:Google Place ID" json:"google_id"`
	GoogleName              string           `gorm:"column:google_name;type:varchar(255);index;not null;comment:收藏列表中的名称" json:"google_name"`
	GoogleDisplayName       *string          `gorm:"column:google_display_name;type:varchar(255);comment:Places显示名称" json:"google_display_name"`
	StreetType              *string          `gorm:"column:street_type;type:varchar(32)" json:"street_type"`
	StreetName              *string          `gorm:"column:street_name;type:varchar(255)" json:"street_name"`
	StreetNumber            *string          `gorm:"column:street_number;type:varchar(32)" json:"street_number"`
	StreetComplement        *string          `gorm:"column:street_complement;type:varchar(255)" json:"street_complement"`
	StreetNeighborhood      *string          `gorm:"column:street_neighborhood;type:varchar(128)" json:"street_neighborhood"`
	PostalCode              *string          `gorm:"column:postalcode;type:varchar(16)" json:"postalcode"`
	City                    *string          `gorm:"column:city;type:varchar(128);index" json:"city"`
	State                   *string          `gorm:"column:state;type:varchar(8)" json:"state"`
	Country                 *string          `gorm:"column:country;type:varchar(64)" json:"country"`
	BusinessStatus          *string          `gorm:"column:business_status;type:varchar(32)" json:"business_status"`
	EditorialSummary        *string          `gorm:"column:editorial_summary;type:text" json:"editorial_summary"`
	GoogleURL               *string          `gorm:"column:google_url;type:text" json:"google_url"`
	Latitude                *float64         `gorm:"column:latitude;type:double precision" json:"latitude"`
	Longitude               *float64         `gorm:"column:longitude;type:double precision" json:"longitude"`
	Ratings                 *float64         `gorm:"column:ratings;type:double precision" json:"ratings"`
	VegetarianFood          bool             `gorm:"column:vegetarian_food;type:boolean;not null;default:false" json:"vegetarian_food"`
	Website                 *string          `gorm:"column:website;type:text" json:"website"`
	OpeningHoursDescription *string          `gorm:"column:opening_hours_description;type:text;comment:营业时间文字描述" json:"opening_hours_description"`
	WeekdayDescriptions     datatypes.JSON   `gorm:"column:weekday_descriptions;type:jsonb;comment:原始每日营业描述" json:"weekday_descriptions"`
	PrimaryType             *string          `gorm:"column:primary_type;type:varchar(128)" json:"primary_type"`
	CreatedAt               time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	OpeningHours            []OpeningHours   `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"opening_hours,omitempty"`
	Types                   []RestaurantType `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE" json:"types,omitempty"`
}

// OpeningHours 对应 opening_hours 表，每个餐厅固定 7 行
type OpeningHours struct {
	ID           uint64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RestaurantID uint64  `gorm:"column:restaurant_id;type:bigint;index;not null" json:"-"`
	DayIndex     int     `gorm:"column:day_index;type:smallint;not null;comment:0=周日..6=周六" json:"day_index"`
	DayOfWeek    string  `gorm:"column:day_of_week;type:varchar(16);not null" json:"day_of_week"`
	OpensAt      *string `gorm:"column:opens_at;type:varchar(5)" json:"opens_at"`
	ClosesAt     *string `gorm:"column:closes_at;type:varchar(5)" json:"closes_at"`
	IsOpened     bool    `gorm:"column:is_opened;type:boolean;not null" json:"is_opened"`
}

// RestaurantType 对应 restaurant_types 表，(restaurant_id, restaurant_type) 唯一
type RestaurantType struct {
	ID             uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RestaurantID   uint64 `gorm:"column:restaurant_id;type:bigint;not null;uniqueIndex:uk_restaurant_type" json:"-"`
	RestaurantType string `gorm:"column:restaurant_type;type:varchar(128);not null;uniqueIndex:uk_restaurant_type" json:"restaurant_type"`
	IsPrimaryType  bool   `gorm:"column:is_primary_type;type:boolean;not null;default:false" json:"is_primary_type"`
}

// GoogleAPIQuota 对应 google_api_quota 表：按 (月份, 服务档位) 计数
type GoogleAPIQuota struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MonthYear  string    `gorm:"column:month_year;type:varchar(10);not null;uniqueIndex:uk_quota_month_service;comment:YYYY-MM-01" json:"month_year"`
	APIService string    `gorm:"column:api_service;type:varchar(16);not null;uniqueIndex:uk_quota_month_service;comment:essential/pro/enterprise" json:"api_service"`
	QuotaLimit int       `gorm:"column:quota_limit;type:int;not null" json:"quota_limit"`
	QuotaUsed  int       `gorm:"column:quota_used;type:int;not null;default:0" json:"quota_used"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IngestionRun 对应 ingestion_runs 表：每次同步的结果汇总
type IngestionRun struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RunUUID    string         `gorm:"column:run_uuid;type:varchar(64);uniqueIndex;not null" json:"run_uuid"`
	Kind       string         `gorm:"column:kind;type:varchar(16);not null;comment:create/refresh" json:"kind"`
	StartedAt  time.Time      `gorm:"column:started_at;type:timestamp;not null" json:"started_at"`
	FinishedAt time.Time      `gorm:"column:finished_at;type:timestamp;not null" json:"finished_at"`
	Candidates int            `gorm:"column:candidates;type:int;not null" json:"candidates"`
	Succeeded  int            `gorm:"column:succeeded;type:int;not null" json:"succeeded"`
	Failed     int            `gorm:"column:failed;type:int;not null" json:"failed"`
	Failures   datatypes.JSON `gorm:"column:failures;type:jsonb" json:"failures"`
	Removed    datatypes.JSON `gorm:"column:removed;type:jsonb" json:"removed"`
}

func (Restaurant) TableName() string     { return "restaurants" }
func (OpeningHours) TableName() string   { return "opening_hours" }
func (RestaurantType) TableName() string { return "restaurant_types" }
func (GoogleAPIQuota) TableName() string { return "google_api_quota" }
func (IngestionRun) TableName() string   { return "ingestion_runs" }

// AllTables 按依赖顺序返回需要 AutoMigrate 的模型
func AllTables() []interface{} {
	return []interface{}{
		&Restaurant{},
		&OpeningHours{},
		&RestaurantType{},
		&GoogleAPIQuota{},
		&IngestionRun{},
	}
}

// Places API 计费档位及每月上限
const (
	QuotaEssential  = "essential"
	QuotaPro        = "pro"
	QuotaEnterprise = "enterprise"
)

var QuotaLimits = map[string]int{
	QuotaEssential:  10000,
	QuotaPro:        5000,
	QuotaEnterprise: 1000,
}

// QuotaTiers 一次详情拉取同时计入三个档位
func QuotaTiers() []string {
	return []string{QuotaEssential, QuotaPro, QuotaEnterprise}
}

// MonthKey 月份键，形如 2024-05-01
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01") + "-01"
}
