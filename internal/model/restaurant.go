package model

import "time"

// StructuredAddress 解析后的地址，字段为 nil 表示原始地址缺少该部分
type StructuredAddress struct {
	StreetType         *string `json:"street_type"`
	StreetName         *string `json:"street_name"`
	StreetNumber       *string `json:"street_number"`
	StreetComplement   *string `json:"street_complement"`
	StreetNeighborhood *string `json:"street_neighborhood"`
	PostalCode         *string `json:"postalcode"`
	City               *string `json:"city"`
	State              *string `json:"state"`
	Country            *string `json:"country"`
}

// OpeningPeriod 原始营业时段（每天至多一条）
type OpeningPeriod struct {
	DayOfWeek   int // 0=周日..6=周六
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
}

// ScheduleEntry 规范化后的一天
type ScheduleEntry struct {
	DayIndex int     `json:"day_index"`
	DayName  string  `json:"day_name"`
	OpensAt  *string `json:"opens_at"`
	ClosesAt *string `json:"closes_at"`
	IsOpen   bool    `json:"is_open"`
}

// EnrichedRestaurant 富化完成、可直接入库的记录
type EnrichedRestaurant struct {
	Restaurant  Restaurant      // 标量字段（ID/时间戳由存储层维护）
	Schedule    []ScheduleEntry // 0 或 7 条
	Types       []string        // 类型标签，均为非主类型
	PrimaryType *string         // 主类型标签
}

// ExternalID 返回 Places ID
func (e *EnrichedRestaurant) ExternalID() string {
	return e.Restaurant.GoogleID
}

// FailureKind 单条失败的分类
type FailureKind string

const (
	FailureFetch          FailureKind = "fetch_failure"
	FailureNotFound       FailureKind = "not_found"
	FailureMissingAddress FailureKind = "missing_address"
	FailureInvalidDetail  FailureKind = "invalid_detail"
	FailureTransaction    FailureKind = "transaction_failure"
	FailureQuotaExhausted FailureKind = "quota_exhausted"
)

// RunKind 同步类型
const (
	RunKindCreate  = "create"
	RunKindRefresh = "refresh"
)

// ItemSuccess 单条成功
type ItemSuccess struct {
	Name         string `json:"name"`
	ExternalID   string `json:"external_id"`
	RestaurantID uint64 `json:"restaurant_id"`
}

// ItemFailure 单条失败
type ItemFailure struct {
	Name   string      `json:"name"`
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
}

// IngestionReport 一次同步的结果
type IngestionReport struct {
	RunUUID    string        `json:"run_uuid"`
	Kind       string        `json:"kind"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Candidates []string      `json:"candidates"`
	Succeeded  []ItemSuccess `json:"succeeded"`
	Failed     []ItemFailure `json:"failed"`
	Removed    []string      `json:"removed"`
}
