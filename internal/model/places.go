package model

// PlaceDetail Places API v1 详情接口的原始返回（只声明用到的字段）
// 所有可选字段均为指针：缺失即为 nil，不做空串/零值兜底
type PlaceDetail struct {
	ID                     string               `json:"id"`
	DisplayName            *LocalizedText       `json:"displayName,omitempty"`
	FormattedAddress       *string              `json:"formattedAddress,omitempty"`
	Location               *LatLng              `json:"location,omitempty"`
	GoogleMapsURI          *string              `json:"googleMapsUri,omitempty"`
	Types                  []string             `json:"types,omitempty"`
	PrimaryTypeDisplayName *LocalizedText       `json:"primaryTypeDisplayName,omitempty"`
	WebsiteURI             *string              `json:"websiteUri,omitempty"`
	RegularOpeningHours    *RegularOpeningHours `json:"regularOpeningHours,omitempty"`
	BusinessStatus         *string              `json:"businessStatus,omitempty"`
	EditorialSummary       *LocalizedText       `json:"editorialSummary,omitempty"`
	PriceLevel             *string              `json:"priceLevel,omitempty"`
	Rating                 *float64             `json:"rating,omitempty"`
	ServesVegetarianFood   *bool                `json:"servesVegetarianFood,omitempty"`
}

// LocalizedText { "text": "...", "languageCode": "pt" }
type LocalizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// LatLng 经纬度
type LatLng struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// RegularOpeningHours 常规营业时间
type RegularOpeningHours struct {
	Periods             []PlacePeriod `json:"periods,omitempty"`
	WeekdayDescriptions []string      `json:"weekdayDescriptions,omitempty"`
}

// PlacePeriod 一个营业时段；close 缺失表示 24 小时营业
type PlacePeriod struct {
	Open  *PlacePoint `json:"open,omitempty"`
	Close *PlacePoint `json:"close,omitempty"`
}

// PlacePoint 时段端点：day 0=周日..6=周六
type PlacePoint struct {
	Day    *int `json:"day,omitempty"`
	Hour   int  `json:"hour"`
	Minute int  `json:"minute"`
}

// SearchTextResponse places:searchText 的返回
type SearchTextResponse struct {
	Places []struct {
		ID          string         `json:"id"`
		DisplayName *LocalizedText `json:"displayName,omitempty"`
	} `json:"places"`
}

// TextPtr 安全取值：nil 或空文本返回 nil
func (t *LocalizedText) TextPtr() *string {
	if t == nil || t.Text == "" {
		return nil
	}
	s := t.Text
	return &s
}
