package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"RestaurantSync/internal/model"
	"RestaurantSync/internal/parser"

	"gorm.io/datatypes"
)

// Enrich 把一条 Places 详情组装成可入库的记录。
// 缺失的可选字段一律为 nil，只有 vegetarian_food 缺失时取 false。
func Enrich(name string, detail *model.PlaceDetail) (*model.EnrichedRestaurant, error) {
	if detail == nil || strings.TrimSpace(detail.ID) == "" {
		return nil, fmt.Errorf("%w: 缺少 place id", ErrInvalidDetail)
	}
	if detail.FormattedAddress == nil || strings.TrimSpace(*detail.FormattedAddress) == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingAddress, detail.ID)
	}

	addr := parser.ParseAddress(*detail.FormattedAddress)
	r := model.Restaurant{
		GoogleID:           detail.ID,
		GoogleName:         strings.TrimSpace(name),
		GoogleDisplayName:  detail.DisplayName.TextPtr(),
		StreetType:         addr.StreetType,
		StreetName:         addr.StreetName,
		StreetNumber:       addr.StreetNumber,
		StreetComplement:   addr.StreetComplement,
		StreetNeighborhood: addr.StreetNeighborhood,
		PostalCode:         addr.PostalCode,
		City:               addr.City,
		State:              addr.State,
		Country:            addr.Country,
		BusinessStatus:     detail.BusinessStatus,
		EditorialSummary:   detail.EditorialSummary.TextPtr(),
		GoogleURL:          detail.GoogleMapsURI,
		Ratings:            detail.Rating,
		Website:            detail.WebsiteURI,
		PrimaryType:        detail.PrimaryTypeDisplayName.TextPtr(),
	}
	if detail.Location != nil {
		r.Latitude = detail.Location.Latitude
		r.Longitude = detail.Location.Longitude
	}
	if detail.ServesVegetarianFood != nil {
		r.VegetarianFood = *detail.ServesVegetarianFood
	}

	schedule := []model.ScheduleEntry{}
	if hours := detail.RegularOpeningHours; hours != nil {
		schedule = parser.NormalizeOpeningHours(parser.PeriodsFromPlace(hours.Periods))
		r.OpeningHoursDescription = parser.FormatHoursDescription(hours.WeekdayDescriptions)
		if len(hours.WeekdayDescriptions) > 0 {
			raw, err := json.Marshal(hours.WeekdayDescriptions)
			if err != nil {
				return nil, fmt.Errorf("%w: weekdayDescriptions: %v", ErrInvalidDetail, err)
			}
			r.WeekdayDescriptions = datatypes.JSON(raw)
		}
	}

	return &model.EnrichedRestaurant{
		Restaurant:  r,
		Schedule:    schedule,
		Types:       uniqueTypes(detail.Types),
		PrimaryType: r.PrimaryType,
	}, nil
}

func uniqueTypes(types []string) []string {
	out := make([]string, 0, len(types))
	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
