package parser

import (
	"fmt"
	"strings"

	"RestaurantSync/internal/model"
)

// weekdayNames 0=周日..6=周六（pt-BR）
var weekdayNames = [7]string{
	"Domingo",
	"Segunda-feira",
	"Terça-feira",
	"Quarta-feira",
	"Quinta-feira",
	"Sexta-feira",
	"Sábado",
}

// DayName 返回星期名称；越界返回空串
func DayName(day int) string {
	if day < 0 || day >= len(weekdayNames) {
		return ""
	}
	return weekdayNames[day]
}

// NormalizeOpeningHours 把稀疏的营业时段补全为 7 天：
// 有时段的日子按输入顺序在前，缺失的日子按 0..6 补为休息日。
// 同一天出现多个时段时以最后一个为准；输入为空时返回空列表。
func NormalizeOpeningHours(periods []model.OpeningPeriod) []model.ScheduleEntry {
	if len(periods) == 0 {
		return []model.ScheduleEntry{}
	}

	entries := make([]model.ScheduleEntry, 0, 7)
	position := make(map[int]int, 7)
	for _, p := range periods {
		if DayName(p.DayOfWeek) == "" {
			continue
		}
		opens := formatClock(p.OpenHour, p.OpenMinute)
		closes := formatClock(p.CloseHour, p.CloseMinute)
		entry := model.ScheduleEntry{
			DayIndex: p.DayOfWeek,
			DayName:  DayName(p.DayOfWeek),
			OpensAt:  &opens,
			ClosesAt: &closes,
			IsOpen:   true,
		}
		if i, seen := position[p.DayOfWeek]; seen {
			entries[i] = entry
			continue
		}
		position[p.DayOfWeek] = len(entries)
		entries = append(entries, entry)
	}

	// API 不返回休息日，这里补齐
	for day := 0; day < len(weekdayNames); day++ {
		if _, open := position[day]; open {
			continue
		}
		entries = append(entries, model.ScheduleEntry{
			DayIndex: day,
			DayName:  DayName(day),
			IsOpen:   false,
		})
	}
	return entries
}

// PeriodsFromPlace 把 Places 的 periods 转为 OpeningPeriod；open.day 缺失的时段丢弃
func PeriodsFromPlace(periods []model.PlacePeriod) []model.OpeningPeriod {
	out := make([]model.OpeningPeriod, 0, len(periods))
	for _, p := range periods {
		if p.Open == nil || p.Open.Day == nil {
			continue
		}
		op := model.OpeningPeriod{
			DayOfWeek:  *p.Open.Day,
			OpenHour:   p.Open.Hour,
			OpenMinute: p.Open.Minute,
		}
		if p.Close != nil {
			op.CloseHour = p.Close.Hour
			op.CloseMinute = p.Close.Minute
		}
		out = append(out, op)
	}
	return out
}

// FormatHoursDescription 合并 weekdayDescriptions：去掉窄空格，用 ", " 连接
func FormatHoursDescription(lines []string) *string {
	if len(lines) == 0 {
		return nil
	}
	joined := strings.ReplaceAll(strings.Join(lines, ", "), "\u2009", "")
	return &joined
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
