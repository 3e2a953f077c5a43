package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"RestaurantSync/internal/model"
)

// streetTypes 按顺序匹配：全称在前，缩写在后
var streetTypes = []string{
	"Avenida", "Rua", "Alameda", "Travessa", "Praça",
	"Rodovia", "Estrada", "Viela", "Largo", "Beco",
	"Av.", "Al.", "R.", "Tv.", "Pç.",
}

var (
	countryPattern    = regexp.MustCompile(`,\s*([^,]+)$`)
	postalCodePattern = regexp.MustCompile(`\b(\d{5}-?\d{3})\b`)
	statePattern      = regexp.MustCompile(`-\s*([A-Z]{2})\s*,?\s*$`)
	leadingDash       = regexp.MustCompile(`^\s*-\s*`)
	edgeDashes        = regexp.MustCompile(`^\s*-\s*|\s*-\s*$`)
	numberOnly        = regexp.MustCompile(`^\d+[A-Za-z]?$`)
	numberThenDash    = regexp.MustCompile(`^(\d+[A-Za-z]?)\s*-\s*(.+)$`)
	numberThenSpace   = regexp.MustCompile(`^(\d+[A-Za-z]?)\s+(.+)$`)
)

// ParseAddress 将 Places 返回的 formattedAddress 拆成结构化字段。
// 先从右往左取 国家 → 邮编 → 州 → 城市，再从左往右取 街道类型+名称 → 门牌号 → 补充信息/街区。
// 每一步只消费自己匹配到的文本，匹配失败时字段留空，永不报错。
func ParseAddress(raw string) model.StructuredAddress {
	var out model.StructuredAddress

	address := strings.Join(strings.Fields(raw), " ")
	if address == "" {
		return out
	}

	// 国家：最后一个逗号之后
	if m := countryPattern.FindStringSubmatchIndex(address); m != nil {
		out.Country = optional(address[m[2]:m[3]])
		address = strings.TrimSpace(address[:m[0]])
	}

	// 邮编：00000-000 或 00000000，去掉横杠
	if m := postalCodePattern.FindStringSubmatchIndex(address); m != nil {
		out.PostalCode = optional(strings.ReplaceAll(address[m[2]:m[3]], "-", ""))
		address = strings.Trim(address[:m[0]]+address[m[1]:], " ,")
	}

	// 州：结尾的 "- UF"
	if m := statePattern.FindStringSubmatchIndex(address); m != nil {
		out.State = optional(address[m[2]:m[3]])
		address = strings.TrimSpace(address[:m[0]])
	}

	// 城市：剩余部分的最后一段
	if address != "" {
		segments := strings.Split(address, ",")
		out.City = optional(segments[len(segments)-1])
		address = strings.TrimSpace(strings.Join(segments[:len(segments)-1], ","))
	}

	if address == "" {
		return out
	}

	// 剩余：街道类型+名称, 门牌号, [补充信息...], 街区
	var parts []string
	for _, p := range strings.Split(address, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return out
	}

	streetType, streetName := splitStreetType(parts[0])
	out.StreetType = optional(streetType)
	out.StreetName = optional(streetName)
	parts = parts[1:]

	if len(parts) > 0 {
		var number string
		number, parts = takeStreetNumber(parts)
		out.StreetNumber = optional(number)
	}

	if len(parts) > 0 {
		var neighborhood string
		neighborhood, parts = takeNeighborhood(parts)
		out.StreetNeighborhood = optional(neighborhood)
	}

	var complements []string
	for _, p := range parts {
		if p = strings.TrimSpace(edgeDashes.ReplaceAllString(p, "")); p != "" {
			complements = append(complements, p)
		}
	}
	if len(complements) > 0 {
		out.StreetComplement = optional(strings.Join(complements, " - "))
	}

	return out
}

// splitStreetType 识别首段的街道类型前缀；未识别时整段作为街道名称
func splitStreetType(segment string) (streetType, streetName string) {
	for _, st := range streetTypes {
		if hasTypePrefix(segment, st) {
			return st, strings.TrimSpace(segment[len(st):])
		}
	}
	return "", strings.TrimSpace(segment)
}

// hasTypePrefix 前缀匹配且落在词边界上（"Ruação" 不算 "Rua"）
func hasTypePrefix(segment, token string) bool {
	if !strings.HasPrefix(segment, token) {
		return false
	}
	if strings.HasSuffix(token, ".") || len(segment) == len(token) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(segment[len(token):])
	return unicode.IsSpace(next)
}

// takeStreetNumber 从下一段取门牌号；"275 - Pinheiros" 之类的剩余部分放回去
func takeStreetNumber(parts []string) (string, []string) {
	candidate := strings.TrimSpace(leadingDash.ReplaceAllString(parts[0], ""))

	if numberOnly.MatchString(candidate) {
		return candidate, parts[1:]
	}
	for _, p := range []*regexp.Regexp{numberThenDash, numberThenSpace} {
		if m := p.FindStringSubmatch(candidate); m != nil {
			rest := make([]string, len(parts))
			copy(rest, parts)
			rest[0] = m[2]
			return m[1], rest
		}
	}
	return "", parts
}

// takeNeighborhood 最后一段为街区；"loja 14 - Consolação" 按最后一个 " - " 拆开，前半段归入补充信息
func takeNeighborhood(parts []string) (string, []string) {
	last := strings.TrimSpace(leadingDash.ReplaceAllString(parts[len(parts)-1], ""))
	rest := parts[:len(parts)-1]

	idx := strings.LastIndex(last, " - ")
	if idx == -1 {
		return last, rest
	}
	neighborhood := strings.TrimSpace(last[idx+3:])
	if before := strings.TrimSpace(last[:idx]); before != "" {
		rest = append(append([]string{}, rest...), before)
	}
	return neighborhood, rest
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
