package service

import (
	"sort"
	"strings"
)

// Reconciliation 收藏列表与库内名称的差集
type Reconciliation struct {
	ToCreate []string // 列表中有、库里没有
	ToRemove []string // 库里有、列表中已没有
}

// Reconcile 按去首尾空格后的精确名称比对，不做模糊匹配
func Reconcile(desired, stored []string) Reconciliation {
	want := nameSet(desired)
	have := nameSet(stored)

	res := Reconciliation{ToCreate: []string{}, ToRemove: []string{}}
	for name := range want {
		if _, ok := have[name]; !ok {
			res.ToCreate = append(res.ToCreate, name)
		}
	}
	for name := range have {
		if _, ok := want[name]; !ok {
			res.ToRemove = append(res.ToRemove, name)
		}
	}
	sort.Strings(res.ToCreate)
	sort.Strings(res.ToRemove)
	return res
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
