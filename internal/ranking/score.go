// Package ranking 实现广告的排序分数以及本地有序列表的增量维护。
package ranking

import (
	"slices"
	"strings"

	"adwall/internal/model"
)

// HeatWeight 热度在分数中的权重
const HeatWeight = 0.42

// ScoreSQL 与 Score 等价的 SQL 表达式，服务端排序使用
const ScoreSQL = "(a.price + a.price * a.heat * 0.42)"

// OrderSQL 与 Compare 等价的排序子句
const OrderSQL = ScoreSQL + " DESC, a.created_at DESC, a.id DESC"

// Score 排序分数：price + price*heat*0.42
func Score(price float64, heat int64) float64 {
	return price + price*float64(heat)*HeatWeight
}

// AdScore 广告的排序分数
func AdScore(a *model.Ad) float64 {
	return Score(a.Price, a.Heat)
}

// Compare 分数高的在前，分数相同则创建时间晚的在前，再相同按 ID 倒序，保证全序
func Compare(a, b *model.Ad) int {
	sa, sb := AdScore(a), AdScore(b)
	switch {
	case sa > sb:
		return -1
	case sa < sb:
		return 1
	}
	switch {
	case a.CreatedAt.After(b.CreatedAt):
		return -1
	case a.CreatedAt.Before(b.CreatedAt):
		return 1
	}
	return -strings.Compare(a.ID, b.ID)
}

// Resort 返回按 Compare 稳定排序后的新切片，不修改入参
func Resort(list []*model.Ad) []*model.Ad {
	out := slices.Clone(list)
	slices.SortStableFunc(out, Compare)
	return out
}

// IsSorted 列表是否已按 Compare 排好序
func IsSorted(list []*model.Ad) bool {
	return slices.IsSortedFunc(list, Compare)
}
