package ranking

import (
	"reflect"
	"slices"

	"k8s.io/apimachinery/pkg/util/sets"

	"adwall/internal/model"
)

const (
	// DirtyFullThreshold 脏数据超过列表的该比例时整体重排
	DirtyFullThreshold = 0.15
	// SmallListSize 列表小于该长度时总是整体重排
	SmallListSize = 200
)

// Policy 一次延迟重排采用的策略
type Policy int

const (
	PolicyNone  Policy = iota // 没有需要移动的记录
	PolicyFull                // 整体稳定排序
	PolicyMerge               // 只排序脏记录再归并
)

func (p Policy) String() string {
	switch p {
	case PolicyFull:
		return "full"
	case PolicyMerge:
		return "merge"
	}
	return "none"
}

// Merger 记录自上次重排以来分数可能变化的广告，并在批量重排时选择策略。
// 不是并发安全的，由持有它的 store 加锁保护。
type Merger struct {
	dirty   sets.Set[string]
	pending bool
}

// NewMerger 创建空的 Merger
func NewMerger() *Merger {
	return &Merger{dirty: sets.New[string]()}
}

// MarkDirty 标记广告需要重新定位。返回 true 表示当前没有已安排的重排，调用方需要安排一次。
func (m *Merger) MarkDirty(id string) bool {
	m.dirty.Insert(id)
	if m.pending {
		return false
	}
	m.pending = true
	return true
}

// Pending 是否有已安排但尚未执行的重排
func (m *Merger) Pending() bool {
	return m.pending
}

// DirtyCount 当前脏记录数
func (m *Merger) DirtyCount() int {
	return m.dirty.Len()
}

// RunDeferredResort 执行一次批量重排，返回新列表和采用的策略。
// 开始时即清空脏集合和 pending 标记，之后的 MarkDirty 会重新安排重排。
func (m *Merger) RunDeferredResort(list []*model.Ad) ([]*model.Ad, Policy) {
	dirty := m.dirty
	m.dirty = sets.New[string]()
	m.pending = false

	if dirty.Len() == 0 || len(list) == 0 {
		return list, PolicyNone
	}

	base := make([]entry, 0, len(list))
	var moved []entry
	for i, ad := range list {
		if dirty.Has(ad.ID) {
			moved = append(moved, entry{ad: ad, pos: i})
		} else {
			base = append(base, entry{ad: ad, pos: i})
		}
	}
	if len(moved) == 0 {
		return list, PolicyNone
	}

	if float64(len(moved)) > float64(len(list))*DirtyFullThreshold || len(list) < SmallListSize || !sortedEntries(base) {
		return Resort(list), PolicyFull
	}
	return mergeInsert(base, moved), PolicyMerge
}

// entry 记录及其在重排前列表中的位置，位置用于比较相等时保持稳定
type entry struct {
	ad  *model.Ad
	pos int
}

func compareEntries(a, b entry) int {
	if c := Compare(a.ad, b.ad); c != 0 {
		return c
	}
	return a.pos - b.pos
}

func sortedEntries(list []entry) bool {
	return slices.IsSortedFunc(list, compareEntries)
}

// mergeInsert 对 moved 排序后与已排序的 base 做一次线性归并，结果与对原列表稳定排序一致
func mergeInsert(base, moved []entry) []*model.Ad {
	slices.SortFunc(moved, compareEntries)
	out := make([]*model.Ad, 0, len(base)+len(moved))
	i, j := 0, 0
	for i < len(base) && j < len(moved) {
		if compareEntries(moved[j], base[i]) < 0 {
			out = append(out, moved[j].ad)
			j++
		} else {
			out = append(out, base[i].ad)
			i++
		}
	}
	for ; i < len(base); i++ {
		out = append(out, base[i].ad)
	}
	for ; j < len(moved); j++ {
		out = append(out, moved[j].ad)
	}
	return out
}

// SameFields 两条记录的可见字段是否完全一致
func SameFields(a, b *model.Ad) bool {
	return a.ID == b.ID &&
		a.TypeID == b.TypeID &&
		a.Publisher == b.Publisher &&
		a.Title == b.Title &&
		a.Content == b.Content &&
		a.Heat == b.Heat &&
		a.Price == b.Price &&
		a.LandingURL == b.LandingURL &&
		slices.Equal(a.VideoIDs, b.VideoIDs) &&
		slices.Equal(a.VideoURLs, b.VideoURLs) &&
		reflect.DeepEqual(a.ExtInfo, b.ExtInfo) &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

// MergeByID 按服务端返回的顺序合并列表。字段没有变化的记录沿用 current 中的指针，
// 这样下游可以用指针比较判断记录是否变化。
func MergeByID(current, incoming []*model.Ad) []*model.Ad {
	byID := make(map[string]*model.Ad, len(current))
	for _, ad := range current {
		byID[ad.ID] = ad
	}
	out := make([]*model.Ad, 0, len(incoming))
	for _, next := range incoming {
		if prev, ok := byID[next.ID]; ok && SameFields(prev, next) {
			out = append(out, prev)
			continue
		}
		out = append(out, next)
	}
	return out
}

// ReplaceByID 用 ad 替换列表中同 ID 的记录，位置不变。
// 字段完全一致或找不到记录时返回原列表和 false。
func ReplaceByID(list []*model.Ad, ad *model.Ad) ([]*model.Ad, bool) {
	i := slices.IndexFunc(list, func(a *model.Ad) bool { return a.ID == ad.ID })
	if i < 0 || SameFields(list[i], ad) {
		return list, false
	}
	out := slices.Clone(list)
	out[i] = ad
	return out, true
}

// Find 按 ID 查找记录
func Find(list []*model.Ad, id string) *model.Ad {
	for _, ad := range list {
		if ad.ID == id {
			return ad
		}
	}
	return nil
}
