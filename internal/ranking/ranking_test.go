package ranking

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adwall/internal/model"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func ad(id string, price float64, heat int64, created time.Time) *model.Ad {
	return &model.Ad{ID: id, Price: price, Heat: heat, CreatedAt: created}
}

func ids(list []*model.Ad) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func randomList(r *rand.Rand, n int) []*model.Ad {
	list := make([]*model.Ad, n)
	for i := range list {
		list[i] = ad(fmt.Sprintf("ad-%04d", i), float64(r.Intn(2000))/10, int64(r.Intn(50)), t0.Add(time.Duration(r.Intn(n))*time.Minute))
	}
	return list
}

func TestScore(t *testing.T) {
	assert.Equal(t, 10.0, Score(10, 0))
	assert.InDelta(t, 26.0, Score(5, 10), 1e-9)
	assert.Equal(t, 0.0, Score(0, 100))
}

func TestResort_ScoreDescending(t *testing.T) {
	a := ad("A", 10, 0, t0)
	b := ad("B", 5, 10, t0)

	got := Resort([]*model.Ad{a, b})

	assert.Equal(t, []string{"B", "A"}, ids(got))
}

func TestResort_TieBrokenByRecency(t *testing.T) {
	a := ad("A", 10, 0, t0)
	b := ad("B", 10, 0, t0.Add(time.Hour))

	got := Resort([]*model.Ad{a, b})

	assert.Equal(t, []string{"B", "A"}, ids(got))
}

func TestResort_FullTieBrokenByID(t *testing.T) {
	x := ad("x", 10, 0, t0)
	y := ad("y", 10, 0, t0)
	z := ad("z", 10, 0, t0)

	assert.Equal(t, []string{"z", "y", "x"}, ids(Resort([]*model.Ad{x, y, z})))
	assert.Equal(t, []string{"z", "y", "x"}, ids(Resort([]*model.Ad{y, x, z})))
	assert.Equal(t, 0, Compare(x, x.Clone()))
}

func TestResort_IdempotentAndPure(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	list := randomList(r, 300)
	before := ids(list)

	once := Resort(list)
	twice := Resort(once)

	assert.Equal(t, before, ids(list), "input must not be reordered")
	assert.Equal(t, ids(once), ids(twice))
	assert.True(t, IsSorted(once))
}

func TestMerger_MarkDirtySchedulesOnce(t *testing.T) {
	m := NewMerger()

	assert.True(t, m.MarkDirty("a"))
	assert.False(t, m.MarkDirty("b"))
	assert.False(t, m.MarkDirty("a"))
	assert.True(t, m.Pending())
	assert.Equal(t, 2, m.DirtyCount())

	_, _ = m.RunDeferredResort(nil)
	assert.False(t, m.Pending())
	assert.Equal(t, 0, m.DirtyCount())
	assert.True(t, m.MarkDirty("a"))
}

func TestMerger_NoDirtyItemsInList(t *testing.T) {
	m := NewMerger()
	list := []*model.Ad{ad("A", 1, 0, t0), ad("B", 2, 0, t0)}
	m.MarkDirty("missing")

	got, policy := m.RunDeferredResort(list)

	assert.Equal(t, PolicyNone, policy)
	assert.Equal(t, ids(list), ids(got))
}

func TestMerger_SmallListUsesFullResort(t *testing.T) {
	m := NewMerger()
	list := Resort(randomList(rand.New(rand.NewSource(1)), 50))
	list[10] = ad(list[10].ID, 9999, 0, list[10].CreatedAt)
	m.MarkDirty(list[10].ID)

	got, policy := m.RunDeferredResort(list)

	assert.Equal(t, PolicyFull, policy)
	assert.Equal(t, list[10].ID, got[0].ID)
}

func TestMerger_FewDirtyOfManyUsesMergeInsert(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	list := Resort(randomList(r, 1000))
	m := NewMerger()

	for _, i := range []int{3, 500, 998} {
		list[i] = ad(list[i].ID, float64(r.Intn(2000))/10, int64(r.Intn(50)), list[i].CreatedAt)
		m.MarkDirty(list[i].ID)
	}
	want := Resort(list)

	got, policy := m.RunDeferredResort(list)

	assert.Equal(t, PolicyMerge, policy)
	if diff := cmp.Diff(ids(want), ids(got)); diff != "" {
		t.Errorf("merge-insert order differs from full resort (-want +got):\n%s", diff)
	}
}

func TestMerger_ManyDirtyUsesFullResort(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	list := Resort(randomList(r, 400))
	m := NewMerger()
	for i := 0; i < 100; i++ {
		list[i] = ad(list[i].ID, float64(r.Intn(2000))/10, 0, list[i].CreatedAt)
		m.MarkDirty(list[i].ID)
	}

	got, policy := m.RunDeferredResort(list)

	assert.Equal(t, PolicyFull, policy)
	assert.Equal(t, ids(Resort(list)), ids(got))
}

func TestMerger_AnyDirtySequenceMatchesFullResort(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for round := 0; round < 25; round++ {
		n := 150 + r.Intn(600)
		list := Resort(randomList(r, n))
		m := NewMerger()

		edits := 1 + r.Intn(n/4)
		for k := 0; k < edits; k++ {
			i := r.Intn(n)
			// 部分记录与其他记录分数和时间完全相同
			if r.Intn(5) == 0 {
				j := r.Intn(n)
				list[i] = ad(list[i].ID, list[j].Price, list[j].Heat, list[j].CreatedAt)
			} else {
				list[i] = ad(list[i].ID, float64(r.Intn(2000))/10, int64(r.Intn(50)), list[i].CreatedAt)
			}
			m.MarkDirty(list[i].ID)
		}
		want := Resort(list)

		got, _ := m.RunDeferredResort(list)

		require.Equal(t, ids(want), ids(got), "round %d", round)
	}
}

func TestMergeByID(t *testing.T) {
	a := ad("A", 10, 0, t0)
	b := ad("B", 5, 0, t0)
	c := ad("C", 1, 0, t0)
	current := []*model.Ad{a, b, c}

	newB := ad("B", 50, 0, t0)
	sameA := ad("A", 10, 0, t0)
	d := ad("D", 2, 0, t0)

	got := MergeByID(current, []*model.Ad{newB, sameA, d})

	require.Len(t, got, 3)
	assert.Same(t, newB, got[0])
	assert.Same(t, a, got[1], "unchanged record keeps its pointer")
	assert.Same(t, d, got[2])
}

func TestReplaceByID(t *testing.T) {
	a := ad("A", 10, 0, t0)
	b := ad("B", 5, 0, t0)
	list := []*model.Ad{a, b}

	same, changed := ReplaceByID(list, ad("A", 10, 0, t0))
	assert.False(t, changed)
	assert.Same(t, a, same[0])

	updated := ad("A", 11, 0, t0)
	got, changed := ReplaceByID(list, updated)
	assert.True(t, changed)
	assert.Same(t, updated, got[0])
	assert.Same(t, a, list[0], "input list must not be modified")

	_, changed = ReplaceByID(list, ad("Z", 1, 0, t0))
	assert.False(t, changed)
}

func TestSameFields(t *testing.T) {
	a := &model.Ad{ID: "A", Price: 1, ExtInfo: model.ExtInfo{"k": "v"}, VideoIDs: model.VideoIDs{"v1"}}
	b := a.Clone()
	assert.True(t, SameFields(a, b))

	b.ExtInfo["k"] = "w"
	assert.False(t, SameFields(a, b))
}
