// Package store 维护客户端的本地广告列表：乐观更新、防抖同步、失败回滚和与服务端对账。
package store

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"adwall/internal/model"
	"adwall/internal/ranking"
	"adwall/pkg/logger"
)

// ErrClosed store 已关闭
var ErrClosed = errors.New("store: 已关闭")

// API 广告服务端接口
type API interface {
	ListAds(ctx context.Context, page, size int) (*model.AdPage, error)
	UpdateAd(ctx context.Context, id string, patch map[string]interface{}) (*model.Ad, error)
	IncrementHeat(ctx context.Context, id string) (*model.Ad, error)
	DeleteAd(ctx context.Context, id string) error
	CopyAd(ctx context.Context, id string) (*model.Ad, error)
}

// Options store 的时间参数
type Options struct {
	Page         int
	PageSize     int
	Debounce     time.Duration // 出价编辑的防抖窗口
	ResortDelay  time.Duration // 标记脏数据到执行重排的延迟
	RefreshDelay time.Duration // 普通更新影响排序时，延迟静默刷新
	Verify       wait.Backoff  // 出价更新后服务端未返回记录时的核对刷新
	Scheduler    Scheduler
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		Page:         1,
		PageSize:     10,
		Debounce:     150 * time.Millisecond,
		ResortDelay:  10 * time.Millisecond,
		RefreshDelay: 2 * time.Second,
		Verify:       wait.Backoff{Duration: 300 * time.Millisecond, Factor: 2, Steps: 4},
		Scheduler:    RealScheduler(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Page <= 0 {
		o.Page = d.Page
	}
	if o.PageSize <= 0 {
		o.PageSize = d.PageSize
	}
	if o.Debounce <= 0 {
		o.Debounce = d.Debounce
	}
	if o.RefreshDelay <= 0 {
		o.RefreshDelay = d.RefreshDelay
	}
	if o.Verify.Steps <= 0 {
		o.Verify = d.Verify
	}
	if o.Scheduler == nil {
		o.Scheduler = d.Scheduler
	}
	return o
}

// pendingWrite 一个广告尚未确认的出价。snapshot 是第一次未确认修改之前的记录，
// 同一广告的后续编辑共用它作为回滚基准；为 nil 表示本地列表中没有该广告。
type pendingWrite struct {
	price    float64
	snapshot *model.Ad
	waiters  []chan error
}

// AdStore 本地广告列表。列表中的记录一经放入就不再修改，变化总是替换为新的记录，
// 因此 Ads 返回的切片可以安全地在锁外读取。
type AdStore struct {
	api    API
	opts   Options
	logger *logger.Logger

	mu        sync.Mutex
	list      []*model.Ad
	page      int
	size      int
	total     int64
	merger    *ranking.Merger
	pending   map[string]*pendingWrite
	inflight  map[string]*pendingWrite
	debounce  Timer
	armed     uint64
	resort    Timer
	listeners []func([]*model.Ad)
	onError   func(adID string, err error)
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAdStore 创建本地广告列表
func NewAdStore(api API, opts Options, l *logger.Logger) *AdStore {
	if l == nil {
		l = logger.NewNop()
	}
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &AdStore{
		api:      api,
		opts:     opts,
		logger:   l,
		page:     opts.Page,
		size:     opts.PageSize,
		merger:   ranking.NewMerger(),
		pending:  make(map[string]*pendingWrite),
		inflight: make(map[string]*pendingWrite),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ads 当前列表
func (s *AdStore) Ads() []*model.Ad {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.list)
}

// Get 按 ID 获取记录
func (s *AdStore) Get(adID string) *model.Ad {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ranking.Find(s.list, adID)
}

// Page 当前页码、每页条数和总数
func (s *AdStore) Page() (page, size int, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.size, s.total
}

// OnChange 注册列表变化回调，回调在锁外执行
func (s *AdStore) OnChange(fn func([]*model.Ad)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// OnError 注册出价同步失败回调
func (s *AdStore) OnError(fn func(adID string, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// Fetch 拉取一页广告。非静默刷新用服务端列表整体替换本地列表；
// 静默刷新按 ID 合并，字段没变的记录保持不变。page、size 为 0 时沿用当前值。
func (s *AdStore) Fetch(ctx context.Context, page, size int, silent bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if page <= 0 {
		page = s.page
	}
	if size <= 0 {
		size = s.size
	}
	s.mu.Unlock()

	res, err := s.api.ListAds(ctx, page, size)
	if err != nil {
		return err
	}
	incoming := make([]*model.Ad, 0, len(res.List))
	for _, ad := range res.List {
		if ad != nil {
			incoming = append(incoming, ad)
		}
	}

	s.mu.Lock()
	if silent {
		s.list = ranking.MergeByID(s.list, incoming)
	} else {
		s.list = incoming
		s.page, s.size = page, size
		if res.Page > 0 {
			s.page = res.Page
		}
		if res.Size > 0 {
			s.size = res.Size
		}
	}
	s.total = res.Total
	// 尚未确认的本地出价不能被刷新覆盖
	for id := range s.pending {
		s.reapplyLocalPriceLocked(id)
	}
	for id := range s.inflight {
		s.reapplyLocalPriceLocked(id)
	}
	s.mu.Unlock()

	s.emit()
	return nil
}

// UpdatePrice 乐观更新出价：立即修改本地记录并标记重排，防抖窗口结束后统一提交。
// 同一广告在窗口内的多次编辑合并为一次请求，取最后一次的值。
// 返回的 channel 在该次编辑对应的请求完成后收到结果。
func (s *AdStore) UpdatePrice(adID string, price float64) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		done <- ErrClosed
		return done
	}
	w := s.pending[adID]
	if w == nil {
		w = &pendingWrite{snapshot: s.baselineLocked(adID)}
		s.pending[adID] = w
	}
	w.price = price
	w.waiters = append(w.waiters, done)
	if s.applyLocked(adID, func(a *model.Ad) { a.Price = price }) {
		s.markDirtyLocked(adID)
	}
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.armed++
	seq := s.armed
	s.debounce = s.opts.Scheduler.AfterFunc(s.opts.Debounce, func() { s.flush(seq) })
	s.mu.Unlock()

	s.emit()
	return done
}

// SetLocalPrice 只修改本地出价，不提交服务端
func (s *AdStore) SetLocalPrice(adID string, price float64) {
	s.mu.Lock()
	changed := !s.closed && s.applyLocked(adID, func(a *model.Ad) { a.Price = price })
	if changed {
		s.markDirtyLocked(adID)
	}
	s.mu.Unlock()

	if changed {
		s.emit()
	}
}

// UpdateAd 乐观更新任意字段并同步提交。只有 price 的变化会触发重排，
// heat 只能通过 IncrementHeat 修改，patch 中的 heat 被忽略。
// 失败时只回滚本次修改的字段。
func (s *AdStore) UpdateAd(ctx context.Context, adID string, patch map[string]interface{}) (*model.Ad, error) {
	_, affectsSort := patch["price"]

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	prev := ranking.Find(s.list, adID)
	if s.applyLocked(adID, func(a *model.Ad) { applyPatch(a, patch) }) && affectsSort {
		s.markDirtyLocked(adID)
	}
	s.mu.Unlock()
	s.emit()

	ad, err := s.api.UpdateAd(ctx, adID, patch)

	s.mu.Lock()
	if err != nil {
		if prev != nil && s.applyLocked(adID, func(a *model.Ad) { restoreFields(a, prev, patch) }) {
			s.reapplyLocalPriceLocked(adID)
			if affectsSort {
				s.markDirtyLocked(adID)
			}
		}
	} else if ad != nil {
		s.mergeServerLocked(ad)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("更新广告失败，已回滚", "ad_id", adID, "error", err)
	} else if ad == nil && affectsSort {
		s.refreshLater()
	}
	s.emit()
	return ad, err
}

// IncrementHeat 乐观地把热度加一，失败时减回
func (s *AdStore) IncrementHeat(ctx context.Context, adID string) (*model.Ad, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.applyLocked(adID, func(a *model.Ad) { a.Heat++ }) {
		s.markDirtyLocked(adID)
	}
	s.mu.Unlock()
	s.emit()

	ad, err := s.api.IncrementHeat(ctx, adID)

	s.mu.Lock()
	if err != nil {
		if s.applyLocked(adID, func(a *model.Ad) {
			if a.Heat > 0 {
				a.Heat--
			}
		}) {
			s.markDirtyLocked(adID)
		}
	} else if ad != nil {
		s.mergeServerLocked(ad)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("增加热度失败，已回滚", "ad_id", adID, "error", err)
	}
	s.emit()
	return ad, err
}

// Delete 删除广告后静默刷新
func (s *AdStore) Delete(ctx context.Context, adID string) error {
	if err := s.api.DeleteAd(ctx, adID); err != nil {
		return err
	}
	return s.Fetch(ctx, 0, 0, true)
}

// Copy 复制广告后静默刷新，返回新广告
func (s *AdStore) Copy(ctx context.Context, adID string) (*model.Ad, error) {
	ad, err := s.api.CopyAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	if err := s.Fetch(ctx, 0, 0, true); err != nil {
		return ad, err
	}
	return ad, nil
}

// Close 停止定时任务并等待后台请求结束，尚未提交的出价收到 ErrClosed
func (s *AdStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	if s.resort != nil {
		s.resort.Stop()
		s.resort = nil
	}
	pending := s.pending
	s.pending = make(map[string]*pendingWrite)
	s.cancel()
	s.mu.Unlock()

	for _, w := range pending {
		for _, ch := range w.waiters {
			ch <- ErrClosed
		}
	}
	s.wg.Wait()
}

// flush 提交防抖窗口内积累的全部出价。
// seq 不是最近一次安排的定时任务时说明 Stop 没赶上，交给更新的定时任务提交。
func (s *AdStore) flush(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.armed {
		return
	}
	batch := s.pending
	s.pending = make(map[string]*pendingWrite)
	s.debounce = nil
	for id, w := range batch {
		s.inflight[id] = w
		s.wg.Add(1)
		go s.send(id, w)
	}
}

func (s *AdStore) send(adID string, w *pendingWrite) {
	defer s.wg.Done()

	ad, err := s.api.UpdateAd(s.ctx, adID, map[string]interface{}{"price": w.price})

	s.mu.Lock()
	if s.inflight[adID] == w {
		delete(s.inflight, adID)
	}
	if err != nil {
		s.rollbackPriceLocked(adID, w)
	} else {
		s.confirmPriceLocked(adID, w, ad)
	}
	onError := s.onError
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("更新出价失败，已回滚", "ad_id", adID, "price", w.price, "error", err)
		if onError != nil {
			onError(adID, err)
		}
	} else if ad == nil {
		s.verifyLater(adID, w.price)
	}
	for _, ch := range w.waiters {
		ch <- err
	}
	s.emit()
}

// rollbackPriceLocked 恢复该广告自己的回滚基准，其他广告的编辑不受影响。
// 该广告还有更新的编辑在等待或提交中时保留本地值，由那次编辑决定最终结果。
func (s *AdStore) rollbackPriceLocked(adID string, w *pendingWrite) {
	if s.pending[adID] != nil || s.inflight[adID] != nil || w.snapshot == nil {
		return
	}
	i := slices.IndexFunc(s.list, func(a *model.Ad) bool { return a.ID == adID })
	if i < 0 {
		return
	}
	restored := s.list[i].Clone()
	restored.Price = w.snapshot.Price
	if ranking.SameFields(restored, w.snapshot) {
		restored = w.snapshot
	}
	s.list = slices.Clone(s.list)
	s.list[i] = restored
	s.markDirtyLocked(adID)
}

// confirmPriceLocked 服务端确认出价后以服务端记录为准，仍在等待的本地编辑重新应用
func (s *AdStore) confirmPriceLocked(adID string, w *pendingWrite, ad *model.Ad) {
	var baseline *model.Ad
	if ad != nil {
		if ad.Price != w.price {
			s.logger.Debug("服务端出价与本地不一致，以服务端为准", "ad_id", adID, "local", w.price, "server", ad.Price)
		}
		s.mergeServerLocked(ad)
		baseline = ad
	} else if w.snapshot != nil {
		baseline = w.snapshot.Clone()
		baseline.Price = w.price
	}
	for _, newer := range []*pendingWrite{s.inflight[adID], s.pending[adID]} {
		if newer != nil && newer != w {
			newer.snapshot = baseline
		}
	}
}

// mergeServerLocked 把服务端返回的记录合并进列表，分数变化时标记重排
func (s *AdStore) mergeServerLocked(ad *model.Ad) {
	prev := ranking.Find(s.list, ad.ID)
	if prev == nil {
		return
	}
	s.list, _ = ranking.ReplaceByID(s.list, ad)
	s.reapplyLocalPriceLocked(ad.ID)
	if cur := ranking.Find(s.list, ad.ID); cur.Price != prev.Price || cur.Heat != prev.Heat {
		s.markDirtyLocked(ad.ID)
	}
}

// reapplyLocalPriceLocked 该广告有尚未确认的出价时把它重新写回列表
func (s *AdStore) reapplyLocalPriceLocked(adID string) {
	w := s.pending[adID]
	if w == nil {
		w = s.inflight[adID]
	}
	if w == nil {
		return
	}
	if cur := ranking.Find(s.list, adID); cur != nil && cur.Price != w.price {
		s.applyLocked(adID, func(a *model.Ad) { a.Price = w.price })
		s.markDirtyLocked(adID)
	}
}

// baselineLocked 回滚基准：已有提交中的请求时沿用它的基准
func (s *AdStore) baselineLocked(adID string) *model.Ad {
	if w := s.inflight[adID]; w != nil {
		return w.snapshot
	}
	return ranking.Find(s.list, adID)
}

// applyLocked 复制记录、修改后替换回原位置，找不到记录时返回 false
func (s *AdStore) applyLocked(adID string, fn func(*model.Ad)) bool {
	i := slices.IndexFunc(s.list, func(a *model.Ad) bool { return a.ID == adID })
	if i < 0 {
		return false
	}
	next := s.list[i].Clone()
	fn(next)
	s.list = slices.Clone(s.list)
	s.list[i] = next
	return true
}

func (s *AdStore) markDirtyLocked(adID string) {
	if s.merger.MarkDirty(adID) && !s.closed {
		s.resort = s.opts.Scheduler.AfterFunc(s.opts.ResortDelay, s.runResort)
	}
}

func (s *AdStore) runResort() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	list, policy := s.merger.RunDeferredResort(s.list)
	s.list = list
	s.resort = nil
	s.mu.Unlock()

	if policy != ranking.PolicyNone {
		s.logger.Debug("本地列表已重排", "policy", policy.String(), "size", len(list))
		s.emit()
	}
}

// verifyLater 服务端没有返回记录时在后台静默刷新，直到列表中的出价与提交值一致；
// 多次刷新仍不一致时做一次完整刷新
func (s *AdStore) verifyLater(adID string, price float64) {
	if !s.goBackground() {
		return
	}
	go func() {
		defer s.wg.Done()
		if !s.sleep(s.opts.Verify.Duration) {
			return
		}
		err := wait.ExponentialBackoffWithContext(s.ctx, s.opts.Verify, func(ctx context.Context) (bool, error) {
			if err := s.Fetch(ctx, 0, 0, true); err != nil {
				s.logger.Warn("静默刷新广告列表失败", "error", err)
				return false, nil
			}
			ad := s.Get(adID)
			return ad != nil && ad.Price == price, nil
		})
		if err == nil || s.ctx.Err() != nil {
			return
		}
		if err := s.Fetch(s.ctx, 0, 0, false); err != nil {
			s.logger.Warn("刷新广告列表失败", "error", err)
		}
	}()
}

// refreshLater 延迟一次静默刷新
func (s *AdStore) refreshLater() {
	if !s.goBackground() {
		return
	}
	go func() {
		defer s.wg.Done()
		if !s.sleep(s.opts.RefreshDelay) {
			return
		}
		if err := s.Fetch(s.ctx, 0, 0, true); err != nil && s.ctx.Err() == nil {
			s.logger.Warn("静默刷新广告列表失败", "error", err)
		}
	}()
}

// goBackground 登记一个后台任务，store 已关闭时返回 false
func (s *AdStore) goBackground() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *AdStore) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *AdStore) emit() {
	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	list := slices.Clone(s.list)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(list)
	}
}

// applyPatch 把部分字段写入记录，无法识别的值被忽略
func applyPatch(a *model.Ad, patch map[string]interface{}) {
	for k, v := range patch {
		switch k {
		case "price":
			if f, ok := toFloat(v); ok {
				a.Price = f
			}
		case "type_id":
			if f, ok := toFloat(v); ok {
				a.TypeID = int64(f)
			}
		case "publisher":
			a.Publisher, _ = v.(string)
		case "title":
			a.Title, _ = v.(string)
		case "content":
			a.Content, _ = v.(string)
		case "landing_url":
			a.LandingURL, _ = v.(string)
		case "video_ids":
			a.VideoIDs = model.ParseVideoIDs(v)
		case "ext_info":
			a.ExtInfo = model.ParseExtInfo(v)
		}
	}
}

// restoreFields 把 patch 涉及的字段恢复为 prev 中的值
func restoreFields(a, prev *model.Ad, patch map[string]interface{}) {
	for k := range patch {
		switch k {
		case "price":
			a.Price = prev.Price
		case "type_id":
			a.TypeID = prev.TypeID
		case "publisher":
			a.Publisher = prev.Publisher
		case "title":
			a.Title = prev.Title
		case "content":
			a.Content = prev.Content
		case "landing_url":
			a.LandingURL = prev.LandingURL
		case "video_ids":
			a.VideoIDs = prev.Clone().VideoIDs
		case "ext_info":
			a.ExtInfo = prev.Clone().ExtInfo
		}
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}
