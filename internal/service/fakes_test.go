package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"adwall/internal/constants"
	"adwall/internal/model"
	"adwall/internal/ranking"
	"adwall/internal/repository"
	"adwall/pkg/events"
	"adwall/pkg/storage"
)

var errBoom = errors.New("boom")

// fakeAdRepo 内存广告仓库
type fakeAdRepo struct {
	mu       sync.Mutex
	ads      map[string]*model.Ad
	detached []string
	inTx     int
	clock    time.Time
	failNext error
}

func newFakeAdRepo(ads ...*model.Ad) *fakeAdRepo {
	r := &fakeAdRepo{ads: map[string]*model.Ad{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, a := range ads {
		r.ads[a.ID] = a.Clone()
	}
	return r
}

func (r *fakeAdRepo) List(_ context.Context, offset, limit int) ([]*model.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*model.Ad
	for _, a := range r.ads {
		all = append(all, a.Clone())
	}
	all = ranking.Resort(all)
	if offset >= len(all) {
		return []*model.Ad{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeAdRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.ads)), nil
}

func (r *fakeAdRepo) GetByID(_ context.Context, id string) (*model.Ad, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ads[id]
	if !ok {
		return nil, constants.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *fakeAdRepo) Create(_ context.Context, ad *model.Ad) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failNext; err != nil {
		r.failNext = nil
		return err
	}
	r.clock = r.clock.Add(time.Second)
	ad.CreatedAt, ad.UpdatedAt = r.clock, r.clock
	r.ads[ad.ID] = ad.Clone()
	return nil
}

func (r *fakeAdRepo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ads[id]
	if !ok {
		return constants.ErrNotFound
	}
	for col, v := range fields {
		switch col {
		case "publisher":
			a.Publisher = v.(string)
		case "title":
			a.Title = v.(string)
		case "content":
			a.Content = v.(string)
		case "landing_url":
			a.LandingURL = v.(string)
		case "price":
			a.Price = v.(float64)
		case "ext_info":
			a.ExtInfo = v.(model.ExtInfo)
		case "video_ids":
			a.VideoIDs = v.(model.VideoIDs)
		default:
			return fmt.Errorf("unexpected column %s", col)
		}
	}
	return nil
}

func (r *fakeAdRepo) IncrementHeat(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.ads[id]
	if !ok {
		return constants.ErrNotFound
	}
	a.Heat++
	return nil
}

func (r *fakeAdRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ads[id]; !ok {
		return constants.ErrNotFound
	}
	delete(r.ads, id)
	return nil
}

func (r *fakeAdRepo) DetachVideos(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detached = append(r.detached, id)
	return nil
}

func (r *fakeAdRepo) InTx(_ context.Context, fn func(repository.AdRepository) error) error {
	r.mu.Lock()
	r.inTx++
	r.mu.Unlock()
	return fn(r)
}

// fakeVideoRepo 内存视频仓库
type fakeVideoRepo struct {
	mu       sync.Mutex
	videos   map[string]*model.Video
	attached map[string][]string
	orphans  []*model.Video
	failNext error
}

func newFakeVideoRepo(videos ...*model.Video) *fakeVideoRepo {
	r := &fakeVideoRepo{videos: map[string]*model.Video{}, attached: map[string][]string{}}
	for _, v := range videos {
		r.videos[v.ID] = v
	}
	return r
}

func (r *fakeVideoRepo) Create(_ context.Context, v *model.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failNext; err != nil {
		r.failNext = nil
		return err
	}
	r.videos[v.ID] = v
	return nil
}

func (r *fakeVideoRepo) GetByID(_ context.Context, id string) (*model.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, constants.ErrNotFound
	}
	return v, nil
}

func (r *fakeVideoRepo) FilePaths(_ context.Context, ids []string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]string{}
	for _, id := range ids {
		if v, ok := r.videos[id]; ok {
			out[id] = v.FilePath
		}
	}
	return out, nil
}

func (r *fakeVideoRepo) Attach(_ context.Context, adID string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attached[adID] = append([]string(nil), ids...)
	return nil
}

func (r *fakeVideoRepo) attachedTo(adID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached[adID]
}

func (r *fakeVideoRepo) ListOrphans(context.Context, time.Time, int) ([]*model.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orphans, nil
}

func (r *fakeVideoRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[id]; !ok {
		return constants.ErrNotFound
	}
	delete(r.videos, id)
	return nil
}

// fakeTypeRepo 内存广告类型仓库
type fakeTypeRepo struct {
	mu     sync.Mutex
	types  map[int64]*model.AdType
	nextID int64
	err    error
}

func newFakeTypeRepo(types ...*model.AdType) *fakeTypeRepo {
	r := &fakeTypeRepo{types: map[int64]*model.AdType{}, nextID: 100}
	for _, t := range types {
		r.types[t.ID] = t
	}
	return r
}

func (r *fakeTypeRepo) ListActive(context.Context) ([]*model.AdType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AdType
	for id := int64(0); id <= r.nextID; id++ {
		if t, ok := r.types[id]; ok && t.Status == 1 {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTypeRepo) GetByID(_ context.Context, id int64) (*model.AdType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	t, ok := r.types[id]
	if !ok {
		return nil, constants.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r *fakeTypeRepo) GetByCode(_ context.Context, code string) (*model.AdType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, t := range r.types {
		if t.TypeCode == code {
			c := *t
			return &c, nil
		}
	}
	return nil, constants.ErrNotFound
}

func (r *fakeTypeRepo) Create(_ context.Context, t *model.AdType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.types {
		if existing.TypeCode == t.TypeCode {
			return constants.ErrConflict
		}
	}
	r.nextID++
	t.ID = r.nextID
	c := *t
	r.types[t.ID] = &c
	return nil
}

func (r *fakeTypeRepo) Update(_ context.Context, t *model.AdType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[t.ID]; !ok {
		return constants.ErrNotFound
	}
	c := *t
	r.types[t.ID] = &c
	return nil
}

func (r *fakeTypeRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[id]; !ok {
		return constants.ErrNotFound
	}
	delete(r.types, id)
	return nil
}

// fakeFormRepo 内存表单配置仓库
type fakeFormRepo struct {
	mu      sync.Mutex
	configs map[string]*model.FormConfig
	err     error
}

func newFakeFormRepo() *fakeFormRepo {
	return &fakeFormRepo{configs: map[string]*model.FormConfig{}}
}

func formKey(typeID int64, key string) string { return fmt.Sprintf("%d/%s", typeID, key) }

func (r *fakeFormRepo) Latest(_ context.Context, typeID int64, key string) (*model.FormConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.configs[formKey(typeID, key)]
	if !ok {
		return nil, constants.ErrNotFound
	}
	return c, nil
}

func (r *fakeFormRepo) Upsert(_ context.Context, cfg *model.FormConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *cfg
	r.configs[formKey(cfg.TypeID, cfg.ConfigKey)] = &c
	return nil
}

// fakeStorage 内存文件存储
type fakeStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage { return &fakeStorage{files: map[string][]byte{}} }

func (s *fakeStorage) Save(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := "/uploads/" + key
	s.files[path] = data
	return path, nil
}

func (s *fakeStorage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, path)
	delete(s.files, path)
	return nil
}

var _ storage.Storage = (*fakeStorage)(nil)

// recordingPublisher 记录发送的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AdEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.AdEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
