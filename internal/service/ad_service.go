package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"adwall/internal/constants"
	"adwall/internal/formschema"
	"adwall/internal/model"
	"adwall/internal/ranking"
	"adwall/internal/repository"
	"adwall/pkg/async"
	"adwall/pkg/events"
	"adwall/pkg/logger"
)

const (
	adsCachePrefix  = "ads:"
	defaultPageSize = 10
	maxPageSize     = 100
)

// AdService 广告服务接口
type AdService interface {
	List(ctx context.Context, page, size int) (*model.AdPage, error)
	Get(ctx context.Context, id string) (*model.Ad, error)
	Create(ctx context.Context, body map[string]interface{}) (*model.Ad, error)
	Update(ctx context.Context, id string, body map[string]interface{}) (*model.Ad, error)
	IncrementHeat(ctx context.Context, id string) (*model.Ad, error)
	Copy(ctx context.Context, id string) (*model.Ad, error)
	Delete(ctx context.Context, id string) error
}

type adService struct {
	adRepo    repository.TransactionalAdRepository
	videoRepo repository.VideoRepository
	forms     FormConfigService
	validator *formschema.Validator
	cache     *jsonCache
	worker    *async.Worker
	publisher events.Publisher
	logger    *logger.Logger
}

// NewAdService 创建广告服务实例，publisher 为空时不发送事件
func NewAdService(
	adRepo repository.TransactionalAdRepository,
	videoRepo repository.VideoRepository,
	forms FormConfigService,
	redisClient *redis.Client,
	worker *async.Worker,
	publisher events.Publisher,
	logger *logger.Logger,
) AdService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &adService{
		adRepo:    adRepo,
		videoRepo: videoRepo,
		forms:     forms,
		validator: formschema.NewValidator(logger),
		cache:     newJSONCache(redisClient, logger),
		worker:    worker,
		publisher: publisher,
		logger:    logger,
	}
}

func adsCacheKey(page, size int) string {
	return fmt.Sprintf("%slist:%d:%d", adsCachePrefix, page, size)
}

// List 按排序分数分页
func (s *adService) List(ctx context.Context, page, size int) (*model.AdPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	key := adsCacheKey(page, size)
	var cached model.AdPage
	if s.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	ads, err := s.adRepo.List(ctx, (page-1)*size, size)
	if err != nil {
		s.logger.Error("获取广告列表失败", "error", err)
		return nil, err
	}
	total, err := s.adRepo.Count(ctx)
	if err != nil {
		s.logger.Error("统计广告总数失败", "error", err)
		return nil, err
	}
	if err := s.fillVideoURLs(ctx, ads...); err != nil {
		return nil, err
	}

	result := &model.AdPage{Page: page, Size: size, List: ads, Total: total}
	s.cache.set(ctx, key, result)
	return result, nil
}

// Get 获取单个广告
func (s *adService) Get(ctx context.Context, id string) (*model.Ad, error) {
	ad, err := s.adRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.fillVideoURLs(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

// Create 校验基础字段和表单配置后创建广告
func (s *adService) Create(ctx context.Context, body map[string]interface{}) (*model.Ad, error) {
	if !truthy(body["publisher"]) || !truthy(body["title"]) || !truthy(body["landing_url"]) ||
		!present(body, "content") || !present(body, "price") {
		return nil, fmt.Errorf("%w: %s", constants.ErrBadRequest, constants.ErrBaseFieldMissing)
	}
	typeID, ok := toInt64(body["type_id"])
	if !ok || typeID <= 0 {
		return nil, fmt.Errorf("%w: %s", constants.ErrBadRequest, constants.ErrTypeIDRequired)
	}
	price, err := parsePrice(body["price"])
	if err != nil {
		return nil, err
	}

	ext := model.ParseExtInfo(body["ext_info"])
	videoIDs := model.ParseVideoIDs(body["video_ids"])

	schema, err := s.forms.ForTypeID(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.AssertValid(schema.Specs(), formschema.Candidate{
		Values:   body,
		Ext:      ext,
		VideoIDs: videoIDs,
	}); err != nil {
		return nil, err
	}

	ad := &model.Ad{
		ID:         uuid.New().String(),
		TypeID:     typeID,
		Publisher:  toString(body["publisher"]),
		Title:      toString(body["title"]),
		Content:    toString(body["content"]),
		Price:      price,
		LandingURL: toString(body["landing_url"]),
		VideoIDs:   videoIDs,
		ExtInfo:    ext,
	}
	if err := s.adRepo.Create(ctx, ad); err != nil {
		s.logger.Error("创建广告失败", "error", err)
		return nil, err
	}
	s.logger.Info("创建广告", "ad_id", ad.ID, "type_id", typeID, "videos", len(videoIDs))

	s.attachVideos(ad.ID, videoIDs)
	s.afterWrite(ctx, events.AdCreated, ad)
	return s.Get(ctx, ad.ID)
}

// Update 部分更新，只接受允许修改的列，热度会被忽略
func (s *adService) Update(ctx context.Context, id string, body map[string]interface{}) (*model.Ad, error) {
	fields := make(map[string]interface{}, len(body))
	for _, col := range repository.AdUpdatableColumns {
		v, ok := body[col]
		if !ok {
			continue
		}
		switch col {
		case "price":
			price, err := parsePrice(v)
			if err != nil {
				return nil, err
			}
			fields[col] = price
		case "ext_info":
			fields[col] = model.ParseExtInfo(v)
		case "video_ids":
			fields[col] = model.ParseVideoIDs(v)
		default:
			fields[col] = toString(v)
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", constants.ErrBadRequest, constants.ErrNoUpdateFields)
	}

	if err := s.adRepo.Update(ctx, id, fields); err != nil {
		if !errors.Is(err, constants.ErrNotFound) {
			s.logger.Error("更新广告失败", "ad_id", id, "error", err)
		}
		return nil, err
	}
	if ids, ok := fields["video_ids"].(model.VideoIDs); ok {
		s.attachVideos(id, ids)
	}

	ad, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, events.AdUpdated, ad)
	return ad, nil
}

// IncrementHeat 热度加一，返回更新后的广告
func (s *adService) IncrementHeat(ctx context.Context, id string) (*model.Ad, error) {
	if err := s.adRepo.IncrementHeat(ctx, id); err != nil {
		if !errors.Is(err, constants.ErrNotFound) {
			s.logger.Error("增加热度失败", "ad_id", id, "error", err)
		}
		return nil, err
	}
	ad, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, events.AdHeatChanged, ad)
	return ad, nil
}

// Copy 复制广告，新广告热度为 0，视频引用保持不变
func (s *adService) Copy(ctx context.Context, id string) (*model.Ad, error) {
	src, err := s.adRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dup := src.Clone()
	dup.ID = uuid.New().String()
	dup.Heat = 0
	if err := s.adRepo.Create(ctx, dup); err != nil {
		s.logger.Error("复制广告失败", "ad_id", id, "error", err)
		return nil, err
	}
	s.logger.Info("复制广告", "from", id, "ad_id", dup.ID)
	s.afterWrite(ctx, events.AdCreated, dup)
	return s.Get(ctx, dup.ID)
}

// Delete 删除广告并解除视频关联
func (s *adService) Delete(ctx context.Context, id string) error {
	err := s.adRepo.InTx(ctx, func(repo repository.AdRepository) error {
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		return repo.DetachVideos(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, constants.ErrNotFound) {
			s.logger.Error("删除广告失败", "ad_id", id, "error", err)
		}
		return err
	}
	s.logger.Info("删除广告", "ad_id", id)
	s.afterWrite(ctx, events.AdDeleted, &model.Ad{ID: id})
	return nil
}

// fillVideoURLs 按 video_ids 顺序填充视频地址，找不到的视频被跳过
func (s *adService) fillVideoURLs(ctx context.Context, ads ...*model.Ad) error {
	var ids []string
	for _, ad := range ads {
		ids = append(ids, ad.VideoIDs...)
	}
	paths, err := s.videoRepo.FilePaths(ctx, ids)
	if err != nil {
		s.logger.Error("查询视频地址失败", "error", err)
		return err
	}
	for _, ad := range ads {
		ad.VideoURLs = []string{}
		for _, vid := range ad.VideoIDs {
			if p, ok := paths[vid]; ok {
				ad.VideoURLs = append(ad.VideoURLs, p)
			}
		}
	}
	return nil
}

// attachVideos 异步关联视频，失败只记录日志
func (s *adService) attachVideos(adID string, ids []string) {
	if len(ids) == 0 || s.worker == nil {
		return
	}
	err := s.worker.AddTask("attach_videos", func(ctx context.Context) error {
		return s.videoRepo.Attach(ctx, adID, ids)
	})
	if err != nil {
		s.logger.Warn("关联视频任务提交失败", "ad_id", adID, "error", err)
	}
}

// afterWrite 清理列表缓存并发送变更事件
func (s *adService) afterWrite(ctx context.Context, eventType string, ad *model.Ad) {
	s.cache.invalidate(ctx, adsCachePrefix+"*")

	ev := events.NewAdEvent(eventType, ad.ID)
	if eventType != events.AdDeleted {
		ev.Price, ev.Heat, ev.Score = ad.Price, ad.Heat, ranking.AdScore(ad)
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("广告事件发送失败", "ad_id", ad.ID, "type", eventType, "error", err)
	}
}

func present(body map[string]interface{}, key string) bool {
	_, ok := body[key]
	return ok
}

// truthy 非空字符串或非零值
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case bool:
		return t
	case float64:
		return t != 0
	}
	return true
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt64(v interface{}) (int64, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// parsePrice 出价必须是不小于 0 的有限数字
func parsePrice(v interface{}) (float64, error) {
	price, ok := toFloat(v)
	if !ok || price < 0 {
		return 0, fmt.Errorf("%w: %s", constants.ErrBadRequest, constants.ErrInvalidPrice)
	}
	return price, nil
}
