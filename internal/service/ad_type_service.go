package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/redis/go-redis/v9"

	"adwall/internal/constants"
	"adwall/internal/model"
	"adwall/internal/repository"
	"adwall/pkg/logger"
)

const adTypesCacheKey = "ad_types:active"

var typeCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,49}$`)

// AdTypeService 广告类型服务接口
type AdTypeService interface {
	List(ctx context.Context) ([]*model.AdType, error)
	Create(ctx context.Context, t *model.AdType) error
	Update(ctx context.Context, t *model.AdType) (*model.AdType, error)
	Delete(ctx context.Context, id int64) error
}

type adTypeService struct {
	repo   repository.AdTypeRepository
	cache  *jsonCache
	logger *logger.Logger
}

// NewAdTypeService 创建广告类型服务
func NewAdTypeService(repo repository.AdTypeRepository, redisClient *redis.Client, logger *logger.Logger) AdTypeService {
	return &adTypeService{repo: repo, cache: newJSONCache(redisClient, logger), logger: logger}
}

// List 启用中的广告类型
func (s *adTypeService) List(ctx context.Context) ([]*model.AdType, error) {
	var types []*model.AdType
	if s.cache.get(ctx, adTypesCacheKey, &types) {
		return types, nil
	}
	types, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询广告类型失败", "error", err)
		return nil, err
	}
	s.cache.set(ctx, adTypesCacheKey, types)
	return types, nil
}

// Create 新建类型，默认启用
func (s *adTypeService) Create(ctx context.Context, t *model.AdType) error {
	t.TypeCode = strings.TrimSpace(t.TypeCode)
	t.TypeName = strings.TrimSpace(t.TypeName)
	if !typeCodePattern.MatchString(t.TypeCode) {
		return fmt.Errorf("%w: type_code 只能包含小写字母、数字和下划线", constants.ErrBadRequest)
	}
	if t.TypeName == "" {
		return fmt.Errorf("%w: type_name 必填", constants.ErrBadRequest)
	}
	if err := t.SortRule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", constants.ErrBadRequest, err)
	}
	if t.Status == 0 {
		t.Status = 1
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return err
	}
	s.logger.Info("创建广告类型", "id", t.ID, "type_code", t.TypeCode)
	s.invalidate(ctx)
	return nil
}

// Update 修改名称、状态和排序规则，类型编码保持不变
func (s *adTypeService) Update(ctx context.Context, t *model.AdType) (*model.AdType, error) {
	current, err := s.repo.GetByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(t.TypeName); name != "" {
		current.TypeName = name
	}
	if t.Status != 0 {
		current.Status = t.Status
	}
	if t.SortRule != nil {
		if err := t.SortRule.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", constants.ErrBadRequest, err)
		}
		current.SortRule = t.SortRule
	}
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return current, nil
}

// Delete 删除类型及其表单配置
func (s *adTypeService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("删除广告类型", "id", id)
	s.invalidate(ctx)
	return nil
}

// invalidate 类型变化会影响表单配置和广告列表中的联表字段
func (s *adTypeService) invalidate(ctx context.Context) {
	s.cache.invalidate(ctx, "ad_types:*")
	s.cache.invalidate(ctx, formConfigCachePrefix+"*")
	s.cache.invalidate(ctx, adsCachePrefix+"*")
}
