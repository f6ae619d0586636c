package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"adwall/internal/constants"
	"adwall/internal/formschema"
	"adwall/internal/model"
	"adwall/internal/repository"
	"adwall/pkg/logger"
)

const formConfigCachePrefix = "form_config:"

// FormConfigService 表单配置服务接口
type FormConfigService interface {
	// Get 按类型编码查询表单，类型不存在时返回空表单
	Get(ctx context.Context, typeCode, configKey string) (formschema.Schema, error)
	// ForTypeID 创建广告时使用的表单
	ForTypeID(ctx context.Context, typeID int64) (formschema.Schema, error)
	// Save 规范化后保存，返回保存的表单
	Save(ctx context.Context, typeCode, configKey string, schema formschema.Schema) (formschema.Schema, error)
}

type formConfigService struct {
	typeRepo repository.AdTypeRepository
	repo     repository.FormConfigRepository
	cache    *jsonCache
	logger   *logger.Logger
}

// NewFormConfigService 创建表单配置服务
func NewFormConfigService(
	typeRepo repository.AdTypeRepository,
	repo repository.FormConfigRepository,
	redisClient *redis.Client,
	logger *logger.Logger,
) FormConfigService {
	return &formConfigService{
		typeRepo: typeRepo,
		repo:     repo,
		cache:    newJSONCache(redisClient, logger),
		logger:   logger,
	}
}

func formConfigCacheKey(typeID int64, configKey string) string {
	return fmt.Sprintf("%s%d:%s", formConfigCachePrefix, typeID, configKey)
}

func (s *formConfigService) Get(ctx context.Context, typeCode, configKey string) (formschema.Schema, error) {
	if typeCode == "" {
		return formschema.Schema{}, fmt.Errorf("%w: %s", constants.ErrBadRequest, constants.ErrTypeCodeRequired)
	}
	t, err := s.typeRepo.GetByCode(ctx, typeCode)
	if errors.Is(err, constants.ErrNotFound) {
		return formschema.EmptySchema(), nil
	}
	if err != nil {
		return formschema.Schema{}, err
	}
	return s.load(ctx, t, configKey)
}

func (s *formConfigService) ForTypeID(ctx context.Context, typeID int64) (formschema.Schema, error) {
	t, err := s.typeRepo.GetByID(ctx, typeID)
	if errors.Is(err, constants.ErrNotFound) {
		return formschema.EmptySchema(), nil
	}
	if err != nil {
		return formschema.Schema{}, err
	}
	return s.load(ctx, t, formschema.DefaultConfigKey)
}

func (s *formConfigService) load(ctx context.Context, t *model.AdType, configKey string) (formschema.Schema, error) {
	if configKey == "" {
		configKey = formschema.DefaultConfigKey
	}
	key := formConfigCacheKey(t.ID, configKey)
	var cached formschema.Schema
	if s.cache.get(ctx, key, &cached) {
		return cached, nil
	}

	cfg, err := s.repo.Latest(ctx, t.ID, configKey)
	var schema formschema.Schema
	switch {
	case errors.Is(err, constants.ErrNotFound):
		schema = formschema.SchemaForType(t.TypeCode)
	case err != nil:
		s.logger.Error("查询表单配置失败", "type_id", t.ID, "config_key", configKey, "error", err)
		return formschema.Schema{}, err
	default:
		if err := json.Unmarshal([]byte(cfg.Schema), &schema); err != nil {
			s.logger.Warn("表单配置无法解析", "type_id", t.ID, "config_key", configKey, "error", err)
			schema = formschema.Schema{FormTitle: formschema.BrokenSchemaTitle}
		}
	}
	s.cache.set(ctx, key, schema)
	return schema, nil
}

func (s *formConfigService) Save(ctx context.Context, typeCode, configKey string, schema formschema.Schema) (formschema.Schema, error) {
	if typeCode == "" {
		return formschema.Schema{}, fmt.Errorf("%w: %s", constants.ErrBadRequest, constants.ErrTypeCodeRequired)
	}
	if configKey == "" {
		configKey = formschema.DefaultConfigKey
	}
	t, err := s.typeRepo.GetByCode(ctx, typeCode)
	if err != nil {
		return formschema.Schema{}, err
	}

	normalized, err := formschema.Normalize(schema)
	if err != nil {
		return formschema.Schema{}, fmt.Errorf("%w: %v", constants.ErrBadRequest, err)
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return formschema.Schema{}, err
	}
	if err := s.repo.Upsert(ctx, &model.FormConfig{TypeID: t.ID, ConfigKey: configKey, Schema: string(data)}); err != nil {
		s.logger.Error("保存表单配置失败", "type_id", t.ID, "error", err)
		return formschema.Schema{}, err
	}
	s.cache.invalidate(ctx, formConfigCacheKey(t.ID, configKey))
	s.logger.Info("保存表单配置", "type_code", typeCode, "config_key", configKey, "fields", len(normalized.Fields))
	return normalized, nil
}
