package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"adwall/internal/constants"
	"adwall/internal/model"
	"adwall/internal/repository"
	"adwall/pkg/logger"
	"adwall/pkg/storage"
)

// VideoRule 某个广告类型的视频限制，MinSeconds/MaxSeconds 只在时长已知时检查
type VideoRule struct {
	MinSeconds int
	MaxSeconds int
	MaxSize    int64
	Extensions []string
}

const mb = 1024 * 1024

// VideoRules 按类型编码的视频限制，未列出的类型不做限制
var VideoRules = map[string]VideoRule{
	"short_video": {MinSeconds: 5, MaxSeconds: 60, MaxSize: 100 * mb, Extensions: []string{".mp4"}},
	"brand":       {MinSeconds: 15, MaxSeconds: 120, MaxSize: 200 * mb, Extensions: []string{".mp4", ".avi"}},
	"effect":      {MinSeconds: 10, MaxSeconds: 90, MaxSize: 150 * mb, Extensions: []string{".mp4"}},
}

// Check 返回第一个不满足的限制
func (r VideoRule) Check(size int64, ext string, duration int) error {
	if size > r.MaxSize {
		return fmt.Errorf("%w: 文件过大，最大允许 %d 字节", constants.ErrBadRequest, r.MaxSize)
	}
	if !slices.Contains(r.Extensions, ext) {
		return fmt.Errorf("%w: 不支持的文件格式 %s", constants.ErrBadRequest, ext)
	}
	if duration > 0 && (duration < r.MinSeconds || duration > r.MaxSeconds) {
		return fmt.Errorf("%w: 视频时长需在 %d-%d 秒之间", constants.ErrBadRequest, r.MinSeconds, r.MaxSeconds)
	}
	return nil
}

// UploadInput 上传的视频文件，Duration 和 Resolution 由上传方提供，未知时为零值
type UploadInput struct {
	TypeID      int64
	FileName    string
	ContentType string
	Size        int64
	Duration    int
	Resolution  string
	Body        io.Reader
}

// VideoService 视频服务接口
type VideoService interface {
	// Upload baseURL 用于把本地路径拼成完整地址
	Upload(ctx context.Context, in UploadInput, baseURL string) (*model.UploadedVideo, error)
	// CleanupOrphans 删除早于 olderThan 且未被引用的视频，返回删除数量
	CleanupOrphans(ctx context.Context, olderThan time.Duration) (int, error)
}

type videoService struct {
	typeRepo  repository.AdTypeRepository
	videoRepo repository.VideoRepository
	store     storage.Storage
	logger    *logger.Logger
}

// NewVideoService 创建视频服务
func NewVideoService(
	typeRepo repository.AdTypeRepository,
	videoRepo repository.VideoRepository,
	store storage.Storage,
	logger *logger.Logger,
) VideoService {
	return &videoService{typeRepo: typeRepo, videoRepo: videoRepo, store: store, logger: logger}
}

func (s *videoService) Upload(ctx context.Context, in UploadInput, baseURL string) (*model.UploadedVideo, error) {
	ext := strings.ToLower(filepath.Ext(in.FileName))
	if rule, ok := s.ruleFor(ctx, in.TypeID); ok {
		if err := rule.Check(in.Size, ext, in.Duration); err != nil {
			return nil, err
		}
	}

	id := uuid.New().String()
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filePath, err := s.store.Save(ctx, storage.VideoKey(id, ext), contentType, in.Body, in.Size)
	if err != nil {
		s.logger.Error("保存视频文件失败", "file", in.FileName, "error", err)
		return nil, err
	}

	v := &model.Video{
		ID:         id,
		FileName:   in.FileName,
		FilePath:   filePath,
		FileSize:   in.Size,
		FileType:   contentType,
		Duration:   in.Duration,
		Resolution: in.Resolution,
	}
	if err := s.videoRepo.Create(ctx, v); err != nil {
		s.logger.Error("保存视频记录失败", "video_id", id, "error", err)
		if delErr := s.store.Delete(ctx, filePath); delErr != nil {
			s.logger.Warn("清理视频文件失败", "path", filePath, "error", delErr)
		}
		return nil, err
	}
	s.logger.Info("视频上传成功", "video_id", id, "size", in.Size, "type_id", in.TypeID)

	return &model.UploadedVideo{
		VideoID:    id,
		URL:        absoluteURL(baseURL, filePath),
		Duration:   in.Duration,
		Resolution: in.Resolution,
	}, nil
}

// ruleFor 类型不存在或查询失败时不做限制
func (s *videoService) ruleFor(ctx context.Context, typeID int64) (VideoRule, bool) {
	if typeID <= 0 {
		return VideoRule{}, false
	}
	t, err := s.typeRepo.GetByID(ctx, typeID)
	if err != nil {
		if !errors.Is(err, constants.ErrNotFound) {
			s.logger.Warn("查询广告类型失败，跳过视频限制", "type_id", typeID, "error", err)
		}
		return VideoRule{}, false
	}
	rule, ok := VideoRules[t.TypeCode]
	return rule, ok
}

func (s *videoService) CleanupOrphans(ctx context.Context, olderThan time.Duration) (int, error) {
	videos, err := s.videoRepo.ListOrphans(ctx, time.Now().Add(-olderThan), 500)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, v := range videos {
		if err := s.store.Delete(ctx, v.FilePath); err != nil && !errors.Is(err, storage.ErrOutsideStorage) {
			s.logger.Warn("删除视频文件失败", "video_id", v.ID, "path", v.FilePath, "error", err)
			continue
		}
		if err := s.videoRepo.Delete(ctx, v.ID); err != nil && !errors.Is(err, constants.ErrNotFound) {
			s.logger.Warn("删除视频记录失败", "video_id", v.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// absoluteURL 本地路径拼接对外地址，已是完整地址时原样返回
func absoluteURL(baseURL, filePath string) string {
	if strings.HasPrefix(filePath, "http://") || strings.HasPrefix(filePath, "https://") || baseURL == "" {
		return filePath
	}
	return strings.TrimRight(baseURL, "/") + filePath
}
