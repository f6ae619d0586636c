package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"adwall/internal/constants"
	"adwall/internal/model"
)

// VideoRepository 视频素材仓库接口
type VideoRepository interface {
	Create(ctx context.Context, v *model.Video) error
	GetByID(ctx context.Context, id string) (*model.Video, error)
	FilePaths(ctx context.Context, ids []string) (map[string]string, error)
	Attach(ctx context.Context, adID string, ids []string) error
	ListOrphans(ctx context.Context, before time.Time, limit int) ([]*model.Video, error)
	Delete(ctx context.Context, id string) error
}

type videoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository 创建视频仓库实例
func NewVideoRepository(db *sqlx.DB) VideoRepository {
	return &videoRepository{db: db}
}

// Create 保存上传的视频，此时尚未关联广告
func (r *videoRepository) Create(ctx context.Context, v *model.Video) error {
	query := `INSERT INTO video (id, ad_id, file_name, file_path, file_size, file_type, duration, resolution, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`
	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.AdID, v.FileName, v.FilePath, v.FileSize, v.FileType, v.Duration, v.Resolution)
	return err
}

// GetByID 根据ID获取视频
func (r *videoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	v := &model.Video{}
	query := `SELECT id, ad_id, file_name, file_path, file_size, file_type, duration, resolution, created_at FROM video WHERE id = ?`
	if err := r.db.GetContext(ctx, v, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, constants.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

// FilePaths 批量查询视频路径，不存在的ID不出现在结果中
func (r *videoRepository) FilePaths(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, file_path FROM video WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID       string `db:"id"`
		FilePath string `db:"file_path"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.FilePath
	}
	return out, nil
}

// Attach 把视频关联到广告
func (r *videoRepository) Attach(ctx context.Context, adID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE video SET ad_id = ? WHERE id IN (?)`, adID, ids)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	return err
}

// ListOrphans 早于 before 且没有任何广告引用的视频
func (r *videoRepository) ListOrphans(ctx context.Context, before time.Time, limit int) ([]*model.Video, error) {
	videos := []*model.Video{}
	query := `SELECT v.id, v.ad_id, v.file_name, v.file_path, v.file_size, v.file_type, v.duration, v.resolution, v.created_at
		FROM video v
		WHERE v.ad_id IS NULL AND v.created_at < ?
			AND NOT EXISTS (SELECT 1 FROM ad a WHERE FIND_IN_SET(v.id, a.video_ids))
		ORDER BY v.created_at LIMIT ?`
	if err := r.db.SelectContext(ctx, &videos, query, before, limit); err != nil {
		return nil, err
	}
	return videos, nil
}

// Delete 删除视频记录
func (r *videoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM video WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
