package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"adwall/internal/constants"
	"adwall/internal/model"
)

// FormConfigRepository 表单配置仓库接口
type FormConfigRepository interface {
	// Latest 返回 (type_id, config_key) 下最近更新的配置
	Latest(ctx context.Context, typeID int64, configKey string) (*model.FormConfig, error)
	Upsert(ctx context.Context, cfg *model.FormConfig) error
}

type formConfigRepository struct {
	db *sqlx.DB
}

// NewFormConfigRepository 创建表单配置仓库实例
func NewFormConfigRepository(db *sqlx.DB) FormConfigRepository {
	return &formConfigRepository{db: db}
}

// Latest 查询最新配置，没有时返回 ErrNotFound
func (r *formConfigRepository) Latest(ctx context.Context, typeID int64, configKey string) (*model.FormConfig, error) {
	cfg := &model.FormConfig{}
	query := `SELECT id, type_id, config_key, config_value, update_time FROM form_config
		WHERE type_id = ? AND config_key = ? ORDER BY update_time DESC LIMIT 1`
	if err := r.db.GetContext(ctx, cfg, query, typeID, configKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, constants.ErrNotFound
		}
		return nil, err
	}
	return cfg, nil
}

// Upsert 每个 (type_id, config_key) 只保留一份配置
func (r *formConfigRepository) Upsert(ctx context.Context, cfg *model.FormConfig) error {
	query := `INSERT INTO form_config (type_id, config_key, config_value, update_time)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON DUPLICATE KEY UPDATE config_value = VALUES(config_value), update_time = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, query, cfg.TypeID, cfg.ConfigKey, cfg.Schema)
	return err
}
