package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"adwall/internal/constants"
	"adwall/internal/model"
)

// mysqlDuplicateEntry 唯一键冲突的错误码
const mysqlDuplicateEntry = 1062

// AdTypeRepository 广告类型仓库接口
type AdTypeRepository interface {
	ListActive(ctx context.Context) ([]*model.AdType, error)
	GetByID(ctx context.Context, id int64) (*model.AdType, error)
	GetByCode(ctx context.Context, typeCode string) (*model.AdType, error)
	Create(ctx context.Context, t *model.AdType) error
	Update(ctx context.Context, t *model.AdType) error
	Delete(ctx context.Context, id int64) error
}

type adTypeRepository struct {
	db *sqlx.DB
}

// NewAdTypeRepository 创建广告类型仓库实例
func NewAdTypeRepository(db *sqlx.DB) AdTypeRepository {
	return &adTypeRepository{db: db}
}

// ListActive 启用中的类型，按ID排序
func (r *adTypeRepository) ListActive(ctx context.Context) ([]*model.AdType, error) {
	types := []*model.AdType{}
	query := `SELECT id, type_code, type_name, status, sort_rule, created_at, updated_at
		FROM ad_type WHERE status = 1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, err
	}
	return types, nil
}

// GetByID 根据ID获取类型
func (r *adTypeRepository) GetByID(ctx context.Context, id int64) (*model.AdType, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

// GetByCode 根据类型编码获取类型
func (r *adTypeRepository) GetByCode(ctx context.Context, typeCode string) (*model.AdType, error) {
	return r.getOne(ctx, `WHERE type_code = ?`, typeCode)
}

func (r *adTypeRepository) getOne(ctx context.Context, where string, arg interface{}) (*model.AdType, error) {
	t := &model.AdType{}
	query := `SELECT id, type_code, type_name, status, sort_rule, created_at, updated_at FROM ad_type ` + where
	if err := r.db.GetContext(ctx, t, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, constants.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Create 创建类型，编码重复时返回 ErrConflict
func (r *adTypeRepository) Create(ctx context.Context, t *model.AdType) error {
	query := `INSERT INTO ad_type (type_code, type_name, status, sort_rule, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	res, err := r.db.ExecContext(ctx, query, t.TypeCode, t.TypeName, t.Status, t.SortRule)
	if err != nil {
		if isDuplicate(err) {
			return constants.ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// Update 更新名称、状态和排序规则，类型编码不可修改
func (r *adTypeRepository) Update(ctx context.Context, t *model.AdType) error {
	query := `UPDATE ad_type SET type_name = ?, status = ?, sort_rule = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, t.TypeName, t.Status, t.SortRule, t.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete 删除类型，表单配置由外键级联删除
func (r *adTypeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ad_type WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
