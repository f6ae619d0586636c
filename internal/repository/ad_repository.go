package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"adwall/internal/constants"
	"adwall/internal/model"
	"adwall/internal/ranking"
)

// adColumns 广告查询的列，附带类型编码和排序规则
const adColumns = `a.id, a.type_id, a.publisher, a.title, a.content, a.heat, a.price, a.landing_url,
	a.video_ids, a.ext_info, a.created_at, a.updated_at, t.type_code, t.sort_rule`

const adFrom = `FROM ad a LEFT JOIN ad_type t ON t.id = a.type_id`

// AdUpdatableColumns 允许部分更新的列，heat 只能通过增加热度修改
var AdUpdatableColumns = []string{"publisher", "title", "content", "price", "landing_url", "ext_info", "video_ids"}

// AdRepository 广告仓库接口
type AdRepository interface {
	List(ctx context.Context, offset, limit int) ([]*model.Ad, error)
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id string) (*model.Ad, error)
	Create(ctx context.Context, ad *model.Ad) error
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	IncrementHeat(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DetachVideos(ctx context.Context, id string) error
}

// TransactionalAdRepository 支持事务的广告仓库
type TransactionalAdRepository interface {
	AdRepository
	// InTx 在同一事务中执行 fn，fn 返回错误时回滚
	InTx(ctx context.Context, fn func(repo AdRepository) error) error
}

type adRepository struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

// NewAdRepository 创建广告仓库实例
func NewAdRepository(db *sqlx.DB) TransactionalAdRepository {
	return &adRepository{db: db}
}

// InTx 开始事务并提交，已在事务中时直接执行
func (r *adRepository) InTx(ctx context.Context, fn func(repo AdRepository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&adRepository{db: r.db, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (回滚失败: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (r *adRepository) ext() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// List 按排序分数分页查询
func (r *adRepository) List(ctx context.Context, offset, limit int) ([]*model.Ad, error) {
	ads := []*model.Ad{}
	query := `SELECT ` + adColumns + ` ` + adFrom + ` ORDER BY ` + ranking.OrderSQL + ` LIMIT ? OFFSET ?`
	if err := sqlx.SelectContext(ctx, r.ext(), &ads, query, limit, offset); err != nil {
		return nil, err
	}
	return ads, nil
}

// Count 广告总数
func (r *adRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := sqlx.GetContext(ctx, r.ext(), &total, `SELECT COUNT(*) FROM ad`); err != nil {
		return 0, err
	}
	return total, nil
}

// GetByID 根据ID获取广告
func (r *adRepository) GetByID(ctx context.Context, id string) (*model.Ad, error) {
	ad := &model.Ad{}
	query := `SELECT ` + adColumns + ` ` + adFrom + ` WHERE a.id = ?`
	if err := sqlx.GetContext(ctx, r.ext(), ad, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, constants.ErrNotFound
		}
		return nil, err
	}
	return ad, nil
}

// Create 创建广告，时间戳由数据库生成后回填
func (r *adRepository) Create(ctx context.Context, ad *model.Ad) error {
	query := `INSERT INTO ad (id, type_id, publisher, title, content, heat, price, landing_url, video_ids, ext_info, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	if _, err := r.ext().ExecContext(ctx, query,
		ad.ID, ad.TypeID, ad.Publisher, ad.Title, ad.Content,
		ad.Heat, ad.Price, ad.LandingURL, ad.VideoIDs, ad.ExtInfo); err != nil {
		return err
	}

	var ts struct {
		CreatedAt sql.NullTime `db:"created_at"`
		UpdatedAt sql.NullTime `db:"updated_at"`
	}
	if err := sqlx.GetContext(ctx, r.ext(), &ts, `SELECT created_at, updated_at FROM ad WHERE id = ?`, ad.ID); err != nil {
		return err
	}
	ad.CreatedAt, ad.UpdatedAt = ts.CreatedAt.Time, ts.UpdatedAt.Time
	return nil
}

// Update 更新给定的列，列名必须在 AdUpdatableColumns 中
func (r *adRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: 没有可更新的列", constants.ErrBadRequest)
	}
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !isUpdatableColumn(col) {
			return fmt.Errorf("%w: 不允许更新列 %s", constants.ErrBadRequest, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]interface{}, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, fields[col])
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := `UPDATE ad SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := r.ext().ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// IncrementHeat 热度加一
func (r *adRepository) IncrementHeat(ctx context.Context, id string) error {
	res, err := r.ext().ExecContext(ctx, `UPDATE ad SET heat = heat + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete 删除广告
func (r *adRepository) Delete(ctx context.Context, id string) error {
	res, err := r.ext().ExecContext(ctx, `DELETE FROM ad WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DetachVideos 解除广告与视频的关联
func (r *adRepository) DetachVideos(ctx context.Context, id string) error {
	_, err := r.ext().ExecContext(ctx, `UPDATE video SET ad_id = NULL WHERE ad_id = ?`, id)
	return err
}

func isUpdatableColumn(col string) bool {
	for _, c := range AdUpdatableColumns {
		if c == col {
			return true
		}
	}
	return false
}

// requireAffected 没有匹配行时返回 ErrNotFound，依赖 DSN 中的 clientFoundRows
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return constants.ErrNotFound
	}
	return nil
}
