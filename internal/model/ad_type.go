package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AdType 广告类型模型
type AdType struct {
	ID        int64     `db:"id" json:"id"`
	TypeCode  string    `db:"type_code" json:"type_code"`
	TypeName  string    `db:"type_name" json:"type_name"`
	Status    int       `db:"status" json:"status"`
	SortRule  *SortRule `db:"sort_rule" json:"sort_rule,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// SortRule 广告类型的排序配置
type SortRule struct {
	Priority    int    `json:"priority"`
	Field       string `json:"field"`
	Order       string `json:"order"`
	SecondField string `json:"secondField,omitempty"`
	SecondOrder string `json:"secondOrder,omitempty"`
}

// Value 实现 driver.Valuer
func (r *SortRule) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (r *SortRule) Scan(src interface{}) error {
	switch t := src.(type) {
	case nil:
		*r = SortRule{}
		return nil
	case []byte:
		return json.Unmarshal(t, r)
	case string:
		return json.Unmarshal([]byte(t), r)
	default:
		return fmt.Errorf("sort_rule: 不支持的类型 %T", src)
	}
}

// Validate 校验排序方向
func (r *SortRule) Validate() error {
	if r == nil {
		return nil
	}
	for _, o := range []string{r.Order, r.SecondOrder} {
		if o != "" && o != "asc" && o != "desc" {
			return fmt.Errorf("排序方向只能为 asc 或 desc: %q", o)
		}
	}
	return nil
}
