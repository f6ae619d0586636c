package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Ad 广告模型
type Ad struct {
	ID         string    `db:"id" json:"id"`
	TypeID     int64     `db:"type_id" json:"type_id"`
	Publisher  string    `db:"publisher" json:"publisher"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	Heat       int64     `db:"heat" json:"heat"`
	Price      float64   `db:"price" json:"price"`
	LandingURL string    `db:"landing_url" json:"landing_url"`
	VideoIDs   VideoIDs  `db:"video_ids" json:"video_ids"`
	ExtInfo    ExtInfo   `db:"ext_info" json:"ext_info"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	// 以下字段来自联表查询，只读
	TypeCode  *string   `db:"type_code" json:"type_code,omitempty"`
	SortRule  *SortRule `db:"sort_rule" json:"sort_rule,omitempty"`
	VideoURLs []string  `db:"-" json:"video_urls"`
}

// Clone 返回广告的浅拷贝，切片和映射字段单独复制
func (a *Ad) Clone() *Ad {
	if a == nil {
		return nil
	}
	c := *a
	if a.VideoIDs != nil {
		c.VideoIDs = append(VideoIDs(nil), a.VideoIDs...)
	}
	if a.VideoURLs != nil {
		c.VideoURLs = append([]string(nil), a.VideoURLs...)
	}
	if a.ExtInfo != nil {
		c.ExtInfo = make(ExtInfo, len(a.ExtInfo))
		for k, v := range a.ExtInfo {
			c.ExtInfo[k] = v
		}
	}
	return &c
}

// AdPage 分页广告列表
type AdPage struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	List  []*Ad `json:"list"`
	Total int64 `json:"total"`
}

// VideoIDs 有序的视频ID列表，数据库中以逗号拼接保存，
// JSON 中既接受数组也接受逗号拼接的字符串
type VideoIDs []string

// ParseVideoIDs 把数组或逗号拼接字符串归一化为视频ID列表，空白项会被丢弃
func ParseVideoIDs(v interface{}) VideoIDs {
	var out VideoIDs
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, item := range t {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
	case VideoIDs:
		return ParseVideoIDs([]string(t))
	}
	return out
}

// String 逗号拼接形式
func (v VideoIDs) String() string {
	return strings.Join(v, ",")
}

// Value 实现 driver.Valuer
func (v VideoIDs) Value() (driver.Value, error) {
	return v.String(), nil
}

// Scan 实现 sql.Scanner
func (v *VideoIDs) Scan(src interface{}) error {
	switch t := src.(type) {
	case nil:
		*v = nil
	case []byte:
		*v = ParseVideoIDs(string(t))
	case string:
		*v = ParseVideoIDs(t)
	default:
		return fmt.Errorf("video_ids: 不支持的类型 %T", src)
	}
	return nil
}

// MarshalJSON 总是输出数组
func (v VideoIDs) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(v))
}

// UnmarshalJSON 接受数组或逗号拼接字符串
func (v *VideoIDs) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ParseVideoIDs(raw)
	return nil
}

// ExtInfo 表单配置中基础字段以外的扩展字段
type ExtInfo map[string]interface{}

// Value 实现 driver.Valuer，空映射存为 NULL
func (e ExtInfo) Value() (driver.Value, error) {
	if len(e) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(map[string]interface{}(e))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner，无法解析的内容视为空
func (e *ExtInfo) Scan(src interface{}) error {
	var data []byte
	switch t := src.(type) {
	case nil:
		*e = ExtInfo{}
		return nil
	case []byte:
		data = t
	case string:
		data = []byte(t)
	default:
		return fmt.Errorf("ext_info: 不支持的类型 %T", src)
	}
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		*e = ExtInfo{}
		return nil
	}
	*e = m
	return nil
}

// UnmarshalJSON 兼容以 JSON 字符串形式提交的 ext_info
func (e *ExtInfo) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = ParseExtInfo(raw)
	return nil
}

// ParseExtInfo 把对象或 JSON 字符串归一化为 ExtInfo，其他输入返回空映射
func ParseExtInfo(v interface{}) ExtInfo {
	switch t := v.(type) {
	case map[string]interface{}:
		return t
	case ExtInfo:
		return t
	case string:
		m := map[string]interface{}{}
		if err := json.Unmarshal([]byte(t), &m); err == nil {
			return m
		}
	}
	return ExtInfo{}
}
