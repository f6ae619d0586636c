package model

import "time"

// FormConfig 某个广告类型的表单配置，Schema 为 {formTitle, fields} 的 JSON 原文
type FormConfig struct {
	ID         int64     `db:"id" json:"id"`
	TypeID     int64     `db:"type_id" json:"type_id"`
	ConfigKey  string    `db:"config_key" json:"config_key"`
	Schema     string    `db:"config_value" json:"-"`
	UpdateTime time.Time `db:"update_time" json:"update_time"`
}
