// Package formschema 实现广告创建表单的动态配置：字段定义、默认字段和基于配置的校验。
package formschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// FieldType 表单字段类型
type FieldType string

const (
	TypeInput       FieldType = "input"
	TypeNumber      FieldType = "number"
	TypeSelect      FieldType = "select"
	TypeVideoUpload FieldType = "video-upload"
	TypeImageUpload FieldType = "image-upload"
	TypeFileUpload  FieldType = "file-upload"
)

// Known 是否为支持的字段类型
func (t FieldType) Known() bool {
	switch t {
	case TypeInput, TypeNumber, TypeSelect, TypeVideoUpload, TypeImageUpload, TypeFileUpload:
		return true
	}
	return false
}

// IsUpload 上传类字段没有占位符和校验规则
func (t FieldType) IsUpload() bool {
	return t == TypeVideoUpload || t == TypeImageUpload || t == TypeFileUpload
}

// ErrInvalidSchema 表单配置结构不合法
var ErrInvalidSchema = errors.New("表单配置不合法")

// Validation 字段校验规则。Min/Max 与 MinValue/MaxValue 是同义的数值范围，
// 两者同时存在时以 Min/Max 为准；字符串长度优先取 MinLength/MaxLength，缺省时沿用 Min/Max。
type Validation struct {
	Required  bool     `json:"required,omitempty"`
	Type      string   `json:"type,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinValue  *float64 `json:"minValue,omitempty"`
	MaxValue  *float64 `json:"maxValue,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Message   string   `json:"message,omitempty"`
}

func (v *Validation) clone() *Validation {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// lowerBound 数值下限
func (v *Validation) lowerBound() *float64 {
	if v.Min != nil {
		return v.Min
	}
	return v.MinValue
}

// upperBound 数值上限
func (v *Validation) upperBound() *float64 {
	if v.Max != nil {
		return v.Max
	}
	return v.MaxValue
}

// lengthBounds 字符串长度范围
func (v *Validation) lengthBounds() (min, max *int) {
	min, max = v.MinLength, v.MaxLength
	// 数值形式的边界按比较语义换算成整数长度
	if min == nil && v.Min != nil {
		n := int(math.Ceil(*v.Min))
		min = &n
	}
	if max == nil && v.Max != nil {
		n := int(math.Floor(*v.Max))
		max = &n
	}
	return min, max
}

// FieldSpec 单个表单字段的定义
type FieldSpec struct {
	Name        string        `json:"name"`
	Type        FieldType     `json:"type"`
	Label       string        `json:"label,omitempty"`
	Required    bool          `json:"required,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	Enums       []interface{} `json:"enums,omitempty"`
	Validation  *Validation   `json:"validation,omitempty"`
}

func (f FieldSpec) clone() FieldSpec {
	c := f
	if f.Enums != nil {
		c.Enums = append([]interface{}(nil), f.Enums...)
	}
	c.Validation = f.Validation.clone()
	return c
}

// Field 表单中的字段，只有 DefaultField 和 CustomField 两种实现
type Field interface {
	Spec() FieldSpec
	isField()
}

// DefaultField 基础字段：名称、类型、必填与校验规则固定，只允许修改标签和占位符
type DefaultField struct {
	canonical   FieldSpec
	Label       string
	Placeholder string
}

// NewDefaultField 按名称获取基础字段，名称不是基础字段时返回 false
func NewDefaultField(name string) (DefaultField, bool) {
	for _, f := range defaultFields {
		if f.Name == name {
			return DefaultField{canonical: f.clone()}, true
		}
	}
	return DefaultField{}, false
}

// Name 字段名
func (f DefaultField) Name() string { return f.canonical.Name }

// Spec 返回应用了标签和占位符覆盖后的字段定义
func (f DefaultField) Spec() FieldSpec {
	s := f.canonical.clone()
	if f.Label != "" {
		s.Label = f.Label
	}
	if f.Placeholder != "" {
		s.Placeholder = f.Placeholder
	}
	return s
}

func (DefaultField) isField() {}

// CustomField 管理员自定义的扩展字段，值保存在 ext_info 中
type CustomField struct {
	FieldSpec
}

// Spec 上传类字段会去掉占位符和校验规则
func (f CustomField) Spec() FieldSpec {
	s := f.FieldSpec.clone()
	if s.Type.IsUpload() {
		s.Placeholder = ""
		s.Validation = nil
	}
	return s
}

func (CustomField) isField() {}

// Classify 把原始字段定义区分为基础字段和自定义字段
func Classify(spec FieldSpec) Field {
	if df, ok := NewDefaultField(spec.Name); ok {
		df.Label = spec.Label
		df.Placeholder = spec.Placeholder
		return df
	}
	return CustomField{FieldSpec: spec}
}

// Schema 某个广告类型的表单配置
type Schema struct {
	FormTitle string
	Fields    []Field
}

type schemaJSON struct {
	FormTitle string      `json:"formTitle"`
	Fields    []FieldSpec `json:"fields"`
}

// NewSchema 由原始字段定义创建表单配置
func NewSchema(title string, specs []FieldSpec) Schema {
	s := Schema{FormTitle: title, Fields: make([]Field, 0, len(specs))}
	for _, spec := range specs {
		s.Fields = append(s.Fields, Classify(spec))
	}
	return s
}

// Specs 按顺序返回全部字段定义
func (s Schema) Specs() []FieldSpec {
	specs := make([]FieldSpec, 0, len(s.Fields))
	for _, f := range s.Fields {
		specs = append(specs, f.Spec())
	}
	return specs
}

// Field 按名称查找字段
func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if spec := f.Spec(); spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// HasVideoField 是否包含视频上传字段
func (s Schema) HasVideoField() bool {
	for _, f := range s.Fields {
		if f.Spec().Type == TypeVideoUpload {
			return true
		}
	}
	return false
}

// MarshalJSON 输出 {formTitle, fields}
func (s Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(schemaJSON{FormTitle: s.FormTitle, Fields: s.Specs()})
}

// UnmarshalJSON 解析 {formTitle, fields}
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw schemaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewSchema(raw.FormTitle, raw.Fields)
	return nil
}

// Normalize 校验管理员提交的表单配置并补齐缺失的基础字段。
// 缺失的基础字段按默认顺序插入到最前面，其余字段保持提交顺序。
func Normalize(s Schema) (Schema, error) {
	seen := make(map[string]bool, len(s.Fields))
	fields := make([]Field, 0, len(s.Fields)+len(defaultFields))
	for i, f := range s.Fields {
		spec := f.Spec()
		if spec.Name == "" {
			return Schema{}, fmt.Errorf("%w: 第 %d 个字段缺少 name", ErrInvalidSchema, i+1)
		}
		if seen[spec.Name] {
			return Schema{}, fmt.Errorf("%w: 字段 %s 重复", ErrInvalidSchema, spec.Name)
		}
		if _, ok := f.(CustomField); ok && !spec.Type.Known() {
			return Schema{}, fmt.Errorf("%w: 字段 %s 的类型 %q 不受支持", ErrInvalidSchema, spec.Name, spec.Type)
		}
		seen[spec.Name] = true
		fields = append(fields, f)
	}

	var missing []Field
	for _, d := range defaultFields {
		if !seen[d.Name] {
			df, _ := NewDefaultField(d.Name)
			missing = append(missing, df)
		}
	}

	title := s.FormTitle
	if title == "" {
		title = EmptySchemaTitle
	}
	return Schema{FormTitle: title, Fields: append(missing, fields...)}, nil
}
