package formschema

// DefaultConfigKey 广告创建表单的配置键
const DefaultConfigKey = "ad_create_form"

// EmptySchemaTitle 没有任何配置时的表单标题
const EmptySchemaTitle = "默认广告表单"

// BrokenSchemaTitle 已保存的配置无法解析时的表单标题
const BrokenSchemaTitle = "配置解析错误"

// BaseFieldNames 广告表的基础列，其余字段写入 ext_info
var BaseFieldNames = []string{"publisher", "title", "content", "landing_url", "price"}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

var defaultFields = []FieldSpec{
	{
		Name:        "publisher",
		Type:        TypeInput,
		Label:       "发布者",
		Required:    true,
		Placeholder: "请输入发布者名称",
	},
	{
		Name:        "title",
		Type:        TypeInput,
		Label:       "广告标题",
		Required:    true,
		Placeholder: "请输入广告标题",
		Validation:  &Validation{MaxLength: intPtr(30)},
	},
	{
		Name:        "content",
		Type:        TypeInput,
		Label:       "广告内容",
		Required:    true,
		Placeholder: "请输入广告详细内容",
		Validation:  &Validation{MaxLength: intPtr(500)},
	},
	{
		Name:        "landing_url",
		Type:        TypeInput,
		Label:       "落地页URL",
		Required:    true,
		Placeholder: "请输入落地页链接",
		Validation:  &Validation{Type: "url"},
	},
	{
		Name:        "price",
		Type:        TypeNumber,
		Label:       "初始出价（元/千次曝光）",
		Required:    true,
		Placeholder: "请输入出价",
		Validation: &Validation{
			Required: true,
			Type:     "number",
			Message:  "初始出价必须为数字",
			Min:      floatPtr(0.5),
		},
	},
}

// DefaultFields 返回全部基础字段
func DefaultFields() []DefaultField {
	out := make([]DefaultField, 0, len(defaultFields))
	for _, f := range defaultFields {
		df, _ := NewDefaultField(f.Name)
		out = append(out, df)
	}
	return out
}

// IsBaseField 字段是否对应广告表的基础列
func IsBaseField(name string) bool {
	for _, n := range BaseFieldNames {
		if n == name {
			return true
		}
	}
	return false
}

// EmptySchema 没有任何字段的表单配置，任何记录都能通过
func EmptySchema() Schema {
	return Schema{FormTitle: EmptySchemaTitle}
}

// BuiltinSchema 未保存配置时按类型编码使用的内置表单
func BuiltinSchema(typeCode string) (Schema, bool) {
	switch typeCode {
	case "short_video":
		return NewSchema("创建短视频广告", []FieldSpec{
			{Name: "title", Type: TypeInput, Required: true},
			{Name: "videos", Type: TypeVideoUpload, Required: true},
		}), true
	case "brand":
		return NewSchema("创建品牌广告", []FieldSpec{
			{Name: "title", Type: TypeInput, Required: true},
			{Name: "brand_logo", Type: TypeImageUpload, Required: true},
		}), true
	case "effect":
		return NewSchema("创建效果广告", []FieldSpec{
			{Name: "title", Type: TypeInput, Required: true},
			{Name: "conversion_target", Type: TypeSelect, Required: true},
		}), true
	}
	return Schema{}, false
}

// SchemaForType 返回内置表单，类型未知时返回空表单
func SchemaForType(typeCode string) Schema {
	if s, ok := BuiltinSchema(typeCode); ok {
		return s
	}
	return EmptySchema()
}
