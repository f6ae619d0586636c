package formschema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func iptr(v int) *int       { return &v }

func TestValidate_PriceBelowMinimum(t *testing.T) {
	v := NewValidator(nil)
	fields := []FieldSpec{{
		Name:       "price",
		Type:       TypeNumber,
		Required:   true,
		Validation: &Validation{Min: f64(0.5)},
	}}

	r := v.Validate(fields, Candidate{Values: map[string]interface{}{"price": 0.1}})

	require.False(t, r.Valid)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0], "price")
	assert.Contains(t, r.Errors[0], "0.5")
}

func TestValidate_RequiredMissing(t *testing.T) {
	v := NewValidator(nil)
	types := []FieldType{TypeInput, TypeNumber, TypeSelect, TypeImageUpload, TypeFileUpload}
	missing := map[string]interface{}{
		"absent": nil,
		"null":   nil,
		"empty":  "",
		"blank":  "   ",
	}

	for _, typ := range types {
		for label, value := range missing {
			t.Run(string(typ)+"/"+label, func(t *testing.T) {
				values := map[string]interface{}{}
				if label != "absent" {
					values["target"] = value
				}
				fields := []FieldSpec{{Name: "target", Type: typ, Required: true}}

				r := v.Validate(fields, Candidate{Values: values})

				require.False(t, r.Valid)
				named := 0
				for _, e := range r.Errors {
					if strings.Contains(e, "target") {
						named++
					}
				}
				assert.Equal(t, 1, named, "errors: %v", r.Errors)
			})
		}
	}
}

func TestValidate_RequiredViaValidationBlock(t *testing.T) {
	v := NewValidator(nil)
	fields := []FieldSpec{{Name: "title", Type: TypeInput, Validation: &Validation{Required: true}}}

	r := v.Validate(fields, Candidate{})

	assert.Equal(t, []string{"字段 title 为必填"}, r.Errors)
}

func TestValidate_EffectiveValuePrefersTopLevel(t *testing.T) {
	v := NewValidator(nil)
	fields := []FieldSpec{{Name: "slogan", Type: TypeInput, Required: true, Validation: &Validation{MaxLength: iptr(3)}}}

	r := v.Validate(fields, Candidate{
		Values: map[string]interface{}{"slogan": "ok"},
		Ext:    map[string]interface{}{"slogan": "far too long"},
	})
	assert.True(t, r.Valid, r.Errors)

	r = v.Validate(fields, Candidate{Ext: map[string]interface{}{"slogan": "far too long"}})
	assert.Equal(t, []string{"字段 slogan 最多 3 个字"}, r.Errors)
}

func TestValidate_VideoFields(t *testing.T) {
	v := NewValidator(nil)

	t.Run("optional video field still needs a video", func(t *testing.T) {
		fields := []FieldSpec{{Name: "videos", Type: TypeVideoUpload}}
		r := v.Validate(fields, Candidate{})
		assert.Equal(t, []string{MsgVideoRequired}, r.Errors)
	})

	t.Run("required video field reports both errors", func(t *testing.T) {
		fields := []FieldSpec{{Name: "videos", Type: TypeVideoUpload, Required: true}}
		r := v.Validate(fields, Candidate{Values: map[string]interface{}{"videos": "ignored"}})
		assert.Equal(t, []string{"字段 videos 必填（至少上传一个视频）", MsgVideoRequired}, r.Errors)
	})

	t.Run("global video error is reported once", func(t *testing.T) {
		fields := []FieldSpec{
			{Name: "intro", Type: TypeVideoUpload},
			{Name: "outro", Type: TypeVideoUpload},
		}
		r := v.Validate(fields, Candidate{})
		assert.Equal(t, []string{MsgVideoRequired}, r.Errors)
	})

	t.Run("videos satisfy the field", func(t *testing.T) {
		fields := []FieldSpec{{Name: "videos", Type: TypeVideoUpload, Required: true}}
		r := v.Validate(fields, Candidate{VideoIDs: []string{"v1"}})
		assert.True(t, r.Valid)
		assert.Empty(t, r.Errors)
	})
}

func TestValidate_NumericBoundsInclusive(t *testing.T) {
	v := NewValidator(nil)
	fields := []FieldSpec{{Name: "age", Type: TypeNumber, Validation: &Validation{Min: f64(18), Max: f64(60)}}}

	tests := []struct {
		value interface{}
		valid bool
	}{
		{18, true},
		{60, true},
		{"18", true},
		{17, false},
		{61, false},
		{int64(30), true},
	}
	for _, tt := range tests {
		r := v.Validate(fields, Candidate{Values: map[string]interface{}{"age": tt.value}})
		assert.Equal(t, tt.valid, r.Valid, "value %v: %v", tt.value, r.Errors)
	}
}

func TestValidate_NumericAliases(t *testing.T) {
	v := NewValidator(nil)

	aliased := []FieldSpec{{Name: "n", Type: TypeNumber, Validation: &Validation{MinValue: f64(1), MaxValue: f64(5)}}}
	assert.True(t, v.Validate(aliased, Candidate{Values: map[string]interface{}{"n": 5}}).Valid)
	assert.Equal(t, []string{"字段 n 不得大于 5"}, v.Validate(aliased, Candidate{Values: map[string]interface{}{"n": 6}}).Errors)

	both := []FieldSpec{{Name: "n", Type: TypeNumber, Validation: &Validation{Min: f64(10), MinValue: f64(1)}}}
	assert.Equal(t, []string{"字段 n 不得小于 10"}, v.Validate(both, Candidate{Values: map[string]interface{}{"n": 5}}).Errors)
}

func TestValidate_NotANumber(t *testing.T) {
	v := NewValidator(nil)

	plain := []FieldSpec{{Name: "n", Type: TypeNumber, Validation: &Validation{Min: f64(1)}}}
	assert.Equal(t, []string{"字段 n 必须为数字"}, v.Validate(plain, Candidate{Values: map[string]interface{}{"n": "abc"}}).Errors)

	custom := []FieldSpec{{Name: "n", Type: TypeInput, Validation: &Validation{Type: "number", Message: "请输入数字"}}}
	assert.Equal(t, []string{"请输入数字"}, v.Validate(custom, Candidate{Values: map[string]interface{}{"n": "1e"}}).Errors)
}

func TestValidate_StringLength(t *testing.T) {
	v := NewValidator(nil)

	t.Run("counts characters not bytes", func(t *testing.T) {
		fields := []FieldSpec{{Name: "title", Type: TypeInput, Validation: &Validation{MaxLength: iptr(4)}}}
		assert.True(t, v.Validate(fields, Candidate{Values: map[string]interface{}{"title": "广告标题"}}).Valid)
		assert.Equal(t, []string{"字段 title 最多 4 个字"},
			v.Validate(fields, Candidate{Values: map[string]interface{}{"title": "广告标题长"}}).Errors)
	})

	t.Run("falls back to legacy min and max", func(t *testing.T) {
		fields := []FieldSpec{{Name: "code", Type: TypeInput, Validation: &Validation{Min: f64(2), Max: f64(3)}}}
		assert.Equal(t, []string{"字段 code 至少 2 个字"},
			v.Validate(fields, Candidate{Values: map[string]interface{}{"code": "a"}}).Errors)
		assert.Equal(t, []string{"字段 code 最多 3 个字"},
			v.Validate(fields, Candidate{Values: map[string]interface{}{"code": "abcd"}}).Errors)
	})

	t.Run("fractional legacy bounds round inward", func(t *testing.T) {
		fields := []FieldSpec{{Name: "code", Type: TypeInput, Validation: &Validation{Min: f64(2.5), Max: f64(4.5)}}}
		assert.Equal(t, []string{"字段 code 至少 3 个字"},
			v.Validate(fields, Candidate{Values: map[string]interface{}{"code": "ab"}}).Errors)
		assert.True(t, v.Validate(fields, Candidate{Values: map[string]interface{}{"code": "abc"}}).Valid)
		assert.True(t, v.Validate(fields, Candidate{Values: map[string]interface{}{"code": "abcd"}}).Valid)
		assert.Equal(t, []string{"字段 code 最多 4 个字"},
			v.Validate(fields, Candidate{Values: map[string]interface{}{"code": "abcde"}}).Errors)
	})
}

func TestValidate_URL(t *testing.T) {
	v := NewValidator(nil)
	byType := []FieldSpec{{Name: "landing_url", Type: TypeInput, Validation: &Validation{Type: "url"}}}
	byPattern := []FieldSpec{{Name: "landing_url", Type: TypeInput, Validation: &Validation{Pattern: "url", Message: "ignored"}}}

	tests := []struct {
		value string
		valid bool
	}{
		{"https://example.com/landing?id=1", true},
		{"http://example.com", true},
		{"ftp://example.com", false},
		{"example.com", false},
		{"/relative/path", false},
		{"not a url", false},
	}
	for _, fields := range [][]FieldSpec{byType, byPattern} {
		for _, tt := range tests {
			r := v.Validate(fields, Candidate{Values: map[string]interface{}{"landing_url": tt.value}})
			assert.Equal(t, tt.valid, r.Valid, "value %q: %v", tt.value, r.Errors)
			if !tt.valid {
				assert.Equal(t, []string{"字段 landing_url 不是有效的 URL"}, r.Errors)
			}
		}
	}
}

func TestValidate_Pattern(t *testing.T) {
	v := NewValidator(nil)

	fields := []FieldSpec{{Name: "phone", Type: TypeInput, Validation: &Validation{Pattern: `^1\d{10}$`}}}
	assert.True(t, v.Validate(fields, Candidate{Values: map[string]interface{}{"phone": "13800000000"}}).Valid)
	assert.Equal(t, []string{"字段 phone 格式不正确"},
		v.Validate(fields, Candidate{Values: map[string]interface{}{"phone": "12"}}).Errors)

	withMessage := []FieldSpec{{Name: "phone", Type: TypeInput, Validation: &Validation{Pattern: `^1\d{10}$`, Message: "手机号格式错误"}}}
	assert.Equal(t, []string{"手机号格式错误"},
		v.Validate(withMessage, Candidate{Values: map[string]interface{}{"phone": "12"}}).Errors)
}

func TestValidate_InvalidPatternIsSkipped(t *testing.T) {
	v := NewValidator(nil)
	fields := []FieldSpec{
		{Name: "broken", Type: TypeInput, Validation: &Validation{Pattern: `([a-z`}},
		{Name: "lookahead", Type: TypeInput, Validation: &Validation{Pattern: `^(?=.*\d).+$`}},
	}

	r := v.Validate(fields, Candidate{Values: map[string]interface{}{"broken": "x", "lookahead": "y"}})

	assert.True(t, r.Valid)
	assert.Empty(t, r.Errors)
}

func TestValidate_Select(t *testing.T) {
	v := NewValidator(nil)
	fields := []FieldSpec{{
		Name:       "target",
		Type:       TypeSelect,
		Enums:      []interface{}{"download", "register", 3},
		Validation: &Validation{MaxLength: iptr(1)},
	}}

	assert.True(t, v.Validate(fields, Candidate{Values: map[string]interface{}{"target": "download"}}).Valid)
	assert.True(t, v.Validate(fields, Candidate{Values: map[string]interface{}{"target": float64(3)}}).Valid)
	assert.Equal(t, []string{"字段 target 的值不在允许范围内"},
		v.Validate(fields, Candidate{Values: map[string]interface{}{"target": "3"}}).Errors)
	assert.Equal(t, []string{"字段 target 的值不在允许范围内"},
		v.Validate(fields, Candidate{Values: map[string]interface{}{"target": []interface{}{"download"}}}).Errors)

	noEnums := []FieldSpec{{Name: "target", Type: TypeSelect}}
	assert.True(t, v.Validate(noEnums, Candidate{Values: map[string]interface{}{"target": "anything"}}).Valid)
}

func TestValidate_CollectsErrorsInFieldOrder(t *testing.T) {
	v := NewValidator(nil)
	fields := []FieldSpec{
		{Name: "b", Type: TypeInput, Required: true},
		{Name: "a", Type: TypeNumber, Validation: &Validation{Max: f64(1)}},
		{Name: "c", Type: TypeInput, Required: true},
	}

	r := v.Validate(fields, Candidate{Values: map[string]interface{}{"a": 2, "unlisted": ""}})

	assert.Equal(t, []string{"字段 b 为必填", "字段 a 不得大于 1", "字段 c 为必填"}, r.Errors)
}

func TestValidate_EmptySchemaAcceptsAnything(t *testing.T) {
	v := NewValidator(nil)

	r := v.ValidateSchema(EmptySchema(), Candidate{Values: map[string]interface{}{"price": "nope"}})

	assert.True(t, r.Valid)
	assert.NotNil(t, r.Errors)
}

func TestAssertValid(t *testing.T) {
	v := NewValidator(nil)
	fields := []FieldSpec{
		{Name: "title", Type: TypeInput, Required: true},
		{Name: "publisher", Type: TypeInput, Required: true},
	}

	err := v.AssertValid(fields, Candidate{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
	assert.Equal(t, "字段 title 为必填; 字段 publisher 为必填", err.Error())

	assert.NoError(t, v.AssertValid(fields, Candidate{Values: map[string]interface{}{"title": "t", "publisher": "p"}}))
}
