package formschema

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"adwall/pkg/logger"
)

// MsgVideoRequired 表单包含视频字段但没有任何视频
const MsgVideoRequired = "请上传至少一个视频（与表单配置一致）"

// Candidate 待校验的记录。字段值优先取 Values，缺失时取 Ext；
// 视频通过 VideoIDs 单独传入，与字段自身的值无关。
type Candidate struct {
	Values   map[string]interface{}
	Ext      map[string]interface{}
	VideoIDs []string
}

// Lookup 返回字段的有效值
func (c Candidate) Lookup(name string) (interface{}, bool) {
	if v, ok := c.Values[name]; ok && v != nil {
		return v, true
	}
	if v, ok := c.Ext[name]; ok {
		return v, true
	}
	return nil, false
}

// Result 校验结果，Errors 按字段顺序排列
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidationError 记录不满足表单配置
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, "; ")
}

// Validator 基于表单配置的记录校验器，不会 panic，也不会因为配置错误而中断
type Validator struct {
	logger   *logger.Logger
	validate *validator.Validate
}

// NewValidator 创建校验器
func NewValidator(l *logger.Logger) *Validator {
	if l == nil {
		l = logger.NewNop()
	}
	return &Validator{logger: l, validate: validator.New()}
}

// ValidateSchema 按表单配置校验记录
func (v *Validator) ValidateSchema(s Schema, c Candidate) Result {
	return v.Validate(s.Specs(), c)
}

// AssertValid 校验失败时返回 *ValidationError
func (v *Validator) AssertValid(fields []FieldSpec, c Candidate) error {
	if r := v.Validate(fields, c); !r.Valid {
		return &ValidationError{Errors: r.Errors}
	}
	return nil
}

// Validate 按字段顺序收集全部错误
func (v *Validator) Validate(fields []FieldSpec, c Candidate) Result {
	errs := []string{}
	videoChecked := false
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		errs = append(errs, v.validateField(f, c)...)

		// 只要表单有视频字段就要求至少一个视频，必填与否都一样
		if f.Type == TypeVideoUpload && !videoChecked {
			videoChecked = true
			if len(c.VideoIDs) == 0 {
				errs = append(errs, MsgVideoRequired)
			}
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func (v *Validator) validateField(f FieldSpec, c Candidate) []string {
	rules := f.Validation
	if rules == nil {
		rules = &Validation{}
	}
	required := f.Required || rules.Required

	if f.Type == TypeVideoUpload {
		if required && len(c.VideoIDs) == 0 {
			return []string{fmt.Sprintf("字段 %s 必填（至少上传一个视频）", f.Name)}
		}
		return nil
	}

	value, _ := c.Lookup(f.Name)
	if isEmpty(value) {
		if required {
			return []string{fmt.Sprintf("字段 %s 为必填", f.Name)}
		}
		return nil
	}

	if f.Type == TypeSelect {
		if len(f.Enums) > 0 && !containsEnum(f.Enums, value) {
			return []string{fmt.Sprintf("字段 %s 的值不在允许范围内", f.Name)}
		}
		return nil
	}
	if f.Type.IsUpload() {
		return nil
	}

	if f.Type == TypeNumber || rules.Type == "number" {
		return v.validateNumber(f, rules, value)
	}
	return v.validateString(f, rules, value)
}

func (v *Validator) validateNumber(f FieldSpec, rules *Validation, value interface{}) []string {
	num, ok := toNumber(value)
	if !ok {
		msg := rules.Message
		if msg == "" {
			msg = fmt.Sprintf("字段 %s 必须为数字", f.Name)
		}
		return []string{msg}
	}
	var errs []string
	if min := rules.lowerBound(); min != nil && num < *min {
		errs = append(errs, fmt.Sprintf("字段 %s 不得小于 %s", f.Name, formatNumber(*min)))
	}
	if max := rules.upperBound(); max != nil && num > *max {
		errs = append(errs, fmt.Sprintf("字段 %s 不得大于 %s", f.Name, formatNumber(*max)))
	}
	return errs
}

func (v *Validator) validateString(f FieldSpec, rules *Validation, value interface{}) []string {
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprint(value)
	}

	var errs []string
	n := utf8.RuneCountInString(s)
	minLen, maxLen := rules.lengthBounds()
	if maxLen != nil && n > *maxLen {
		errs = append(errs, fmt.Sprintf("字段 %s 最多 %d 个字", f.Name, *maxLen))
	}
	if minLen != nil && n < *minLen {
		errs = append(errs, fmt.Sprintf("字段 %s 至少 %d 个字", f.Name, *minLen))
	}

	if rules.Type == "url" || rules.Pattern == "url" {
		if !v.isHTTPURL(strings.TrimSpace(s)) {
			errs = append(errs, fmt.Sprintf("字段 %s 不是有效的 URL", f.Name))
		}
		return errs
	}

	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err != nil {
			v.logger.Warn("表单配置中的正则无效，已跳过该规则", "field", f.Name, "pattern", rules.Pattern, "error", err)
			return errs
		}
		if !re.MatchString(s) {
			msg := rules.Message
			if msg == "" {
				msg = fmt.Sprintf("字段 %s 格式不正确", f.Name)
			}
			errs = append(errs, msg)
		}
	}
	return errs
}

// isHTTPURL 是否为带协议的 http/https 绝对地址
func (v *Validator) isHTTPURL(s string) bool {
	if s == "" || v.validate.Var(s, "url") != nil {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// toNumber 把值转换为有限的数字
func toNumber(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func containsEnum(enums []interface{}, value interface{}) bool {
	for _, e := range enums {
		if sameScalar(e, value) {
			return true
		}
	}
	return false
}

// sameScalar 严格比较：字符串与字符串、数字与数字
func sameScalar(a, b interface{}) bool {
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr || bStr {
		return aStr && bStr && as == bs
	}
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an == bn
	}
	ab, aBool := a.(bool)
	bb, bBool := b.(bool)
	return aBool && bBool && ab == bb
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
