package renderer

import (
	"fmt"
	"html/template"
	"reflect"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

const sanitizeTag = "sanitize"

// delimiterReplacer 模板表达式的定界符替换成 HTML 实体，
// 后续无论经过哪一层模板引擎都只会原样输出
var delimiterReplacer = strings.NewReplacer(
	"{{", "&#123;&#123;",
	"}}", "&#125;&#125;",
	"{%", "&#123;%",
	"%}", "%&#125;",
)

var textDelimiterReplacer = strings.NewReplacer(
	"{{", "{ {",
	"}}", "} }",
	"{%", "{ %",
	"%}", "% }",
)

// Sanitizer 递归清洗模板数据里的字符串
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer 只允许少量行内格式标签
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "br", "code", "small")
	return &Sanitizer{policy: p}
}

// String 清洗后的结果已经是转义过的 HTML，包装成 template.HTML 避免二次转义
func (s *Sanitizer) String(str string) template.HTML {
	return template.HTML(delimiterReplacer.Replace(s.policy.Sanitize(str))) //nolint:gosec // 已经过 bluemonday 清洗
}

// Data 把 payload 转成模板使用的数据。
// 结构体变成以字段名为 key 的 map，带 sanitize:"-" 标签的字段原样保留。
func (s *Sanitizer) Data(payload any) map[string]any {
	v := reflect.ValueOf(payload)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return map[string]any{}
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return map[string]any{}
	}
	return s.structData(v)
}

var timeType = reflect.TypeOf(time.Time{})

func (s *Sanitizer) structData(v reflect.Value) map[string]any {
	t := v.Type()
	res := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fv := v.Field(i)
		if f.Tag.Get(sanitizeTag) == "-" {
			res[f.Name] = fv.Interface()
			continue
		}
		res[f.Name] = s.value(fv)
	}
	return res
}

func (s *Sanitizer) value(v reflect.Value) any {
	switch v.Kind() {
	case reflect.String:
		return s.String(v.String())
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return s.value(v.Elem())
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface()
		}
		return s.structData(v)
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		res := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			res[i] = s.value(v.Index(i))
		}
		return res
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		res := make(map[template.HTML]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := iter.Key()
			var k template.HTML
			if key.Kind() == reflect.String {
				k = s.String(key.String())
			} else {
				k = s.String(fmt.Sprint(key.Interface()))
			}
			res[k] = s.value(iter.Value())
		}
		return res
	default:
		if v.CanInterface() {
			return v.Interface()
		}
		return nil
	}
}
