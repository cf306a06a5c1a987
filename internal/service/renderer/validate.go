package renderer

import (
	"errors"
	"reflect"
	"strings"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New()
	// 错误里使用 json 字段名，和调用方传入的数据保持一致
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validatePayload(v *validator.Validate, payload domain.Payload) error {
	err := v.Struct(payload)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return &errs.InvalidPayloadError{
			Template: payload.TemplateName().String(),
			Fields:   []errs.FieldError{{Field: "", Rule: "struct", Reason: err.Error()}},
		}
	}
	fields := make([]errs.FieldError, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, errs.FieldError{
			Field:  fieldPath(fe.Namespace()),
			Rule:   fe.Tag(),
			Param:  fe.Param(),
			Reason: reason(fe),
		})
	}
	return &errs.InvalidPayloadError{
		Template: payload.TemplateName().String(),
		Fields:   fields,
	}
}

// fieldPath 去掉最前面的结构体名，例如 RentReminder.tenantName -> tenantName
func fieldPath(ns string) string {
	if idx := strings.IndexByte(ns, '.'); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "url":
		return "不是合法的 URL"
	case "oneof":
		return "取值必须是 " + fe.Param() + " 之一"
	case "max":
		return "长度不能超过 " + fe.Param()
	case "len":
		return "长度必须是 " + fe.Param()
	case "gt", "gte":
		return "取值过小"
	case "e164":
		return "不是合法的电话号码"
	default:
		return "不满足规则 " + fe.Tag()
	}
}
