package renderer

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"strings"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"github.com/Masterminds/sprig/v3"
	"github.com/go-playground/validator/v10"
	"github.com/gotomicro/ego/core/elog"
	"github.com/microcosm-cc/bluemonday"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// Rendered 渲染结果
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer 校验、清洗并渲染模板。编译后的模板按文件名缓存，可以通过 ClearCache 清空
type Renderer struct {
	catalog   Catalog
	fsys      fs.FS
	validate  *validator.Validate
	sanitizer *Sanitizer
	strip     *bluemonday.Policy
	cache     *cache.Cache
	compiling singleflight.Group
	logger    *elog.Component
}

func NewRenderer(catalog Catalog, fsys fs.FS) *Renderer {
	return &Renderer{
		catalog:   catalog,
		fsys:      fsys,
		validate:  newValidator(),
		sanitizer: NewSanitizer(),
		strip:     bluemonday.StrictPolicy(),
		cache:     cache.New(cache.NoExpiration, 0),
		logger:    elog.DefaultLogger,
	}
}

// NewDefaultRenderer 使用内置模板
func NewDefaultRenderer() (*Renderer, error) {
	fsys := DefaultFS()
	catalog, err := LoadCatalog(fsys)
	if err != nil {
		return nil, err
	}
	return NewRenderer(catalog, fsys), nil
}

// Render 按顺序执行：查找模板、校验、清洗、计算标题、渲染正文并套用布局、生成纯文本
func (r *Renderer) Render(name domain.TemplateName, payload domain.Payload) (Rendered, error) {
	entry, ok := r.catalog.Templates[name]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %s", errs.ErrUnknownTemplate, name)
	}
	if payload == nil {
		return Rendered{}, &errs.InvalidPayloadError{
			Template: name.String(),
			Fields:   []errs.FieldError{{Rule: "required", Reason: "模板数据不能为空"}},
		}
	}
	if payload.TemplateName() != name {
		return Rendered{}, &errs.InvalidPayloadError{
			Template: name.String(),
			Fields: []errs.FieldError{{
				Rule:   "template",
				Param:  payload.TemplateName().String(),
				Reason: "模板数据类型与模板不匹配",
			}},
		}
	}
	if err := validatePayload(r.validate, payload); err != nil {
		return Rendered{}, err
	}

	subject, err := r.subject(entry, payload)
	if err != nil {
		return Rendered{}, err
	}
	data := r.sanitizer.Data(payload)

	body, err := r.execute(entry.File, data)
	if err != nil {
		return Rendered{}, err
	}
	full := body
	if r.catalog.Layout != "" {
		full, err = r.execute(r.catalog.Layout, map[string]any{
			"Subject": subject,
			"Body":    template.HTML(body), //nolint:gosec // 正文由上一步模板渲染得到
		})
		if err != nil {
			return Rendered{}, err
		}
	}
	return Rendered{
		Subject: subject,
		HTML:    full,
		Text:    r.textFallback(body),
	}, nil
}

// subject 新增模板时在这里补上对应的分支
func (r *Renderer) subject(entry Entry, payload domain.Payload) (string, error) {
	if entry.Subject != "" {
		return entry.Subject, nil
	}
	switch p := payload.(type) {
	case domain.RentReminder:
		return fmt.Sprintf("Rent of %s due on %s", formatMoney(p.AmountCents, p.Currency), p.DueDate.Format("January 2, 2006")), nil
	case domain.PaymentReceipt:
		return fmt.Sprintf("Receipt for your %s payment", formatMoney(p.AmountCents, p.Currency)), nil
	case domain.LeaseRenewal:
		return fmt.Sprintf("Your lease expires on %s", p.ExpiresAt.Format("January 2, 2006")), nil
	case domain.MaintenanceUpdate:
		return fmt.Sprintf("Maintenance request %s: %s", p.TicketID, strings.ReplaceAll(p.Status, "_", " ")), nil
	case domain.WelcomeTenant:
		return "Welcome, " + r.plainText(p.TenantName), nil
	default:
		return "", fmt.Errorf("%w: %T", errs.ErrUnknownTemplate, payload)
	}
}

func (r *Renderer) execute(file string, data any) (string, error) {
	t, err := r.compiled(file)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err = t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrRenderFailed, errors.Wrapf(err, "执行模板 %s", file))
	}
	return buf.String(), nil
}

func (r *Renderer) compiled(file string) (*template.Template, error) {
	if val, ok := r.cache.Get(file); ok {
		return val.(*template.Template), nil
	}
	val, err, _ := r.compiling.Do(file, func() (any, error) {
		t, err := template.New(file).
			Funcs(sprig.HtmlFuncMap()).
			Funcs(template.FuncMap{"money": formatMoney}).
			ParseFS(r.fsys, file)
		if err != nil {
			return nil, errors.Wrapf(err, "编译模板 %s", file)
		}
		r.cache.Set(file, t, cache.NoExpiration)
		r.logger.Debug("模板编译完成", elog.String("file", file))
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrRenderFailed, err)
	}
	return val.(*template.Template), nil
}

// ClearCache 模板文件变更之后调用
func (r *Renderer) ClearCache() {
	r.cache.Flush()
	r.logger.Info("模板缓存已清空")
}

func (r *Renderer) CachedCount() int {
	return r.cache.ItemCount()
}

// textFallback 去掉所有标签，保留非空行
func (r *Renderer) textFallback(body string) string {
	lines := strings.Split(r.plainText(body), "\n")
	res := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			res = append(res, line)
		}
	}
	return strings.Join(res, "\n")
}

// plainText 纯文本里没有实体可用，定界符中间插入空格
func (r *Renderer) plainText(s string) string {
	return textDelimiterReplacer.Replace(html.UnescapeString(r.strip.Sanitize(s)))
}

func formatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s %d.%02d", sign, strings.ToUpper(currency), cents/100, cents%100)
}
