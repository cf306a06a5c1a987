package renderer

import (
	"errors"
	"testing"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gitee.com/flycash/notification-dispatcher/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewDefaultRenderer()
	require.NoError(t, err)
	return r
}

func TestRenderer_AllTemplates(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t)
	day := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name        string
		payload     domain.Payload
		wantSubject string
		wantBody    []string
	}{
		{
			name: "房租提醒",
			payload: domain.RentReminder{
				TenantName:      "Alice",
				PropertyAddress: "12 Oak Ave",
				AmountCents:     150050,
				Currency:        "usd",
				DueDate:         day,
				PaymentURL:      "https://pay.example.com/r/1",
			},
			wantSubject: "Rent of USD 1500.50 due on April 1, 2025",
			wantBody:    []string{"Hi Alice", "USD 1500.50", "April 1, 2025", `href="https://pay.example.com/r/1"`},
		},
		{
			name: "付款回执",
			payload: domain.PaymentReceipt{
				TenantName:  "Bob",
				PaymentID:   "pay_1",
				AmountCents: 9900,
				Currency:    "EUR",
				PaidAt:      day,
				Method:      "bank_transfer",
			},
			wantSubject: "Payment received - thank you",
			wantBody:    []string{"Bank Transfer", "pay_1", "EUR 99.00"},
		},
		{
			name: "续租",
			payload: domain.LeaseRenewal{
				TenantName:      "Carol",
				LeaseID:         "L-7",
				PropertyAddress: "3 Pine Rd",
				ExpiresAt:       day,
				NewRentCents:    210000,
				Currency:        "USD",
				RenewURL:        "https://portal.example.com/renew",
				Terms:           []string{"12 months", "<i>pets allowed</i>"},
			},
			wantSubject: "Your lease expires on April 1, 2025",
			wantBody:    []string{"L-7", "USD 2100.00", "<li>12 months</li>", "<i>pets allowed</i>"},
		},
		{
			name: "欢迎",
			payload: domain.WelcomeTenant{
				TenantName: "Dave",
				OrgName:    "Acme Homes",
				PortalURL:  "https://portal.example.com",
				MoveInDate: day,
				Contacts:   map[string]string{"office": "front desk"},
			},
			wantSubject: "Welcome to your new home",
			wantBody:    []string{"Welcome, Dave", "Acme Homes", "office: front desk"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := r.Render(tc.payload.TemplateName(), tc.payload)
			require.NoError(t, err)
			assert.Equal(t, tc.wantSubject, res.Subject)
			for _, want := range tc.wantBody {
				assert.Contains(t, res.HTML, want)
			}
			assert.Contains(t, res.HTML, "<!DOCTYPE html>")
			assert.NotContains(t, res.Text, "<p>")
			assert.NotEmpty(t, res.Text)
		})
	}
}

func TestRenderer_TemplateExpressionIsNeutralized(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t)

	res, err := r.Render(domain.TemplateMaintenanceUpdate, domain.MaintenanceUpdate{
		TenantName: "Eve",
		TicketID:   "T-1",
		Status:     "in_progress",
		Notes:      "{{7*7}}",
	})
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "&#123;&#123;7*7&#125;&#125;")
	assert.NotContains(t, res.HTML, "49")
	assert.NotContains(t, res.HTML, "{{")
	assert.Contains(t, res.Text, "{ {7*7} }")
	assert.Equal(t, "Maintenance request T-1: in progress", res.Subject)
}

func TestRenderer_StripsDisallowedHTML(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t)

	res, err := r.Render(domain.TemplateMaintenanceUpdate, domain.MaintenanceUpdate{
		TenantName: `<img src=x onerror="alert(1)">Eve`,
		TicketID:   "T-2",
		Status:     "resolved",
		Notes:      `<script>alert("x")</script><b>fixed</b> the <a href="https://evil.example">sink</a>`,
		Technician: &domain.Technician{Name: "<em>Sam</em>", Phone: "+15551234567"},
	})
	require.NoError(t, err)
	assert.NotContains(t, res.HTML, "<script")
	assert.NotContains(t, res.HTML, "onerror")
	assert.NotContains(t, res.HTML, "evil.example")
	assert.Contains(t, res.HTML, "<b>fixed</b>")
	// 模板引擎会把 + 转义成实体
	assert.Contains(t, res.HTML, "<em>Sam</em> (&#43;15551234567)")
	assert.Contains(t, res.Text, "fixed the sink")
}

func TestRenderer_InvalidPayload(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t)

	_, err := r.Render(domain.TemplateRentReminder, domain.RentReminder{
		PropertyAddress: "1 Main St",
		AmountCents:     100,
		Currency:        "USD",
		DueDate:         time.Now(),
		PaymentURL:      "not a url",
	})
	require.ErrorIs(t, err, errs.ErrInvalidPayload)
	assert.Equal(t, errs.ClassTerminal, errs.Classify(err))

	var ipe *errs.InvalidPayloadError
	require.True(t, errors.As(err, &ipe))
	fields := make(map[string]string, len(ipe.Fields))
	for _, f := range ipe.Fields {
		fields[f.Field] = f.Rule
	}
	assert.Equal(t, map[string]string{"tenantName": "required", "paymentUrl": "url"}, fields)
}

func TestRenderer_TemplateMismatch(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t)
	_, err := r.Render(domain.TemplateRentReminder, domain.WelcomeTenant{})
	assert.ErrorIs(t, err, errs.ErrInvalidPayload)
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	t.Parallel()
	fsys := DefaultFS()
	catalog, err := LoadCatalog(fsys)
	require.NoError(t, err)
	delete(catalog.Templates, domain.TemplateWelcomeTenant)
	r := NewRenderer(catalog, fsys)

	_, err = r.Render(domain.TemplateWelcomeTenant, domain.WelcomeTenant{})
	assert.ErrorIs(t, err, errs.ErrUnknownTemplate)
	assert.Equal(t, errs.ClassTerminal, errs.Classify(err))
}

func TestRenderer_Cache(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(t)
	payload := domain.PaymentReceipt{
		TenantName:  "Bob",
		PaymentID:   "pay_1",
		AmountCents: 100,
		Currency:    "USD",
		PaidAt:      time.Now(),
		Method:      "card",
	}
	_, err := r.Render(payload.TemplateName(), payload)
	require.NoError(t, err)
	// 正文模板 + 布局
	assert.Equal(t, 2, r.CachedCount())

	r.ClearCache()
	assert.Equal(t, 0, r.CachedCount())

	_, err = r.Render(payload.TemplateName(), payload)
	require.NoError(t, err)
	assert.Equal(t, 2, r.CachedCount())
}
