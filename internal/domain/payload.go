package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"gitee.com/flycash/notification-dispatcher/internal/errs"
)

// TemplateName 模板名称，与 Payload 一一对应
type TemplateName string

const (
	TemplateRentReminder      TemplateName = "rent_reminder"
	TemplatePaymentReceipt    TemplateName = "payment_receipt"
	TemplateLeaseRenewal      TemplateName = "lease_renewal"
	TemplateMaintenanceUpdate TemplateName = "maintenance_update"
	TemplateWelcomeTenant     TemplateName = "welcome_tenant"
)

func (t TemplateName) String() string {
	return string(t)
}

// Payload 模板数据。新增模板需要新增一个实现，并在渲染器的类型分支里补上对应的 case
//
// 字段标签约定：
//   - validate 使用 go-playground/validator 的规则
//   - sanitize:"-" 表示系统生成或上游已校验的字段，渲染前不做清洗
type Payload interface {
	TemplateName() TemplateName
	payload()
}

type RentReminder struct {
	TenantName      string    `json:"tenantName" validate:"required,max=100"`
	PropertyAddress string    `json:"propertyAddress" validate:"required,max=300"`
	AmountCents     int64     `json:"amountCents" validate:"gt=0"`
	Currency        string    `json:"currency" validate:"required,len=3" sanitize:"-"`
	DueDate         time.Time `json:"dueDate" validate:"required" sanitize:"-"`
	PaymentURL      string    `json:"paymentUrl" validate:"required,url" sanitize:"-"`
	Note            string    `json:"note,omitempty" validate:"max=500"`
}

func (RentReminder) TemplateName() TemplateName { return TemplateRentReminder }
func (RentReminder) payload()                   {}

type PaymentReceipt struct {
	TenantName  string    `json:"tenantName" validate:"required,max=100"`
	PaymentID   string    `json:"paymentId" validate:"required" sanitize:"-"`
	AmountCents int64     `json:"amountCents" validate:"gt=0"`
	Currency    string    `json:"currency" validate:"required,len=3" sanitize:"-"`
	PaidAt      time.Time `json:"paidAt" validate:"required" sanitize:"-"`
	Method      string    `json:"method" validate:"required,oneof=card bank_transfer cash" sanitize:"-"`
}

func (PaymentReceipt) TemplateName() TemplateName { return TemplatePaymentReceipt }
func (PaymentReceipt) payload()                   {}

type LeaseRenewal struct {
	TenantName      string    `json:"tenantName" validate:"required,max=100"`
	LeaseID         string    `json:"leaseId" validate:"required" sanitize:"-"`
	PropertyAddress string    `json:"propertyAddress" validate:"required,max=300"`
	ExpiresAt       time.Time `json:"expiresAt" validate:"required" sanitize:"-"`
	NewRentCents    int64     `json:"newRentCents" validate:"gte=0"`
	Currency        string    `json:"currency" validate:"required,len=3" sanitize:"-"`
	RenewURL        string    `json:"renewUrl" validate:"required,url" sanitize:"-"`
	Terms           []string  `json:"terms,omitempty" validate:"max=20,dive,max=300"`
}

func (LeaseRenewal) TemplateName() TemplateName { return TemplateLeaseRenewal }
func (LeaseRenewal) payload()                   {}

type MaintenanceUpdate struct {
	TenantName string `json:"tenantName" validate:"required,max=100"`
	TicketID   string `json:"ticketId" validate:"required" sanitize:"-"`
	Status     string `json:"status" validate:"required,oneof=received scheduled in_progress resolved" sanitize:"-"`
	// Notes 来自维修人员的自由文本
	Notes      string      `json:"notes,omitempty" validate:"max=2000"`
	Technician *Technician `json:"technician,omitempty"`
}

type Technician struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"omitempty,e164" sanitize:"-"`
}

func (MaintenanceUpdate) TemplateName() TemplateName { return TemplateMaintenanceUpdate }
func (MaintenanceUpdate) payload()                   {}

type WelcomeTenant struct {
	TenantName string            `json:"tenantName" validate:"required,max=100"`
	OrgName    string            `json:"orgName" validate:"required,max=100"`
	PortalURL  string            `json:"portalUrl" validate:"required,url" sanitize:"-"`
	MoveInDate time.Time         `json:"moveInDate" validate:"required" sanitize:"-"`
	Contacts   map[string]string `json:"contacts,omitempty" validate:"max=10"`
}

func (WelcomeTenant) TemplateName() TemplateName { return TemplateWelcomeTenant }
func (WelcomeTenant) payload()                   {}

// TemplateNames 全部已声明的模板
func TemplateNames() []TemplateName {
	return []TemplateName{
		TemplateRentReminder,
		TemplatePaymentReceipt,
		TemplateLeaseRenewal,
		TemplateMaintenanceUpdate,
		TemplateWelcomeTenant,
	}
}

// DecodePayload 按模板名称把持久化或外部传入的 JSON 还原为具体类型
func DecodePayload(name TemplateName, data []byte) (Payload, error) {
	switch name {
	case TemplateRentReminder:
		return decode[RentReminder](data)
	case TemplatePaymentReceipt:
		return decode[PaymentReceipt](data)
	case TemplateLeaseRenewal:
		return decode[LeaseRenewal](data)
	case TemplateMaintenanceUpdate:
		return decode[MaintenanceUpdate](data)
	case TemplateWelcomeTenant:
		return decode[WelcomeTenant](data)
	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownTemplate, name)
	}
}

func decode[T Payload](data []byte) (Payload, error) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: 解析模板数据失败 %w", errs.ErrInvalidParameter, err)
	}
	return p, nil
}
