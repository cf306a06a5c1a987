package domain

import "time"

// AttemptStatus 单次投递的结果
type AttemptStatus string

const (
	AttemptStatusSent      AttemptStatus = "sent"
	AttemptStatusDelivered AttemptStatus = "delivered"
	AttemptStatusOpened    AttemptStatus = "opened"
	AttemptStatusClicked   AttemptStatus = "clicked"
	AttemptStatusFailed    AttemptStatus = "failed"
	AttemptStatusBounced   AttemptStatus = "bounced"
)

func (s AttemptStatus) IsValid() bool {
	switch s {
	case AttemptStatusSent, AttemptStatusDelivered, AttemptStatusOpened,
		AttemptStatusClicked, AttemptStatusFailed, AttemptStatusBounced:
		return true
	default:
		return false
	}
}

// IsFailure bounced 也计入失败
func (s AttemptStatus) IsFailure() bool {
	return s == AttemptStatusFailed || s == AttemptStatusBounced
}

// DeliveryAttemptRecord 每次尝试的不可变记录，每个收件人一条
type DeliveryAttemptRecord struct {
	ID               uint64            `json:"id"`
	JobID            uint64            `json:"jobId"`
	TemplateName     TemplateName      `json:"templateName"`
	Recipient        string            `json:"recipient"`
	Status           AttemptStatus     `json:"status"`
	Timestamp        time.Time         `json:"timestamp"`
	ProcessingTimeMs int64             `json:"processingTimeMs"`
	ErrorMessage     string            `json:"errorMessage,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// AlertLevel 告警级别
type AlertLevel string

const (
	AlertLevelCritical AlertLevel = "critical"
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelInfo     AlertLevel = "info"
)

// Alert 由当前记录窗口实时推导，不落库
type Alert struct {
	Level     AlertLevel `json:"level"`
	Metric    string     `json:"metric"`
	Value     float64    `json:"value"`
	Threshold float64    `json:"threshold"`
	Message   string     `json:"message"`
}
