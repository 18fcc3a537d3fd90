// internal/service/configurator/domain/event.go
package domain

import "time"

// ConfigurationCreated 在配置事务提交后发布。
type ConfigurationCreated struct {
	ConfigurationID  string    `json:"configurationId"`
	ProductID        string    `json:"productId"`
	TotalPrice       string    `json:"totalPrice"`
	IsValid          bool      `json:"isValid"`
	ValidationErrors []string  `json:"validationErrors"`
	SelectionCount   int       `json:"selectionCount"`
	TraceID          string    `json:"traceId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// NewConfigurationCreated 从已持久化的配置构造事件。
func NewConfigurationCreated(cfg *ProductConfiguration, traceID string) *ConfigurationCreated {
	return &ConfigurationCreated{
		ConfigurationID:  cfg.ID,
		ProductID:        cfg.ProductID,
		TotalPrice:       cfg.TotalPrice.StringFixed(2),
		IsValid:          cfg.IsValid,
		ValidationErrors: cfg.ValidationErrors,
		SelectionCount:   len(cfg.Selections),
		TraceID:          traceID,
		CreatedAt:        cfg.CreatedAt,
	}
}
