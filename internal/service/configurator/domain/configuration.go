// internal/service/configurator/domain/configuration.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfigurationSelection 是客户选择的 (PartType, PartOption, 数量) 三元组。
type ConfigurationSelection struct {
	PartTypeID   string `json:"partTypeId"`
	PartOptionID string `json:"partOptionId"`
	Quantity     int    `json:"quantity"`
}

// Selections 是一个有序的选择集合，每个 PartType 最多出现一次。
type Selections []ConfigurationSelection

// NewSelections 依次 Upsert，同一 PartType 后出现的选择覆盖之前的。
func NewSelections(items ...ConfigurationSelection) Selections {
	s := make(Selections, 0, len(items))
	for _, it := range items {
		s = s.Upsert(it)
	}
	return s
}

// Upsert 返回一个新集合：替换同一 PartType 的已有选择，否则追加。
func (s Selections) Upsert(sel ConfigurationSelection) Selections {
	out := make(Selections, len(s), len(s)+1)
	copy(out, s)
	for i := range out {
		if out[i].PartTypeID == sel.PartTypeID {
			out[i] = sel
			return out
		}
	}
	return append(out, sel)
}

// Has 判断某个选项是否被选中。
func (s Selections) Has(partOptionID string) bool {
	_, ok := s.Find(partOptionID)
	return ok
}

func (s Selections) Find(partOptionID string) (ConfigurationSelection, bool) {
	for _, sel := range s {
		if sel.PartOptionID == partOptionID {
			return sel, true
		}
	}
	return ConfigurationSelection{}, false
}

func (s Selections) HasPartType(partTypeID string) bool {
	for _, sel := range s {
		if sel.PartTypeID == partTypeID {
			return true
		}
	}
	return false
}

// ValidationResult 是校验的正常返回值，IsValid 当且仅当 Errors 为空。
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// NewValidationResult 从错误列表推导 IsValid，保证两者一致。
func NewValidationResult(errs []string) ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ProductConfiguration 是一次加购动作产生的、已定价并校验过的配置。
// 只有 draft（内存中）和 persisted（已写入，不可变）两种状态。
type ProductConfiguration struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"productId"`
	Selections       Selections      `json:"selections"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	IsValid          bool            `json:"isValid"`
	ValidationErrors []string        `json:"validationErrors"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// NewProductConfiguration 组装一个 draft 配置，负数总价会被截断为 0。
func NewProductConfiguration(productID string, selections Selections, result ValidationResult, total decimal.Decimal, now time.Time) *ProductConfiguration {
	if total.IsNegative() {
		total = decimal.Zero
	}
	errs := make([]string, len(result.Errors))
	copy(errs, result.Errors)
	sel := make(Selections, len(selections))
	copy(sel, selections)
	return &ProductConfiguration{
		ID:               uuid.New().String(),
		ProductID:        productID,
		Selections:       sel,
		TotalPrice:       total,
		IsValid:          len(errs) == 0,
		ValidationErrors: errs,
		CreatedAt:        now,
	}
}
