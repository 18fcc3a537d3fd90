// internal/service/configurator/domain/promo.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType 决定优惠的计算方式。
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// PromoCode 是一个结账时可输入的优惠码。
type PromoCode struct {
	ID            string           `json:"id"`
	Code          string           `json:"code"`
	Type          DiscountType     `json:"type"`
	Value         decimal.Decimal  `json:"value"`
	MinOrderValue *decimal.Decimal `json:"minOrderValue,omitempty"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty"`
	MaxUses       *int             `json:"maxUses,omitempty"`
	CurrentUses   int              `json:"currentUses"`
	IsActive      bool             `json:"isActive"`
	Description   string           `json:"description"`

	// Eligibility 是可选的 CEL 表达式，可引用 total 和 item_count。
	Eligibility string `json:"eligibility,omitempty"`
}

// PromoFact 是交给规则引擎评估的事实。
type PromoFact struct {
	Total     decimal.Decimal
	ItemCount int
}

// PromoValidation 是优惠码校验结果。
type PromoValidation struct {
	IsValid        bool            `json:"isValid"`
	PromoCode      *PromoCode      `json:"promoCode,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Error          string          `json:"error,omitempty"`
}
