// internal/service/configurator/domain/pricing.go
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingRuleType 只是信息性标签，真正的计算由 Effects 决定。
type PricingRuleType string

const (
	PricingFlatAddition     PricingRuleType = "FLAT_ADDITION"
	PricingPercentageMarkup PricingRuleType = "PERCENTAGE_MARKUP"
	PricingReplacementPrice PricingRuleType = "REPLACEMENT_PRICE"
	PricingConditionalPrice PricingRuleType = "CONDITIONAL_PRICE"
)

// PricingRule 是带条件的价格调整。Priority 越小越先应用。
type PricingRule struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Description       string             `json:"description,omitempty"`
	ProductCategoryID string             `json:"productCategoryId"`
	RuleType          PricingRuleType    `json:"ruleType"`
	Priority          int                `json:"priority"`
	IsActive          bool               `json:"isActive"`
	Conditions        []PricingCondition `json:"conditions"`
	Effects           []PricingEffect    `json:"effects"`
}

type PricingRuleUpdate struct {
	Name        *string
	Description *string
	Priority    *int
	IsActive    *bool
}

type ConditionType string

const (
	ConditionSelected     ConditionType = "SELECTED"
	ConditionNotSelected  ConditionType = "NOT_SELECTED"
	ConditionSelectedWith ConditionType = "SELECTED_WITH"
)

// PricingCondition 一条规则的所有条件必须同时成立（AND）。
type PricingCondition struct {
	ID            string        `json:"id"`
	PricingRuleID string        `json:"pricingRuleId"`
	PartOptionID  string        `json:"partOptionId"`
	ConditionType ConditionType `json:"conditionType"`
}

// PricingEffect 按定义顺序依次作用在运行中的总价上。
type PricingEffect struct {
	ID            string `json:"id"`
	PricingRuleID string `json:"pricingRuleId"`
	Effect        Effect `json:"-"`
}

// Effect 是封闭的效果集合：Add、Multiply、Replace。
type Effect interface {
	effectType() string
}

// Add 把 Value 加到总价上。
type Add struct {
	Value decimal.Decimal
}

// Multiply 把总价乘以 Value。
type Multiply struct {
	Value decimal.Decimal
}

// Replace 没有 TargetPartOptionID 时替换整个运行总价；
// 有目标时只替换该选项的基础价格贡献。
type Replace struct {
	Value              decimal.Decimal
	TargetPartOptionID string
}

func (Add) effectType() string      { return "ADD" }
func (Multiply) effectType() string { return "MULTIPLY" }
func (Replace) effectType() string  { return "REPLACE" }

// EffectTypeName 返回效果在存储层使用的标签。
func EffectTypeName(e Effect) string {
	if e == nil {
		return ""
	}
	return e.effectType()
}

// EffectValue 返回效果携带的数值。
func EffectValue(e Effect) decimal.Decimal {
	switch v := e.(type) {
	case Add:
		return v.Value
	case Multiply:
		return v.Value
	case Replace:
		return v.Value
	}
	return decimal.Zero
}

// EffectTarget 只有 Replace 可能带目标选项。
func EffectTarget(e Effect) string {
	if r, ok := e.(Replace); ok {
		return r.TargetPartOptionID
	}
	return ""
}

// ParseEffect 在存储边界把 (type, value, target) 组装成效果。
func ParseEffect(effectType string, value decimal.Decimal, target string) (Effect, error) {
	switch effectType {
	case "ADD":
		return Add{Value: value}, nil
	case "MULTIPLY":
		return Multiply{Value: value}, nil
	case "REPLACE":
		return Replace{Value: value, TargetPartOptionID: target}, nil
	}
	return nil, fmt.Errorf("unknown pricing effect type %q", effectType)
}
