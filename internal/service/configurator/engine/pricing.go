// internal/service/configurator/engine/pricing.go
package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"velocraft/internal/service/configurator/domain"
)

// PriceBreakdown 记录一次定价的中间结果，便于展示和排查。
type PriceBreakdown struct {
	BasePrice    decimal.Decimal
	OptionsTotal decimal.Decimal
	AppliedRules []string
	Total        decimal.Decimal
}

// SortPricingRules 丢弃下架规则，按 (Priority 升序, ID 升序) 排序，返回副本。
// Priority 是唯一的顺序契约：ADD 与 MULTIPLY 不可交换。
func SortPricingRules(rules []domain.PricingRule) []domain.PricingRule {
	out := make([]domain.PricingRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ConditionsHold 所有条件同时成立才返回 true。
// 只有 SELECTED 和 NOT_SELECTED 会拦住规则，SELECTED_WITH 及未知类型视为成立。
func ConditionsHold(rule domain.PricingRule, selections domain.Selections) bool {
	for _, c := range rule.Conditions {
		has := selections.Has(c.PartOptionID)
		switch c.ConditionType {
		case domain.ConditionSelected:
			if !has {
				return false
			}
		case domain.ConditionNotSelected:
			if has {
				return false
			}
		}
	}
	return true
}

// CalculatePrice 返回 max(0, total)，保留两位小数。
func CalculatePrice(cat *Catalog, selections domain.Selections) decimal.Decimal {
	return Breakdown(cat, selections).Total
}

// Breakdown 执行完整的定价流程。
// 规则依次作用在不断变化的运行总价上，中间值允许为负，仅最终结果截断。
func Breakdown(cat *Catalog, selections domain.Selections) PriceBreakdown {
	b := PriceBreakdown{AppliedRules: []string{}}
	if cat == nil || cat.Product == nil {
		b.Total = decimal.Zero
		return b
	}

	b.BasePrice = cat.Product.BasePrice
	b.OptionsTotal = decimal.Zero
	for _, s := range selections {
		// 找不到的选项贡献 0，校验阶段已经报告过。
		if o, ok := cat.Option(s.PartOptionID); ok {
			b.OptionsTotal = b.OptionsTotal.Add(o.BasePrice.Mul(decimal.NewFromInt(int64(s.Quantity))))
		}
	}
	total := b.BasePrice.Add(b.OptionsTotal)

	for _, rule := range SortPricingRules(cat.PricingRules) {
		if len(selections) == 0 || !ConditionsHold(rule, selections) {
			continue
		}
		total = applyEffects(cat, rule, selections, total)
		b.AppliedRules = append(b.AppliedRules, rule.ID)
	}

	if total.IsNegative() {
		total = decimal.Zero
	}
	b.Total = total.Round(2)
	return b
}

func applyEffects(cat *Catalog, rule domain.PricingRule, selections domain.Selections, total decimal.Decimal) decimal.Decimal {
	for _, pe := range rule.Effects {
		switch e := pe.Effect.(type) {
		case domain.Add:
			total = total.Add(e.Value)
		case domain.Multiply:
			total = total.Mul(e.Value)
		case domain.Replace:
			if e.TargetPartOptionID == "" {
				total = e.Value
				continue
			}
			if !selections.Has(e.TargetPartOptionID) {
				continue
			}
			if original, ok := cat.Option(e.TargetPartOptionID); ok {
				total = total.Sub(original.BasePrice).Add(e.Value)
			}
		}
	}
	return total
}
