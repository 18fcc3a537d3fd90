// internal/service/configurator/engine/constraint.go
package engine

import (
	"fmt"

	"velocraft/internal/service/configurator/domain"
)

// IsOptionAvailable 判断选项在当前选择下是否可选。
// 任意一条上架约束中的 DISABLES 规则命中（trigger 已选、target 为该选项）即不可选。
// 规则之间是无序的 OR 关系。调用方负责先过滤 IsOfferable。
func IsOptionAvailable(option domain.PartOption, selections domain.Selections, constraints []domain.ConfigurationConstraint) bool {
	for _, c := range constraints {
		if !c.IsActive {
			continue
		}
		for _, r := range c.Rules {
			if r.TargetPartOptionID != option.ID {
				continue
			}
			if _, ok := r.Kind.(domain.Disables); ok && selections.Has(r.TriggerPartOptionID) {
				return false
			}
		}
	}
	return true
}

// AvailableOptions 保持输入顺序，返回可展示且未被禁用的选项。
func AvailableOptions(options []domain.PartOption, selections domain.Selections, constraints []domain.ConfigurationConstraint) []domain.PartOption {
	out := make([]domain.PartOption, 0, len(options))
	for _, o := range options {
		if !o.IsOfferable() {
			continue
		}
		if IsOptionAvailable(o, selections, constraints) {
			out = append(out, o)
		}
	}
	return out
}

// ValidateConstraint 对单个约束的所有规则做事后校验。
// ENABLES / DISABLES 只影响可选性，不产生校验错误。
func ValidateConstraint(c domain.ConfigurationConstraint, selections domain.Selections, cat *Catalog) []string {
	var errs []string
	for _, r := range c.Rules {
		triggerSelected := selections.Has(r.TriggerPartOptionID)
		targetSelected := selections.Has(r.TargetPartOptionID)

		switch r.Kind.(type) {
		case domain.Requires:
			if triggerSelected && !targetSelected {
				errs = append(errs, fmt.Sprintf("%s requires %s", cat.optionName(r.TriggerPartOptionID), cat.optionName(r.TargetPartOptionID)))
			}
		case domain.Forbids:
			if triggerSelected && targetSelected {
				errs = append(errs, fmt.Sprintf("%s cannot be combined with %s", cat.optionName(r.TriggerPartOptionID), cat.optionName(r.TargetPartOptionID)))
			}
		case domain.Enables, domain.Disables:
		}
	}
	return errs
}

// Validate 按固定顺序累积错误：必选缺失 -> 约束冲突 -> 逐条选择的可用性。
// 快照中没有商品时由服务层返回 "Product not found"。
func Validate(cat *Catalog, selections domain.Selections) domain.ValidationResult {
	var errs []string

	for _, pt := range cat.PartTypes {
		if pt.IsRequired && !selections.HasPartType(pt.ID) {
			errs = append(errs, fmt.Sprintf("%s is required but not selected", pt.Name))
		}
	}

	for _, c := range cat.Constraints {
		if !c.IsActive {
			continue
		}
		errs = append(errs, ValidateConstraint(c, selections, cat)...)
	}

	for _, s := range selections {
		o, ok := cat.Option(s.PartOptionID)
		if !ok {
			errs = append(errs, "Selected part option not found")
			continue
		}
		if !o.IsActive {
			errs = append(errs, fmt.Sprintf("%s is no longer available", o.Name))
		}
		if !o.InStock {
			errs = append(errs, fmt.Sprintf("%s is temporarily out of stock", o.Name))
		}
	}

	return domain.NewValidationResult(errs)
}
