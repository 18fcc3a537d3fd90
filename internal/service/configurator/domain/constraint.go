// internal/service/configurator/domain/constraint.go
package domain

import "fmt"

// ConstraintType 是约束分组的信息性标签，实际行为由其中的规则决定。
type ConstraintType string

const (
	ConstraintRequiredCombination     ConstraintType = "REQUIRED_COMBINATION"
	ConstraintForbiddenCombination    ConstraintType = "FORBIDDEN_COMBINATION"
	ConstraintConditionalAvailability ConstraintType = "CONDITIONAL_AVAILABILITY"
)

// ConfigurationConstraint 是一组 ConstraintRule 的容器。
type ConfigurationConstraint struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	ProductCategoryID string           `json:"productCategoryId"`
	ConstraintType    ConstraintType   `json:"constraintType"`
	IsActive          bool             `json:"isActive"`
	Rules             []ConstraintRule `json:"rules"`
}

type ConstraintUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// ConstraintRule 关联两个 PartOption：trigger -> target。
type ConstraintRule struct {
	ID                  string   `json:"id"`
	ConstraintID        string   `json:"constraintId"`
	TriggerPartOptionID string   `json:"triggerPartOptionId"`
	TargetPartOptionID  string   `json:"targetPartOptionId"`
	Kind                RuleKind `json:"-"`
}

// RuleKind 是封闭的规则种类集合，只能是 Requires、Forbids、Enables、Disables 之一。
type RuleKind interface {
	ruleKind() string
}

type Requires struct{}
type Forbids struct{}
type Enables struct{}
type Disables struct{}

func (Requires) ruleKind() string { return "REQUIRES" }
func (Forbids) ruleKind() string  { return "FORBIDS" }
func (Enables) ruleKind() string  { return "ENABLES" }
func (Disables) ruleKind() string { return "DISABLES" }

// RuleKindName 返回规则种类在存储层使用的标签。
func RuleKindName(k RuleKind) string {
	if k == nil {
		return ""
	}
	return k.ruleKind()
}

// ParseRuleKind 在存储边界把字符串标签转换为规则种类。
func ParseRuleKind(s string) (RuleKind, error) {
	switch s {
	case "REQUIRES":
		return Requires{}, nil
	case "FORBIDS":
		return Forbids{}, nil
	case "ENABLES":
		return Enables{}, nil
	case "DISABLES":
		return Disables{}, nil
	}
	return nil, fmt.Errorf("unknown constraint rule type %q", s)
}
