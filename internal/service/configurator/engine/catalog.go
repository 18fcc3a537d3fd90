// internal/service/configurator/engine/catalog.go
package engine

import "velocraft/internal/service/configurator/domain"

// Catalog 是某个商品类目在一次请求中读取到的数据快照。
// 引擎只读取快照，不做任何 I/O，因此可以被并发请求安全调用。
type Catalog struct {
	Product      *domain.Product
	PartTypes    []domain.PartType
	Options      map[string]domain.PartOption
	Constraints  []domain.ConfigurationConstraint
	PricingRules []domain.PricingRule
}

// Option 按 id 查找选项。
func (c *Catalog) Option(id string) (domain.PartOption, bool) {
	if c == nil || c.Options == nil {
		return domain.PartOption{}, false
	}
	o, ok := c.Options[id]
	return o, ok
}

// optionName 用于错误消息；未知选项退化为 id。
func (c *Catalog) optionName(id string) string {
	if o, ok := c.Option(id); ok {
		return o.Name
	}
	return id
}

// ReferencedOptionIDs 收集选择、约束规则和定价效果引用到的全部选项 id（去重、保序）。
func ReferencedOptionIDs(selections domain.Selections, constraints []domain.ConfigurationConstraint, rules []domain.PricingRule) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, s := range selections {
		add(s.PartOptionID)
	}
	for _, c := range constraints {
		for _, r := range c.Rules {
			add(r.TriggerPartOptionID)
			add(r.TargetPartOptionID)
		}
	}
	for _, r := range rules {
		for _, e := range r.Effects {
			add(domain.EffectTarget(e.Effect))
		}
	}
	return ids
}
