package engine

import (
	"github.com/shopspring/decimal"

	"velocraft/internal/service/configurator/domain"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func option(id, name, partType, price string) domain.PartOption {
	return domain.PartOption{ID: id, Name: name, PartTypeID: partType, BasePrice: d(price), IsActive: true, InStock: true}
}

func sel(partType, opt string) domain.ConfigurationSelection {
	return domain.ConfigurationSelection{PartTypeID: partType, PartOptionID: opt, Quantity: 1}
}

// bicycleCatalog 对应演示数据中的自行车。
func bicycleCatalog() *Catalog {
	opts := []domain.PartOption{
		option("full-suspension", "Full-Suspension", "frame-type", "130"),
		option("diamond", "Diamond", "frame-type", "100"),
		option("step-through", "Step-Through", "frame-type", "110"),
		option("matte", "Matte", "frame-finish", "35"),
		option("shiny", "Shiny", "frame-finish", "30"),
		option("road-wheels", "Road Wheels", "wheels", "80"),
		option("mountain-wheels", "Mountain Wheels", "wheels", "120"),
		option("fat-bike-wheels", "Fat Bike Wheels", "wheels", "200"),
		option("red-rim", "Red", "rim-color", "20"),
		option("black-rim", "Black", "rim-color", "15"),
		option("blue-rim", "Blue", "rim-color", "20"),
		option("single-speed", "Single-Speed Chain", "chain", "43"),
		option("8-speed", "8-Speed Chain", "chain", "65"),
	}
	byID := make(map[string]domain.PartOption, len(opts))
	for _, o := range opts {
		byID[o.ID] = o
	}
	return &Catalog{
		Product: &domain.Product{ID: "demo-bicycle-1", Name: "Custom Mountain Bike", CategoryID: "bicycles", BasePrice: d("800"), IsActive: true},
		PartTypes: []domain.PartType{
			{ID: "frame-type", Name: "Frame Type", IsRequired: true, DisplayOrder: 1},
			{ID: "frame-finish", Name: "Frame Finish", IsRequired: true, DisplayOrder: 2},
			{ID: "wheels", Name: "Wheels", IsRequired: true, DisplayOrder: 3},
			{ID: "rim-color", Name: "Rim Color", IsRequired: true, DisplayOrder: 4},
			{ID: "chain", Name: "Chain", IsRequired: true, DisplayOrder: 5},
		},
		Options: byID,
		Constraints: []domain.ConfigurationConstraint{
			{
				ID: "c-mountain", Name: "Mountain wheels need full suspension", IsActive: true,
				ConstraintType: domain.ConstraintRequiredCombination,
				Rules: []domain.ConstraintRule{
					{ID: "r1", TriggerPartOptionID: "mountain-wheels", TargetPartOptionID: "full-suspension", Kind: domain.Requires{}},
				},
			},
			{
				ID: "c-fat", Name: "No red rims on fat bikes", IsActive: true,
				ConstraintType: domain.ConstraintForbiddenCombination,
				Rules: []domain.ConstraintRule{
					{ID: "r2", TriggerPartOptionID: "fat-bike-wheels", TargetPartOptionID: "red-rim", Kind: domain.Forbids{}},
					{ID: "r3", TriggerPartOptionID: "fat-bike-wheels", TargetPartOptionID: "red-rim", Kind: domain.Disables{}},
				},
			},
		},
		PricingRules: []domain.PricingRule{
			{
				ID: "p-matte-fs", Name: "Matte finish on full suspension", IsActive: true, Priority: 10,
				RuleType: domain.PricingReplacementPrice,
				Conditions: []domain.PricingCondition{
					{ID: "pc1", PartOptionID: "matte", ConditionType: domain.ConditionSelected},
					{ID: "pc2", PartOptionID: "full-suspension", ConditionType: domain.ConditionSelected},
				},
				Effects: []domain.PricingEffect{
					{ID: "pe1", Effect: domain.Replace{Value: d("50"), TargetPartOptionID: "matte"}},
				},
			},
		},
	}
}

func roadBike() domain.Selections {
	return domain.NewSelections(
		sel("frame-type", "diamond"),
		sel("frame-finish", "matte"),
		sel("wheels", "road-wheels"),
		sel("rim-color", "black-rim"),
		sel("chain", "single-speed"),
	)
}
