package infrastructure

import "gorm.io/gorm"

// Migrate 创建或升级所有表结构。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ProductModel{},
		&PartTypeModel{},
		&PartOptionModel{},
		&ConstraintModel{},
		&ConstraintRuleModel{},
		&PricingRuleModel{},
		&PricingConditionModel{},
		&PricingEffectModel{},
		&ProductConfigurationModel{},
		&ConfigurationSelectionModel{},
		&PromoCodeModel{},
	)
}
