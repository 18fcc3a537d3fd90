package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel 对应数据库中的 products 表
type ProductModel struct {
	ID          string          `gorm:"primaryKey;size:64"`
	Name        string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text"`
	CategoryID  string          `gorm:"size:64;index"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ProductModel) TableName() string { return "products" }

// PartTypeModel 对应 part_types 表
type PartTypeModel struct {
	ID                string `gorm:"primaryKey;size:64"`
	Name              string `gorm:"size:255;not null"`
	Description       string `gorm:"type:text"`
	ProductCategoryID string `gorm:"size:64;index"`
	IsRequired        bool
	DisplayOrder      int
}

func (PartTypeModel) TableName() string { return "part_types" }

// PartOptionModel 对应 part_options 表
type PartOptionModel struct {
	ID          string          `gorm:"primaryKey;size:64"`
	Name        string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text"`
	PartTypeID  string          `gorm:"size:64;index"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsActive    bool
	InStock     bool
	StockCount  *int
}

func (PartOptionModel) TableName() string { return "part_options" }

// ConstraintModel 对应 configuration_constraints 表
type ConstraintModel struct {
	ID                string `gorm:"primaryKey;size:64"`
	Name              string `gorm:"size:255"`
	Description       string `gorm:"type:text"`
	ProductCategoryID string `gorm:"size:64;index"`
	ConstraintType    string `gorm:"size:32"`
	IsActive          bool
	// 关联关系
	Rules []ConstraintRuleModel `gorm:"foreignKey:ConstraintID"`
}

func (ConstraintModel) TableName() string { return "configuration_constraints" }

// ConstraintRuleModel 对应 constraint_rules 表，Position 保持定义顺序
type ConstraintRuleModel struct {
	ID                  string `gorm:"primaryKey;size:64"`
	ConstraintID        string `gorm:"size:64;index"`
	RuleType            string `gorm:"size:16"`
	TriggerPartOptionID string `gorm:"size:64"`
	TargetPartOptionID  string `gorm:"size:64"`
	Position            int
}

func (ConstraintRuleModel) TableName() string { return "constraint_rules" }

// PricingRuleModel 对应 pricing_rules 表
type PricingRuleModel struct {
	ID                string `gorm:"primaryKey;size:64"`
	Name              string `gorm:"size:255"`
	Description       string `gorm:"type:text"`
	ProductCategoryID string `gorm:"size:64;index"`
	RuleType          string `gorm:"size:32"`
	Priority          int
	IsActive          bool
	// 关联关系
	Conditions []PricingConditionModel `gorm:"foreignKey:PricingRuleID"`
	Effects    []PricingEffectModel    `gorm:"foreignKey:PricingRuleID"`
}

func (PricingRuleModel) TableName() string { return "pricing_rules" }

type PricingConditionModel struct {
	ID            string `gorm:"primaryKey;size:64"`
	PricingRuleID string `gorm:"size:64;index"`
	PartOptionID  string `gorm:"size:64"`
	ConditionType string `gorm:"size:16"`
	Position      int
}

func (PricingConditionModel) TableName() string { return "pricing_conditions" }

type PricingEffectModel struct {
	ID                 string          `gorm:"primaryKey;size:64"`
	PricingRuleID      string          `gorm:"size:64;index"`
	EffectType         string          `gorm:"size:16"`
	Value              decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	TargetPartOptionID string          `gorm:"size:64"`
	Position           int
}

func (PricingEffectModel) TableName() string { return "pricing_effects" }

// ProductConfigurationModel 对应 product_configurations 表，校验错误以 JSON 数组存储
type ProductConfigurationModel struct {
	ID               string          `gorm:"primaryKey;size:64"`
	ProductID        string          `gorm:"size:64;index"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsValid          bool
	ValidationErrors []string `gorm:"type:text;serializer:json"`
	CreatedAt        time.Time
	// 关联关系
	Selections []ConfigurationSelectionModel `gorm:"foreignKey:ConfigurationID"`
}

func (ProductConfigurationModel) TableName() string { return "product_configurations" }

type ConfigurationSelectionModel struct {
	ID              string `gorm:"primaryKey;size:64"`
	ConfigurationID string `gorm:"size:64;index"`
	PartTypeID      string `gorm:"size:64"`
	PartOptionID    string `gorm:"size:64"`
	Quantity        int
	Position        int
}

func (ConfigurationSelectionModel) TableName() string { return "configuration_selections" }

// PromoCodeModel 对应 promo_codes 表
type PromoCodeModel struct {
	ID            string           `gorm:"primaryKey;size:64"`
	Code          string           `gorm:"size:64;uniqueIndex"`
	Type          string           `gorm:"size:16"`
	Value         decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MinOrderValue *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExpiresAt     *time.Time
	MaxUses       *int
	CurrentUses   int
	IsActive      bool
	Description   string `gorm:"type:text"`
	Eligibility   string `gorm:"type:text"`
}

func (PromoCodeModel) TableName() string { return "promo_codes" }
