package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"velocraft/internal/pkg/logger"
	"velocraft/internal/service/configurator/domain"
	"velocraft/internal/service/configurator/domain/port"
)

var ErrInvalidCatalog = errors.New("invalid catalog document")

// CatalogDocument 是目录导入文件的结构。选项、约束和定价规则之间通过 key 互相引用，
// 没有 key 时使用 id。
type CatalogDocument struct {
	Product      ProductDocument       `yaml:"product"`
	PartTypes    []PartTypeDocument    `yaml:"partTypes"`
	Constraints  []ConstraintDocument  `yaml:"constraints"`
	PricingRules []PricingRuleDocument `yaml:"pricingRules"`
	PromoCodes   []PromoCodeDocument   `yaml:"promoCodes"`
}

type ProductDocument struct {
	Key         string `yaml:"key"`
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	CategoryID  string `yaml:"categoryId"`
	BasePrice   string `yaml:"basePrice"`
	Active      *bool  `yaml:"active"`
}

type PartTypeDocument struct {
	Key          string           `yaml:"key"`
	ID           string           `yaml:"id"`
	Name         string           `yaml:"name"`
	Description  string           `yaml:"description"`
	Required     bool             `yaml:"required"`
	DisplayOrder int              `yaml:"displayOrder"`
	Options      []OptionDocument `yaml:"options"`
}

type OptionDocument struct {
	Key         string `yaml:"key"`
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Active      *bool  `yaml:"active"`
	InStock     *bool  `yaml:"inStock"`
	StockCount  *int   `yaml:"stockCount"`
}

type ConstraintDocument struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Type        string         `yaml:"type"`
	Active      *bool          `yaml:"active"`
	Rules       []RuleDocument `yaml:"rules"`
}

type RuleDocument struct {
	Trigger string `yaml:"trigger"`
	Target  string `yaml:"target"`
	Kind    string `yaml:"kind"`
}

type PricingRuleDocument struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Type        string              `yaml:"type"`
	Priority    int                 `yaml:"priority"`
	Active      *bool               `yaml:"active"`
	Conditions  []ConditionDocument `yaml:"conditions"`
	Effects     []EffectDocument    `yaml:"effects"`
}

type ConditionDocument struct {
	Option string `yaml:"option"`
	Type   string `yaml:"type"`
}

type EffectDocument struct {
	Type   string `yaml:"type"`
	Value  string `yaml:"value"`
	Target string `yaml:"target"`
}

type PromoCodeDocument struct {
	Code          string     `yaml:"code"`
	Type          string     `yaml:"type"`
	Value         string     `yaml:"value"`
	MinOrderValue string     `yaml:"minOrderValue"`
	ExpiresAt     *time.Time `yaml:"expiresAt"`
	MaxUses       *int       `yaml:"maxUses"`
	Active        *bool      `yaml:"active"`
	Eligibility   string     `yaml:"eligibility"`
	Description   string     `yaml:"description"`
}

// ParseCatalog 解析 YAML 目录文档。
func ParseCatalog(data []byte) (*CatalogDocument, error) {
	var doc CatalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return &doc, nil
}

// catalogPlan 是文档转换后的领域对象，全部 id 在写入前已经确定。
type catalogPlan struct {
	product     domain.Product
	partTypes   []domain.PartType
	options     []domain.PartOption
	constraints []domain.ConfigurationConstraint
	rules       []domain.PricingRule
	promos      []domain.PromoCode
	ids         map[string]string
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCatalog, fmt.Sprintf(format, args...))
}

func parseMoney(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalidf("%s: %q is not a decimal", field, s)
	}
	return d, nil
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// plan 校验文档并把 key 引用解析为 id，文档不合法时不会写入任何数据。
func (d *CatalogDocument) plan() (*catalogPlan, error) {
	p := &catalogPlan{ids: map[string]string{}}
	assign := func(key, id string) (string, error) {
		if id == "" {
			id = uuid.New().String()
		}
		if key == "" {
			key = id
		}
		if _, dup := p.ids[key]; dup {
			return "", invalidf("duplicate key %q", key)
		}
		p.ids[key] = id
		if key != id {
			p.ids[id] = id
		}
		return id, nil
	}
	resolve := func(where, ref string) (string, error) {
		id, ok := p.ids[ref]
		if !ok {
			return "", invalidf("%s references unknown option %q", where, ref)
		}
		return id, nil
	}

	if d.Product.Name == "" || d.Product.CategoryID == "" {
		return nil, invalidf("product name and categoryId are required")
	}
	base, err := parseMoney("product.basePrice", d.Product.BasePrice)
	if err != nil {
		return nil, err
	}
	productID, err := assign(d.Product.Key, d.Product.ID)
	if err != nil {
		return nil, err
	}
	p.product = domain.Product{
		ID:          productID,
		Name:        d.Product.Name,
		Description: d.Product.Description,
		CategoryID:  d.Product.CategoryID,
		BasePrice:   base,
		IsActive:    boolOr(d.Product.Active, true),
	}
	category := d.Product.CategoryID

	for _, ptd := range d.PartTypes {
		ptID, err := assign(ptd.Key, ptd.ID)
		if err != nil {
			return nil, err
		}
		p.partTypes = append(p.partTypes, domain.PartType{
			ID:                ptID,
			Name:              ptd.Name,
			Description:       ptd.Description,
			ProductCategoryID: category,
			IsRequired:        ptd.Required,
			DisplayOrder:      ptd.DisplayOrder,
		})
		for _, od := range ptd.Options {
			price, err := parseMoney("option "+pick(od.Key, od.ID, od.Name)+" price", od.Price)
			if err != nil {
				return nil, err
			}
			optID, err := assign(od.Key, od.ID)
			if err != nil {
				return nil, err
			}
			p.options = append(p.options, domain.PartOption{
				ID:          optID,
				Name:        od.Name,
				Description: od.Description,
				PartTypeID:  ptID,
				BasePrice:   price,
				IsActive:    boolOr(od.Active, true),
				InStock:     boolOr(od.InStock, true),
				StockCount:  od.StockCount,
			})
		}
	}

	for _, cd := range d.Constraints {
		c := domain.ConfigurationConstraint{
			ID:                uuid.New().String(),
			Name:              cd.Name,
			Description:       cd.Description,
			ProductCategoryID: category,
			ConstraintType:    domain.ConstraintType(cd.Type),
			IsActive:          boolOr(cd.Active, true),
		}
		for _, rd := range cd.Rules {
			kind, err := domain.ParseRuleKind(rd.Kind)
			if err != nil {
				return nil, invalidf("constraint %q: %v", cd.Name, err)
			}
			trigger, err := resolve("constraint "+cd.Name, rd.Trigger)
			if err != nil {
				return nil, err
			}
			target, err := resolve("constraint "+cd.Name, rd.Target)
			if err != nil {
				return nil, err
			}
			c.Rules = append(c.Rules, domain.ConstraintRule{
				ConstraintID:        c.ID,
				TriggerPartOptionID: trigger,
				TargetPartOptionID:  target,
				Kind:                kind,
			})
		}
		p.constraints = append(p.constraints, c)
	}

	for _, rd := range d.PricingRules {
		r := domain.PricingRule{
			ID:                uuid.New().String(),
			Name:              rd.Name,
			Description:       rd.Description,
			ProductCategoryID: category,
			RuleType:          domain.PricingRuleType(rd.Type),
			Priority:          rd.Priority,
			IsActive:          boolOr(rd.Active, true),
		}
		for _, cd := range rd.Conditions {
			ct := domain.ConditionType(cd.Type)
			switch ct {
			case domain.ConditionSelected, domain.ConditionNotSelected, domain.ConditionSelectedWith:
			default:
				return nil, invalidf("pricing rule %q: unknown condition type %q", rd.Name, cd.Type)
			}
			opt, err := resolve("pricing rule "+rd.Name, cd.Option)
			if err != nil {
				return nil, err
			}
			r.Conditions = append(r.Conditions, domain.PricingCondition{PricingRuleID: r.ID, PartOptionID: opt, ConditionType: ct})
		}
		for _, ed := range rd.Effects {
			value, err := parseMoney("pricing rule "+rd.Name+" effect value", ed.Value)
			if err != nil {
				return nil, err
			}
			target := ""
			if ed.Target != "" {
				if target, err = resolve("pricing rule "+rd.Name, ed.Target); err != nil {
					return nil, err
				}
			}
			effect, err := domain.ParseEffect(ed.Type, value, target)
			if err != nil {
				return nil, invalidf("pricing rule %q: %v", rd.Name, err)
			}
			r.Effects = append(r.Effects, domain.PricingEffect{PricingRuleID: r.ID, Effect: effect})
		}
		p.rules = append(p.rules, r)
	}

	for _, pd := range d.PromoCodes {
		if pd.Code == "" {
			return nil, invalidf("promo code without code")
		}
		dt := domain.DiscountType(pd.Type)
		if dt != domain.DiscountPercentage && dt != domain.DiscountFixed {
			return nil, invalidf("promo %s: unknown discount type %q", pd.Code, pd.Type)
		}
		value, err := parseMoney("promo "+pd.Code+" value", pd.Value)
		if err != nil {
			return nil, err
		}
		promo := domain.PromoCode{
			Code:        pd.Code,
			Type:        dt,
			Value:       value,
			ExpiresAt:   pd.ExpiresAt,
			MaxUses:     pd.MaxUses,
			IsActive:    boolOr(pd.Active, true),
			Eligibility: pd.Eligibility,
			Description: pd.Description,
		}
		if pd.MinOrderValue != "" {
			minOrder, err := parseMoney("promo "+pd.Code+" minOrderValue", pd.MinOrderValue)
			if err != nil {
				return nil, err
			}
			promo.MinOrderValue = &minOrder
		}
		p.promos = append(p.promos, promo)
	}
	return p, nil
}

// 已写入实体的分类，用作 ImportResult.Written 的 key
const (
	writtenProducts     = "products"
	writtenPartTypes    = "part_types"
	writtenOptions      = "options"
	writtenConstraints  = "constraints"
	writtenPricingRules = "pricing_rules"
	writtenPromoCodes   = "promo_codes"
)

// ImportResult 汇总一次导入写入的数据，IDs 是文档 key 到存储 id 的映射。
// Written 按分类记录已经持久化的 id（促销码记录 code），写入中途失败时同样有效。
type ImportResult struct {
	ProductID    string
	IDs          map[string]string
	Written      map[string][]string
	PartTypes    int
	Options      int
	Constraints  int
	PricingRules int
	PromoCodes   int
}

func (r *ImportResult) record(kind, id string) {
	r.Written[kind] = append(r.Written[kind], id)
}

// CatalogImporter 通过各仓储的 Create 操作写入一份目录文档。
type CatalogImporter struct {
	repos  Repositories
	promos domain.PromoRepository
	tracer trace.Tracer
}

func NewCatalogImporter(repos Repositories, promos domain.PromoRepository, tracer trace.Tracer) *CatalogImporter {
	return &CatalogImporter{repos: repos, promos: promos, tracer: tracer}
}

// Import 读取并导入目录。locker 不为 nil 时在整个导入期间持有锁，避免多个实例并发导入。
// 导入不是单一事务：写入中途失败时已写入的实体会保留，此时同时返回描述这些实体的
// ImportResult 和错误，并把已写入的 id 打到日志里以便人工清理。
func (i *CatalogImporter) Import(ctx context.Context, source port.CatalogSource, locker port.Locker) (*ImportResult, error) {
	ctx, span := i.tracer.Start(ctx, "service.ImportCatalog")
	defer span.End()

	data, err := source.Fetch(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	doc, err := ParseCatalog(data)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	p, err := doc.plan()
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("product.id", p.product.ID))

	if locker != nil {
		if err := locker.Lock(ctx); err != nil {
			recordError(span, err)
			return nil, fmt.Errorf("acquire catalog import lock: %w", err)
		}
		defer func() {
			if err := locker.Unlock(); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("failed to release catalog import lock")
			}
		}()
	}

	res, err := i.write(ctx, p)
	if err != nil {
		recordError(span, err)
		if res.ProductID != "" {
			ev := logger.Ctx(ctx).Error().Err(err).Str("product_id", res.ProductID)
			for _, kind := range []string{writtenProducts, writtenPartTypes, writtenOptions, writtenConstraints, writtenPricingRules, writtenPromoCodes} {
				ev = ev.Strs(kind, res.Written[kind])
			}
			ev.Msg("catalog import failed after partial write")
		}
		return res, err
	}
	logger.Ctx(ctx).Info().
		Str("product_id", res.ProductID).
		Int("part_types", res.PartTypes).
		Int("options", res.Options).
		Int("constraints", res.Constraints).
		Int("pricing_rules", res.PricingRules).
		Int("promo_codes", res.PromoCodes).
		Msg("catalog imported")
	return res, nil
}

// write 总是返回非 nil 的结果，出错时其中只包含已经写入的实体。
func (i *CatalogImporter) write(ctx context.Context, p *catalogPlan) (*ImportResult, error) {
	res := &ImportResult{IDs: p.ids, Written: map[string][]string{}}

	product, err := i.repos.Products.Create(ctx, &p.product)
	if err != nil {
		return res, fmt.Errorf("import product %s: %w", p.product.Name, err)
	}
	res.ProductID = product.ID
	res.record(writtenProducts, product.ID)

	for k := range p.partTypes {
		pt, err := i.repos.Parts.CreatePartType(ctx, &p.partTypes[k])
		if err != nil {
			return res, fmt.Errorf("import part type %s: %w", p.partTypes[k].Name, err)
		}
		res.PartTypes++
		res.record(writtenPartTypes, pt.ID)
	}
	for k := range p.options {
		o, err := i.repos.Parts.CreateOption(ctx, &p.options[k])
		if err != nil {
			return res, fmt.Errorf("import option %s: %w", p.options[k].Name, err)
		}
		res.Options++
		res.record(writtenOptions, o.ID)
	}
	for k := range p.constraints {
		c, err := i.repos.Constraints.Create(ctx, &p.constraints[k])
		if err != nil {
			return res, fmt.Errorf("import constraint %s: %w", p.constraints[k].Name, err)
		}
		res.Constraints++
		res.record(writtenConstraints, c.ID)
	}
	for k := range p.rules {
		r, err := i.repos.Pricing.Create(ctx, &p.rules[k])
		if err != nil {
			return res, fmt.Errorf("import pricing rule %s: %w", p.rules[k].Name, err)
		}
		res.PricingRules++
		res.record(writtenPricingRules, r.ID)
	}
	if i.promos != nil {
		for k := range p.promos {
			pc, err := i.promos.Create(ctx, &p.promos[k])
			if err != nil {
				return res, fmt.Errorf("import promo code %s: %w", p.promos[k].Code, err)
			}
			res.PromoCodes++
			res.record(writtenPromoCodes, pc.Code)
		}
	}
	return res, nil
}
