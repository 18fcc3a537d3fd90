package application

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velocraft/internal/service/configurator/domain"
)

type bytesSource struct {
	data []byte
	err  error
}

func (s bytesSource) Fetch(context.Context) ([]byte, error) { return s.data, s.err }

type fakeLocker struct {
	lockErr  error
	locked   int
	unlocked int
}

func (l *fakeLocker) Lock(context.Context) error {
	if l.lockErr != nil {
		return l.lockErr
	}
	l.locked++
	return nil
}

func (l *fakeLocker) Unlock() error {
	l.unlocked++
	return nil
}

func TestImport_EmbeddedCatalog(t *testing.T) {
	s := newStack(t)
	res := s.imported

	assert.Equal(t, bikeID, res.ProductID)
	assert.Equal(t, bikeID, res.IDs["bike"])
	assert.Equal(t, 5, res.PartTypes)
	assert.Equal(t, 13, res.Options)
	assert.Equal(t, 3, res.Constraints)
	assert.Equal(t, 1, res.PricingRules)
	assert.Equal(t, 5, res.PromoCodes)

	opt, err := s.repos.Parts.GetOption(context.Background(), "full-suspension")
	require.NoError(t, err)
	assert.True(t, opt.IsActive)
	assert.True(t, opt.InStock)
	require.NotNil(t, opt.StockCount)
	assert.Equal(t, 35, *opt.StockCount)
}

const keyedCatalog = `
product: {key: city, name: City Bike, categoryId: city, basePrice: "500"}
partTypes:
  - key: frame
    name: Frame
    required: true
    options:
      - {key: alu, name: Aluminium, price: "50"}
      - {key: steel, name: Steel, price: "20", inStock: false}
constraints:
  - name: steel needs alu
    type: REQUIRED_COMBINATION
    rules:
      - {trigger: steel, target: alu, kind: REQUIRES}
pricingRules:
  - name: alu promo
    priority: 1
    conditions:
      - {option: alu, type: SELECTED}
    effects:
      - {type: ADD, value: "-10"}
`

func TestImport_AssignsIDsAndResolvesKeys(t *testing.T) {
	db := openDB(t)
	repos := newRepositories(db)
	locker := &fakeLocker{}

	res, err := NewCatalogImporter(repos, nil, tracer).Import(context.Background(), bytesSource{data: []byte(keyedCatalog)}, locker)
	require.NoError(t, err)
	assert.Equal(t, 1, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
	assert.Zero(t, res.PromoCodes)

	aluID := res.IDs["alu"]
	require.NotEmpty(t, aluID)
	assert.NotEqual(t, "alu", aluID)

	steel, err := repos.Parts.GetOption(context.Background(), res.IDs["steel"])
	require.NoError(t, err)
	assert.False(t, steel.InStock)

	constraints, err := repos.Constraints.ListByCategory(context.Background(), "city")
	require.NoError(t, err)
	require.Len(t, constraints, 1)
	assert.Equal(t, res.IDs["steel"], constraints[0].Rules[0].TriggerPartOptionID)
	assert.Equal(t, aluID, constraints[0].Rules[0].TargetPartOptionID)

	svc := NewConfigurationService(repos, &recordingPublisher{}, tracer)
	price, err := svc.CalculatePrice(context.Background(), res.ProductID, []domain.ConfigurationSelection{
		{PartTypeID: res.IDs["frame"], PartOptionID: aluID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "540.00", price.StringFixed(2))
}

func TestImport_InvalidDocumentsWriteNothing(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "product: [unclosed"},
		{"missing product name", `product: {categoryId: bikes}`},
		{"bad price", `product: {name: B, categoryId: bikes, basePrice: "abc"}`},
		{"unknown option reference", `
product: {name: B, categoryId: bikes}
constraints:
  - name: c
    rules:
      - {trigger: ghost, target: other, kind: REQUIRES}
`},
		{"unknown rule kind", `
product: {name: B, categoryId: bikes}
partTypes:
  - key: f
    name: F
    options: [{key: a, name: A}]
constraints:
  - name: c
    rules:
      - {trigger: a, target: a, kind: IMPLIES}
`},
		{"duplicate key", `
product: {name: B, categoryId: bikes}
partTypes:
  - key: f
    name: F
    options: [{key: a, name: A}, {key: a, name: A2}]
`},
		{"unknown discount type", `
product: {name: B, categoryId: bikes}
promoCodes:
  - {code: X, type: bogus, value: "1"}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openDB(t)
			repos := newRepositories(db)
			_, err := NewCatalogImporter(repos, nil, tracer).Import(context.Background(), bytesSource{data: []byte(tt.doc)}, nil)
			require.ErrorIs(t, err, ErrInvalidCatalog)

			products, err := repos.Products.ListByCategory(context.Background(), "bikes")
			require.NoError(t, err)
			assert.Empty(t, products)
		})
	}
}

func TestImport_LockAndSourceErrors(t *testing.T) {
	db := openDB(t)
	repos := newRepositories(db)
	importer := NewCatalogImporter(repos, nil, tracer)

	locker := &fakeLocker{lockErr: errors.New("zk session expired")}
	_, err := importer.Import(context.Background(), bytesSource{data: []byte(keyedCatalog)}, locker)
	require.ErrorContains(t, err, "acquire catalog import lock")
	assert.Zero(t, locker.unlocked)
	products, err := repos.Products.ListByCategory(context.Background(), "city")
	require.NoError(t, err)
	assert.Empty(t, products)

	sourceErr := errors.New("no such file")
	_, err = importer.Import(context.Background(), bytesSource{err: sourceErr}, nil)
	assert.ErrorIs(t, err, sourceErr)
}

type failingConstraintCreate struct {
	domain.ConstraintRepository
}

func (failingConstraintCreate) Create(context.Context, *domain.ConfigurationConstraint) (*domain.ConfigurationConstraint, error) {
	return nil, storageDown("constraints.create")
}

func TestImport_PartialWriteReportsWrittenIDs(t *testing.T) {
	db := openDB(t)
	repos := newRepositories(db)
	repos.Constraints = failingConstraintCreate{repos.Constraints}

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	res, err := NewCatalogImporter(repos, nil, tracer).Import(ctx, bytesSource{data: []byte(keyedCatalog)}, nil)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	require.ErrorContains(t, err, "import constraint steel needs alu")
	require.NotNil(t, res)

	assert.Equal(t, []string{res.ProductID}, res.Written["products"])
	assert.Equal(t, []string{res.IDs["frame"]}, res.Written["part_types"])
	assert.Equal(t, []string{res.IDs["alu"], res.IDs["steel"]}, res.Written["options"])
	assert.Empty(t, res.Written["constraints"])
	assert.Empty(t, res.Written["pricing_rules"])
	assert.Equal(t, 1, res.PartTypes)
	assert.Equal(t, 2, res.Options)

	// 已写入的实体保留在库中
	products, err := repos.Products.ListByCategory(context.Background(), "city")
	require.NoError(t, err)
	require.Len(t, products, 1)

	logged := buf.String()
	assert.Contains(t, logged, "catalog import failed after partial write")
	assert.Contains(t, logged, res.ProductID)
	assert.Contains(t, logged, res.IDs["steel"])
}
