package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"velocraft/internal/service/configurator/domain"
	"velocraft/internal/service/configurator/infrastructure"
	"velocraft/internal/service/configurator/infrastructure/catalog"
	"velocraft/internal/service/configurator/infrastructure/rule"
)

const bikeID = "demo-bicycle-1"

var tracer = noop.NewTracerProvider().Tracer("test")

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.ConfigurationCreated
	err    error
}

func (p *recordingPublisher) PublishConfigurationCreated(_ context.Context, e *domain.ConfigurationCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

// stack 是一套基于内存 SQLite 和 miniredis 的完整服务，已导入内置自行车目录。
type stack struct {
	db        *gorm.DB
	repos     Repositories
	promos    domain.PromoRepository
	carts     domain.CartRepository
	publisher *recordingPublisher
	configs   *ConfigurationService
	cart      *CartService
	promo     *PromoService
	imported  *ImportResult
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infrastructure.Migrate(db))
	return db
}

func newRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Products:       infrastructure.NewGormProductRepository(db),
		Parts:          infrastructure.NewGormPartRepository(db),
		Constraints:    infrastructure.NewGormConstraintRepository(db),
		Pricing:        infrastructure.NewGormPricingRepository(db),
		Configurations: infrastructure.NewGormConfigurationRepository(db),
	}
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := openDB(t)
	repos := newRepositories(db)
	promos := infrastructure.NewGormPromoRepository(db)

	imported, err := NewCatalogImporter(repos, promos, tracer).Import(context.Background(), catalog.EmbeddedSource{}, nil)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	carts := infrastructure.NewRedisCartRepository(client, time.Hour)

	cel, err := rule.NewCELRuleEngine()
	require.NoError(t, err)

	pub := &recordingPublisher{}
	return &stack{
		db:        db,
		repos:     repos,
		promos:    promos,
		carts:     carts,
		publisher: pub,
		configs:   NewConfigurationService(repos, pub, tracer),
		cart:      NewCartService(carts, repos.Configurations, tracer),
		promo:     NewPromoService(promos, cel, tracer),
		imported:  imported,
	}
}

func pick1(pt, opt string) domain.ConfigurationSelection {
	return domain.ConfigurationSelection{PartTypeID: pt, PartOptionID: opt, Quantity: 1}
}

func roadBike() []domain.ConfigurationSelection {
	return []domain.ConfigurationSelection{
		pick1("frame-type", "diamond"),
		pick1("frame-finish", "matte"),
		pick1("wheels", "road-wheels"),
		pick1("rim-color", "black-rim"),
		pick1("chain", "single-speed"),
	}
}

func fullSuspensionBike() []domain.ConfigurationSelection {
	s := roadBike()
	s[0] = pick1("frame-type", "full-suspension")
	return s
}

var errDown = errors.New("connection refused")

func storageDown(op string) error {
	return &domain.StorageError{Op: op, Err: errDown}
}

type failingProducts struct {
	domain.ProductRepository
}

func (failingProducts) Get(context.Context, string) (*domain.Product, error) {
	return nil, storageDown("products.get")
}

type failingConstraints struct {
	domain.ConstraintRepository
}

func (failingConstraints) ListByCategory(context.Context, string) ([]domain.ConfigurationConstraint, error) {
	return nil, storageDown("constraints.list")
}
