package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velocraft/internal/service/configurator/domain"
)

func newCartRepo(t *testing.T, ttl time.Duration) (*RedisCartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCartRepository(client, ttl), mr
}

func TestRedisCartRepository(t *testing.T) {
	ctx := context.Background()
	repo, mr := newCartRepo(t, time.Hour)

	_, err := repo.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cart := domain.NewCart("sess-1", now)
	cart.AddConfiguration(&domain.ProductConfiguration{ID: "cfg-1", TotalPrice: dec("1073.00")}, 2, now)
	require.NoError(t, repo.Save(ctx, cart))

	assert.True(t, mr.Exists("cart:{sess-1}"))
	assert.Equal(t, time.Hour, mr.TTL("cart:{sess-1}"))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, "2146.00", got.TotalAmount.StringFixed(2))
	assert.True(t, got.CreatedAt.Equal(now))

	mr.FastForward(2 * time.Hour)
	_, err = repo.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)

	require.NoError(t, repo.Save(ctx, cart))
	require.NoError(t, repo.Delete(ctx, "sess-1"))
	_, err = repo.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestRedisCartRepository_Unavailable(t *testing.T) {
	repo, mr := newCartRepo(t, time.Hour)
	mr.Close()

	_, err := repo.Get(context.Background(), "sess-1")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestRedisCartRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo, mr := newCartRepo(t, time.Hour)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cfg := &domain.ProductConfiguration{ID: "cfg-1", TotalPrice: dec("1073.00")}

	var seen *domain.Cart
	cart, err := repo.Update(ctx, "sess-1", func(c *domain.Cart) (*domain.Cart, error) {
		seen = c
		c = domain.NewCart("sess-1", now)
		c.AddConfiguration(cfg, 1, now)
		return c, nil
	})
	require.NoError(t, err)
	assert.Nil(t, seen, "missing cart is passed as nil")
	assert.Equal(t, "1073.00", cart.TotalAmount.StringFixed(2))
	assert.Equal(t, time.Hour, mr.TTL("cart:{sess-1}"))

	// fn 返回错误时不写入
	boom := errors.New("boom")
	_, err = repo.Update(ctx, "sess-1", func(c *domain.Cart) (*domain.Cart, error) {
		c.Clear(now)
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestRedisCartRepository_UpdateConcurrent(t *testing.T) {
	ctx := context.Background()
	repo, _ := newCartRepo(t, time.Hour)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cfg := &domain.ProductConfiguration{ID: "cfg-1", TotalPrice: dec("10.00")}

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, "sess-race", func(c *domain.Cart) (*domain.Cart, error) {
				if c == nil {
					c = domain.NewCart("sess-race", now)
				}
				c.AddConfiguration(cfg, 1, now)
				return c, nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.Get(ctx, "sess-race")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, workers, got.Items[0].Quantity)
	assert.Equal(t, "500.00", got.TotalAmount.StringFixed(2))
}

func TestRedisCartRepository_UpdateUnavailable(t *testing.T) {
	repo, mr := newCartRepo(t, time.Hour)
	mr.Close()

	_, err := repo.Update(context.Background(), "sess-1", func(c *domain.Cart) (*domain.Cart, error) { return c, nil })
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
