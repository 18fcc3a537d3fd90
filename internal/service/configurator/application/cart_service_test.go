package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velocraft/internal/service/configurator/domain"
)

func TestAddToCart_MergesQuantity(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	road, err := s.configs.CreateConfiguration(ctx, bikeID, roadBike())
	require.NoError(t, err)
	fs, err := s.configs.CreateConfiguration(ctx, bikeID, fullSuspensionBike())
	require.NoError(t, err)

	_, err = s.cart.AddToCart(ctx, "sess-1", road.ID, 1)
	require.NoError(t, err)
	_, err = s.cart.AddToCart(ctx, "sess-1", road.ID, 2)
	require.NoError(t, err)
	cart, err := s.cart.AddToCart(ctx, "sess-1", fs.ID, 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "3219.00", cart.Items[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "4337.00", cart.TotalAmount.StringFixed(2))

	stored, err := s.cart.GetCart(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "4337.00", stored.TotalAmount.StringFixed(2))
}

func TestAddToCart_RejectsInvalidConfiguration(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	items := roadBike()
	items[2] = pick1("wheels", "mountain-wheels")
	invalid, err := s.configs.CreateConfiguration(ctx, bikeID, items)
	require.NoError(t, err)

	// 购物车不存在时，拒绝后也不会被创建
	_, err = s.cart.AddToCart(ctx, "sess-1", invalid.ID, 1)
	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	var ice *domain.InvalidConfigurationError
	require.ErrorAs(t, err, &ice)
	assert.Equal(t, []string{"Mountain Wheels requires Full-Suspension"}, ice.Errors)
	_, err = s.cart.GetCart(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)

	// 已有购物车保持不变
	valid, err := s.configs.CreateConfiguration(ctx, bikeID, roadBike())
	require.NoError(t, err)
	before, err := s.cart.AddToCart(ctx, "sess-1", valid.ID, 1)
	require.NoError(t, err)
	_, err = s.cart.AddToCart(ctx, "sess-1", invalid.ID, 1)
	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	after, err := s.cart.GetCart(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, after.Items, 1)
	assert.True(t, before.TotalAmount.Equal(after.TotalAmount))
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestAddToCart_Errors(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.cart.AddToCart(ctx, "sess-1", "ghost", 1)
	assert.ErrorIs(t, err, domain.ErrConfigurationNotFound)

	cfg, err := s.configs.CreateConfiguration(ctx, bikeID, roadBike())
	require.NoError(t, err)
	_, err = s.cart.AddToCart(ctx, "sess-1", cfg.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)
}

func TestCartMutations(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	cfg, err := s.configs.CreateConfiguration(ctx, bikeID, roadBike())
	require.NoError(t, err)
	cart, err := s.cart.AddToCart(ctx, "sess-1", cfg.ID, 1)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = s.cart.UpdateQuantity(ctx, "sess-1", itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, "4292.00", cart.TotalAmount.StringFixed(2))

	_, err = s.cart.RemoveItem(ctx, "sess-1", "ghost-item")
	assert.ErrorIs(t, err, domain.ErrCartItemNotFound)

	cart, err = s.cart.UpdateQuantity(ctx, "sess-1", itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalAmount.IsZero())

	_, err = s.cart.AddToCart(ctx, "sess-1", cfg.ID, 2)
	require.NoError(t, err)
	cart, err = s.cart.Clear(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	stored, err := s.cart.GetCart(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, stored.Items)

	require.NoError(t, s.cart.Delete(ctx, "sess-1"))
	_, err = s.cart.GetCart(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)

	_, err = s.cart.Clear(ctx, "sess-2")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestAddToCart_ConcurrentAddsAreNotLost(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	road, err := s.configs.CreateConfiguration(ctx, bikeID, roadBike())
	require.NoError(t, err)
	_, err = s.cart.AddToCart(ctx, "sess-race", road.ID, 1)
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.cart.AddToCart(ctx, "sess-race", road.ID, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	cart, err := s.cart.GetCart(ctx, "sess-race")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, workers+1, cart.Items[0].Quantity)
	assert.Equal(t, "54723.00", cart.TotalAmount.StringFixed(2))
}
