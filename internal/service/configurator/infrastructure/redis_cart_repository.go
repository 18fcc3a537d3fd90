package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"velocraft/internal/service/configurator/domain"
)

// maxCartUpdateAttempts 乐观锁冲突时的最大尝试次数
const maxCartUpdateAttempts = 100

// RedisCartRepository 以 JSON 文档的形式把购物车存放在 cart:{id}，每次写入刷新 TTL。
type RedisCartRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCartRepository(client redis.UniversalClient, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{client: client, ttl: ttl}
}

func cartKey(id string) string {
	return fmt.Sprintf("cart:{%s}", id)
}

func decodeCart(cmd *redis.StringCmd) (*domain.Cart, error) {
	data, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCartNotFound
		}
		return nil, storageErr("carts.get", err, nil)
	}
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, storageErr("carts.decode", err, nil)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

func (r *RedisCartRepository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	return decodeCart(r.client.Get(ctx, cartKey(id)))
}

func (r *RedisCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", cart.ID, err)
	}
	if err := r.client.Set(ctx, cartKey(cart.ID), data, r.ttl).Err(); err != nil {
		return storageErr("carts.save", err, nil)
	}
	return nil
}

// Update 用 WATCH + MULTI/EXEC 做乐观锁，键在读写之间被改动时重试。
func (r *RedisCartRepository) Update(ctx context.Context, id string, fn func(*domain.Cart) (*domain.Cart, error)) (*domain.Cart, error) {
	key := cartKey(id)
	for attempt := 0; attempt < maxCartUpdateAttempts; attempt++ {
		var saved *domain.Cart
		// failed 记录 fn 或编解码产生的错误，这类错误不重试
		var failed error

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			cart, err := decodeCart(tx.Get(ctx, key))
			if err != nil && !errors.Is(err, domain.ErrCartNotFound) {
				failed = err
				return err
			}
			next, err := fn(cart)
			if err != nil {
				failed = err
				return err
			}
			data, err := json.Marshal(next)
			if err != nil {
				failed = fmt.Errorf("encode cart %s: %w", id, err)
				return failed
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, r.ttl)
				return nil
			})
			if err == nil {
				saved = next
			}
			return err
		}, key)

		switch {
		case err == nil:
			return saved, nil
		case failed != nil:
			return nil, failed
		case errors.Is(err, redis.TxFailedErr):
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		default:
			return nil, storageErr("carts.update", err, nil)
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrCartConflict, id)
}

func (r *RedisCartRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, cartKey(id)).Err(); err != nil {
		return storageErr("carts.delete", err, nil)
	}
	return nil
}
