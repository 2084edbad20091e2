package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/quando-pode/internal/domain"
)

// Counter mantém contadores inteiros por chave, com prefixo opcional.
type Counter struct {
	client *redis.Client
	prefix string
}

func NewCounter(client *redis.Client, prefix string) *Counter {
	return &Counter{
		client: client,
		prefix: prefix,
	}
}

func (c *Counter) Incr(ctx context.Context, key string, delta int64) (int64, error) {
	val, err := c.client.IncrBy(ctx, c.key(key), delta).Result()
	if err != nil {
		return 0, fmt.Errorf("redis counter: incrementar %s: %w", key, err)
	}
	return val, nil
}

func (c *Counter) Get(ctx context.Context, key string) (int64, error) {
	val, err := c.client.Get(ctx, c.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis counter: ler %s: %w", key, err)
	}
	return val, nil
}

// GetMany lê várias chaves num único MGET; chaves ausentes valem zero.
func (c *Counter) GetMany(ctx context.Context, keys []string) (map[string]int64, error) {
	if len(keys) == 0 {
		return map[string]int64{}, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}

	valores, err := c.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis counter: mget: %w", err)
	}

	out := make(map[string]int64, len(keys))
	for i, raw := range valores {
		switch v := raw.(type) {
		case nil:
			out[keys[i]] = 0
		case string:
			num, convErr := strconv.ParseInt(v, 10, 64)
			if convErr != nil {
				return nil, fmt.Errorf("redis counter: valor invalido para %s: %w", keys[i], convErr)
			}
			out[keys[i]] = num
		case int64:
			out[keys[i]] = v
		default:
			return nil, fmt.Errorf("redis counter: tipo inesperado %T", raw)
		}
	}
	return out, nil
}

func (c *Counter) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

var _ domain.Counter = (*Counter)(nil)
