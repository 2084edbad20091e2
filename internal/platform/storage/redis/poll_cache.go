package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/quando-pode/internal/domain"
)

// generationTTL mantém a geração bem além do TTL das entradas; é renovado a cada Invalidate.
const generationTTL = 24 * time.Hour

var errGeracaoMudou = errors.New("geracao do cache mudou")

// PollCache guarda a projeção da enquete em JSON com TTL (cache-aside).
type PollCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewPollCache(client *redis.Client, prefix string, ttl time.Duration) *PollCache {
	if prefix == "" {
		prefix = "cache:poll"
	}
	return &PollCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *PollCache) Get(ctx context.Context, id domain.PollID) (domain.Poll, bool, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Poll{}, false, nil
	}
	if err != nil {
		return domain.Poll{}, false, fmt.Errorf("redis cache: ler %s: %w", id, err)
	}

	var poll domain.Poll
	if err := json.Unmarshal(raw, &poll); err != nil {
		// Entrada ilegível é removida e tratada como ausência.
		_ = c.client.Del(ctx, c.key(id)).Err()
		return domain.Poll{}, false, nil
	}
	if err := poll.Options.Validate(); err != nil {
		_ = c.client.Del(ctx, c.key(id)).Err()
		return domain.Poll{}, false, nil
	}
	return poll, true, nil
}

// Generation devolve a geração atual da enquete; chave ausente vale zero.
func (c *PollCache) Generation(ctx context.Context, id domain.PollID) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis cache: ler geracao %s: %w", id, err)
	}
	return gen, nil
}

// Set grava com WATCH sobre a chave de geração: se ela mudou desde a leitura do banco,
// a projeção lida está velha e nada é gravado.
func (c *PollCache) Set(ctx context.Context, p domain.Poll, generation int64) (bool, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("redis cache: serializar %s: %w", p.ID, err)
	}

	genKey := c.genKey(p.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		atual, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if atual != generation {
			return errGeracaoMudou
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(p.ID), payload, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case errors.Is(err, errGeracaoMudou), errors.Is(err, redis.TxFailedErr):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("redis cache: gravar %s: %w", p.ID, err)
	}
	return true, nil
}

// Invalidate avança a geração e remove a entrada na mesma transação.
func (c *PollCache) Invalidate(ctx context.Context, id domain.PollID) error {
	genKey := c.genKey(id)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, c.key(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis cache: invalidar %s: %w", id, err)
	}
	return nil
}

func (c *PollCache) key(id domain.PollID) string {
	return c.prefix + ":" + string(id)
}

func (c *PollCache) genKey(id domain.PollID) string {
	return c.prefix + ":gen:" + string(id)
}

var _ domain.PollCache = (*PollCache)(nil)
