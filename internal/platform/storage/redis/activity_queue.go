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

// ActivityQueue usa uma lista Redis (LPUSH/BRPOP) como fila FIFO de eventos de atividade.
type ActivityQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
}

func NewActivityQueue(client *redis.Client, key string) *ActivityQueue {
	return &ActivityQueue{
		client:      client,
		key:         key,
		pollTimeout: 5 * time.Second,
	}
}

func (q *ActivityQueue) Publish(ctx context.Context, ev domain.ActivityEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis fila: serializar evento: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("redis fila: enfileirar evento: %w", err)
	}
	return nil
}

// Consume bloqueia até o contexto terminar ou o handler devolver erro.
// Payload ilegível é descartado para não travar a fila num item envenenado.
func (q *ActivityQueue) Consume(ctx context.Context, handler func(context.Context, domain.ActivityEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("redis fila: consumir evento: %w", err)
		}

		if len(res) != 2 {
			continue
		}

		var ev domain.ActivityEvent
		if err := json.Unmarshal([]byte(res[1]), &ev); err != nil || ev.PollID == "" {
			continue
		}

		if err := handler(ctx, ev); err != nil {
			return err
		}
	}
}

// Len devolve quantos eventos aguardam consumo; o worker amostra esse valor no gauge de profundidade da fila.
func (q *ActivityQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

var _ domain.ActivityQueue = (*ActivityQueue)(nil)
