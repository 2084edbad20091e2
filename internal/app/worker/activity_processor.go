// Pacote worker processa os eventos de atividade que a API publica na fila Redis.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcelojr/quando-pode/internal/app/voting"
	"github.com/marcelojr/quando-pode/internal/domain"
	"github.com/marcelojr/quando-pode/internal/platform/logger"
	"github.com/marcelojr/quando-pode/internal/platform/metrics"
)

// ActivityProcessor persiste cada evento e mantém os contadores de estatística da enquete.
type ActivityProcessor struct {
	repo    domain.ActivityRepository
	counter domain.Counter
	clock   domain.Clock
	log     *slog.Logger
}

func NewActivityProcessor(repo domain.ActivityRepository, counter domain.Counter, clock domain.Clock) *ActivityProcessor {
	return &ActivityProcessor{
		repo:    repo,
		counter: counter,
		clock:   clock,
		log:     logger.L(),
	}
}

// Process é idempotente por ID: um evento reentregue não soma contador de novo.
func (p *ActivityProcessor) Process(ctx context.Context, ev domain.ActivityEvent) error {
	start := time.Now()

	if ev.ID == "" || ev.PollID == "" {
		return fmt.Errorf("worker: evento sem identificacao (id=%q poll=%q)", ev.ID, ev.PollID)
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = p.clock.Agora()
	}

	err := p.repo.Save(ctx, ev)
	if errors.Is(err, domain.ErrAlreadyExists) {
		p.log.Info("evento repetido ignorado", "evento", ev.ID, "poll", ev.PollID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("worker: persistir evento %s: %w", ev.ID, err)
	}

	if p.counter != nil {
		if key, ok := voting.CounterKeyFor(ev); ok {
			if _, err := p.counter.Incr(ctx, key, 1); err != nil {
				return fmt.Errorf("worker: incrementar %s: %w", key, err)
			}
		}
	}

	metrics.IncActivityProcessed(string(ev.Kind))
	metrics.ObserveActivityProcessing(time.Since(start).Seconds())
	return nil
}

// Run consome a fila até o contexto acabar; falhas de um evento são logadas e o consumo segue.
func (p *ActivityProcessor) Run(ctx context.Context, queue domain.ActivityQueue) error {
	return queue.Consume(ctx, func(ctx context.Context, ev domain.ActivityEvent) error {
		if err := p.Process(ctx, ev); err != nil {
			p.log.Error("erro ao processar atividade", "evento", ev.ID, "poll", ev.PollID, "kind", ev.Kind, "err", err)
		}
		return nil
	})
}
