package worker

import (
	"context"
	"time"

	"github.com/marcelojr/quando-pode/internal/platform/logger"
	"github.com/marcelojr/quando-pode/internal/platform/metrics"
)

// QueueLength é a parte da fila que o amostrador precisa.
type QueueLength interface {
	Len(ctx context.Context) (int64, error)
}

// ReportQueueDepth publica o tamanho da fila no gauge a cada intervalo até o contexto acabar.
func ReportQueueDepth(ctx context.Context, queue QueueLength, every time.Duration) {
	log := logger.L()
	amostrar := func() {
		n, err := queue.Len(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("falha ao medir fila de atividades", "err", err)
			}
			return
		}
		metrics.SetActivityQueueDepth(n)
	}

	amostrar()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			amostrar()
		}
	}
}
