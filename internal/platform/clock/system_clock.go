package clock

import (
	"sync"
	"time"

	"github.com/marcelojr/quando-pode/internal/domain"
)

type SystemClock struct{}

func NewSystemClock() SystemClock {
	return SystemClock{}
}

// Agora devolve UTC truncado em microssegundos, a precisão do timestamptz do Postgres.
func (SystemClock) Agora() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Fixed é um relógio controlado manualmente, usado em testes.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Agora() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) Avancar(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

var (
	_ domain.Clock = SystemClock{}
	_ domain.Clock = (*Fixed)(nil)
)
