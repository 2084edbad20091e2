package domain

import (
	"context"
	"time"
)

type PollRepository interface {
	Create(ctx context.Context, p Poll) error
	FindByID(ctx context.Context, id PollID) (Poll, error)
}

type ParticipantRepository interface {
	// Create insere o participante numa única escrita; devolve ErrAlreadyExists se o apelido já foi tomado.
	Create(ctx context.Context, p Participant) error
	Find(ctx context.Context, pollID PollID, nickname string) (Participant, error)
}

// UnitOfWork executa fn numa transação isolada sobre uma enquete.
// Se fn devolver erro nada é persistido.
type UnitOfWork interface {
	RunInPollTx(ctx context.Context, id PollID, fn func(ctx context.Context, tx PollTx) error) error
}

type PollTx interface {
	Ledger(ctx context.Context) (Ledger, error)
	SaveLedger(ctx context.Context, ledger Ledger) error
	SaveSelection(ctx context.Context, nickname string, dates []Date, votedAt time.Time) error
}

type ActivityRepository interface {
	Save(ctx context.Context, ev ActivityEvent) error
	ListRecent(ctx context.Context, pollID PollID, limit int) ([]ActivityEvent, error)
	CountByKind(ctx context.Context, pollID PollID) (map[ActivityKind]int64, error)
}

type PassphraseHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// PollCache guarda a projeção da enquete. Cada Invalidate avança a geração da enquete;
// Set só grava quando a geração informada ainda é a atual e devolve false caso contrário.
type PollCache interface {
	Get(ctx context.Context, id PollID) (Poll, bool, error)
	Generation(ctx context.Context, id PollID) (int64, error)
	Set(ctx context.Context, p Poll, generation int64) (bool, error)
	Invalidate(ctx context.Context, id PollID) error
}

type Counter interface {
	Incr(ctx context.Context, key string, delta int64) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
	GetMany(ctx context.Context, keys []string) (map[string]int64, error)
}

type ActivityQueue interface {
	Publish(ctx context.Context, ev ActivityEvent) error
	Consume(ctx context.Context, handler func(context.Context, ActivityEvent) error) error
}

type Clock interface {
	Agora() time.Time
}

type IDGenerator interface {
	New() string
}
