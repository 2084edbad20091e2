// Pacote voting implementa as regras da enquete: criação, registro de participantes, votação e leituras.
package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcelojr/quando-pode/internal/domain"
	"github.com/marcelojr/quando-pode/internal/platform/ids"
	"github.com/marcelojr/quando-pode/internal/platform/logger"
	"github.com/marcelojr/quando-pode/internal/platform/metrics"
)

// Service concentra as regras de negócio e delega persistência, cache e fila às portas do domínio.
type Service struct {
	polls        domain.PollRepository
	participants domain.ParticipantRepository
	uow          domain.UnitOfWork
	hasher       domain.PassphraseHasher
	clock        domain.Clock
	ids          domain.IDGenerator

	cache    domain.PollCache
	counter  domain.Counter
	queue    domain.ActivityQueue
	activity domain.ActivityRepository
	log      *slog.Logger
}

type ServiceOption func(*Service)

// WithPollCache liga o cache-aside de GetPoll.
func WithPollCache(c domain.PollCache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithActivityQueue publica eventos de registro e voto depois de cada commit.
func WithActivityQueue(q domain.ActivityQueue) ServiceOption {
	return func(s *Service) { s.queue = q }
}

func WithCounter(c domain.Counter) ServiceOption {
	return func(s *Service) { s.counter = c }
}

func WithActivityRepository(r domain.ActivityRepository) ServiceOption {
	return func(s *Service) { s.activity = r }
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(
	polls domain.PollRepository,
	participants domain.ParticipantRepository,
	uow domain.UnitOfWork,
	hasher domain.PassphraseHasher,
	clock domain.Clock,
	idsGen domain.IDGenerator,
	opts ...ServiceOption,
) *Service {
	if idsGen == nil {
		idsGen = ids.DefaultGenerator()
	}
	s := &Service{
		polls:        polls,
		participants: participants,
		uow:          uow,
		hasher:       hasher,
		clock:        clock,
		ids:          idsGen,
		log:          logger.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPoll lê a projeção completa da enquete, passando pelo cache quando configurado.
// A geração do cache é lida antes do banco; se um voto invalidar a enquete no meio da leitura,
// a projeção lida não volta para o cache.
func (s *Service) GetPoll(ctx context.Context, id domain.PollID) (domain.Poll, error) {
	if s.cache == nil {
		return s.findPoll(ctx, id)
	}

	poll, ok, err := s.cache.Get(ctx, id)
	switch {
	case err != nil:
		metrics.ObservePollCache("error")
		s.log.Warn("cache de enquete indisponivel", "op", "get_poll", "poll", id, "error", err)
	case ok:
		metrics.ObservePollCache("hit")
		return poll, nil
	default:
		metrics.ObservePollCache("miss")
	}

	gen, errGen := s.cache.Generation(ctx, id)
	if errGen != nil {
		s.log.Warn("falha ao ler geracao do cache", "op", "get_poll", "poll", id, "error", errGen)
	}

	poll, err = s.findPoll(ctx, id)
	if err != nil {
		return domain.Poll{}, err
	}
	if errGen != nil {
		return poll, nil
	}

	gravou, err := s.cache.Set(ctx, poll, gen)
	switch {
	case err != nil:
		s.log.Warn("falha ao gravar enquete no cache", "op", "get_poll", "poll", id, "error", err)
	case !gravou:
		metrics.ObservePollCache("stale")
	}
	return poll, nil
}

// findPoll consulta o repositório e traduz os erros de armazenamento.
func (s *Service) findPoll(ctx context.Context, id domain.PollID) (domain.Poll, error) {
	poll, err := s.polls.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Poll{}, ErrPollNotFound
		}
		s.log.Error("falha ao ler enquete", "poll", id, "error", err)
		return domain.Poll{}, fmt.Errorf("%w: ler enquete %s: %w", ErrInternal, id, err)
	}
	return poll, nil
}

// publish é best-effort: a operação principal já foi confirmada e não deve falhar por causa da fila.
func (s *Service) publish(ctx context.Context, pollID domain.PollID, nickname string, kind domain.ActivityKind, datesCount int) {
	if s.queue == nil {
		return
	}
	ev := domain.ActivityEvent{
		ID:         domain.ActivityEventID(s.ids.New()),
		PollID:     pollID,
		Nickname:   nickname,
		Kind:       kind,
		DatesCount: datesCount,
		OccurredAt: s.clock.Agora(),
	}
	if err := s.queue.Publish(ctx, ev); err != nil {
		s.log.Warn("falha ao publicar atividade", "poll", pollID, "nickname", nickname, "kind", kind, "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context, id domain.PollID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("falha ao invalidar cache da enquete", "poll", id, "error", err)
	}
}
