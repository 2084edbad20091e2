package voting

import (
	"context"
	"fmt"

	"github.com/marcelojr/quando-pode/internal/domain"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// Stats lê os contadores do Redis; sem contador (ou com ele fora do ar) conta os eventos persistidos.
func (s *Service) Stats(ctx context.Context, pollID domain.PollID) (domain.PollStats, error) {
	if _, err := s.findPoll(ctx, pollID); err != nil {
		return domain.PollStats{}, err
	}

	stats := domain.PollStats{PollID: pollID}

	if s.counter != nil {
		keyP, keyS := CounterKeyParticipants(pollID), CounterKeySubmissions(pollID)
		valores, err := s.counter.GetMany(ctx, []string{keyP, keyS})
		if err == nil {
			stats.Participants = valores[keyP]
			stats.Submissions = valores[keyS]
			return stats, nil
		}
		s.log.Warn("contadores indisponiveis, usando eventos persistidos", "op", "stats", "poll", pollID, "error", err)
	}

	if s.activity == nil {
		return stats, nil
	}

	totais, err := s.activity.CountByKind(ctx, pollID)
	if err != nil {
		s.log.Error("falha ao contar atividades", "op", "stats", "poll", pollID, "error", err)
		return domain.PollStats{}, fmt.Errorf("%w: contar atividades: %w", ErrInternal, err)
	}
	stats.Participants = totais[domain.ActivityRegistered]
	stats.Submissions = totais[domain.ActivityVoted]
	return stats, nil
}

// RecentActivity devolve os eventos mais novos primeiro; limit zero usa o padrão.
func (s *Service) RecentActivity(ctx context.Context, pollID domain.PollID, limit int) ([]domain.ActivityEvent, error) {
	if limit == 0 {
		limit = DefaultActivityLimit
	}
	if limit < 1 || limit > MaxActivityLimit {
		return nil, fmt.Errorf("%w: limit deve estar entre 1 e %d", ErrInvalidInput, MaxActivityLimit)
	}

	if _, err := s.findPoll(ctx, pollID); err != nil {
		return nil, err
	}

	if s.activity == nil {
		return []domain.ActivityEvent{}, nil
	}

	eventos, err := s.activity.ListRecent(ctx, pollID, limit)
	if err != nil {
		s.log.Error("falha ao listar atividades", "op", "activity", "poll", pollID, "error", err)
		return nil, fmt.Errorf("%w: listar atividades: %w", ErrInternal, err)
	}
	if eventos == nil {
		eventos = []domain.ActivityEvent{}
	}
	return eventos, nil
}
