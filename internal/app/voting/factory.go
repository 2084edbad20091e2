package voting

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcelojr/quando-pode/internal/domain"
	"github.com/marcelojr/quando-pode/internal/platform/metrics"
)

// MaxPollDays limita o tamanho do ledger de uma enquete.
const MaxPollDays = 366

type CreatePollInput struct {
	Title       string
	VoteType    string
	PeriodStart string
	PeriodEnd   string
}

type CreatedPoll struct {
	Poll      domain.Poll
	ShareLink string
}

func ShareLink(id domain.PollID) string {
	return "/vote/" + string(id)
}

// CreatePoll gera uma opção por dia do período, todas sem votos, e persiste a enquete.
func (s *Service) CreatePoll(ctx context.Context, in CreatePollInput) (CreatedPoll, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.VoteType == "" || in.PeriodStart == "" || in.PeriodEnd == "" {
		return CreatedPoll{}, fmt.Errorf("%w: titulo, tipo e periodo sao obrigatorios", ErrInvalidInput)
	}

	voteType := domain.VoteType(in.VoteType)
	if !voteType.Valid() {
		return CreatedPoll{}, fmt.Errorf("%w: tipo de voto %q desconhecido", ErrInvalidInput, in.VoteType)
	}

	dias, err := periodo(in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return CreatedPoll{}, err
	}

	poll := domain.Poll{
		ID:          domain.PollID(s.ids.New()),
		Title:       title,
		VoteType:    voteType,
		PeriodStart: dias[0],
		PeriodEnd:   dias[len(dias)-1],
		Options:     domain.NewLedger(dias, voteType),
		CreatedAt:   s.clock.Agora(),
	}

	if err := s.polls.Create(ctx, poll); err != nil {
		s.log.Error("falha ao criar enquete", "op", "create_poll", "poll", poll.ID, "error", err)
		return CreatedPoll{}, fmt.Errorf("%w: criar enquete: %w", ErrInternal, err)
	}

	metrics.IncPollCreated(string(voteType))
	s.log.Info("enquete criada", "op", "create_poll", "poll", poll.ID, "vote_type", voteType, "dias", len(dias))

	return CreatedPoll{Poll: poll, ShareLink: ShareLink(poll.ID)}, nil
}

func periodo(rawStart, rawEnd string) ([]domain.Date, error) {
	inicio, err := domain.ParseDate(rawStart)
	if err != nil {
		return nil, fmt.Errorf("%w: inicio do periodo: %w", ErrInvalidInput, err)
	}
	fim, err := domain.ParseDate(rawEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: fim do periodo: %w", ErrInvalidInput, err)
	}

	de, _ := inicio.Time()
	ate, _ := fim.Time()
	if ate.Before(de) {
		return nil, fmt.Errorf("%w: fim %s antes do inicio %s", ErrInvalidInput, fim, inicio)
	}
	if dias := int(ate.Sub(de).Hours()/24) + 1; dias > MaxPollDays {
		return nil, fmt.Errorf("%w: periodo de %d dias excede o limite de %d", ErrInvalidInput, dias, MaxPollDays)
	}

	dias, err := domain.DateRange(inicio, fim)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return dias, nil
}
