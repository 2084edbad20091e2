package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelojr/quando-pode/internal/domain"
	"github.com/marcelojr/quando-pode/internal/platform/metrics"
)

// SubmitVote troca a seleção inteira do participante numa única transação:
// retira o apelido de todas as opções, aplica a seleção nova e grava o participante.
func (s *Service) SubmitVote(ctx context.Context, pollID domain.PollID, nickname, passphrase string, selected []string) error {
	if nickname == "" || len(selected) == 0 {
		metrics.ObserveVoteRequest("invalid")
		return fmt.Errorf("%w: apelido e datas selecionadas sao obrigatorios", ErrInvalidInput)
	}
	if passphrase == "" {
		metrics.ObserveVoteRequest("invalid")
		return fmt.Errorf("%w: senha obrigatoria", ErrInvalidInput)
	}

	// A seleção é gravada como veio; valores fora das opções não casam com nenhuma data do ledger.
	dates := make([]domain.Date, len(selected))
	for i, raw := range selected {
		dates[i] = domain.Date(raw)
	}

	if _, err := s.findPoll(ctx, pollID); err != nil {
		if errors.Is(err, ErrPollNotFound) {
			metrics.ObserveVoteRequest("not_found")
		} else {
			metrics.ObserveVoteRequest("error")
		}
		return err
	}

	participante, err := s.participants.Find(ctx, pollID, nickname)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.ObserveVoteRequest("not_registered")
			return ErrNotRegistered
		}
		metrics.ObserveVoteRequest("error")
		s.log.Error("falha ao ler participante", "op", "vote", "poll", pollID, "nickname", nickname, "error", err)
		return fmt.Errorf("%w: ler participante: %w", ErrInternal, err)
	}
	if participante.PassphraseHash == "" {
		metrics.ObserveVoteRequest("error")
		s.log.Error("participante sem hash de senha", "op", "vote", "poll", pollID, "nickname", nickname)
		return fmt.Errorf("%w: participante %q sem hash de senha", ErrInternal, nickname)
	}
	if !s.hasher.Verify(passphrase, participante.PassphraseHash) {
		metrics.ObserveVoteRequest("unauthorized")
		return ErrUnauthorized
	}

	var aplicadas []domain.Date
	inicio := time.Now()
	err = s.uow.RunInPollTx(ctx, pollID, func(ctx context.Context, tx domain.PollTx) error {
		ledger, err := tx.Ledger(ctx)
		if err != nil {
			return err
		}
		novo := ledger.Replace(nickname, dates)
		if err := tx.SaveLedger(ctx, novo); err != nil {
			return err
		}
		aplicadas = novo.Footprint(nickname)
		return tx.SaveSelection(ctx, nickname, dates, s.clock.Agora())
	})
	metrics.ObserveVoteTxDuration(time.Since(inicio).Seconds())
	if err != nil {
		metrics.ObserveVoteRequest("error")
		s.log.Error("transacao de voto abortada", "op", "vote", "poll", pollID, "nickname", nickname, "error", err)
		return fmt.Errorf("%w: gravar voto: %w", ErrInternal, err)
	}

	metrics.ObserveVoteRequest("ok")
	s.log.Info("voto registrado", "op", "vote", "poll", pollID, "nickname", nickname,
		"datas", len(dates), "datas_no_ledger", len(aplicadas))

	s.invalidate(ctx, pollID)
	s.publish(ctx, pollID, nickname, domain.ActivityVoted, len(aplicadas))
	return nil
}
