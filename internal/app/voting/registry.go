package voting

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcelojr/quando-pode/internal/domain"
	"github.com/marcelojr/quando-pode/internal/platform/metrics"
)

// maxPassphraseBytes é o limite de entrada do bcrypt.
const maxPassphraseBytes = 72

type AuthResult struct {
	Nickname          string
	PreviousSelection []domain.Date
	Registered        bool
}

// AuthenticateOrRegister registra o apelido no primeiro contato e autentica nos seguintes.
// Um participante existente nunca é alterado aqui.
func (s *Service) AuthenticateOrRegister(ctx context.Context, pollID domain.PollID, nickname, passphrase string) (AuthResult, error) {
	if nickname == "" || passphrase == "" {
		return AuthResult{}, fmt.Errorf("%w: apelido e senha sao obrigatorios", ErrInvalidInput)
	}
	if len(passphrase) > maxPassphraseBytes {
		return AuthResult{}, fmt.Errorf("%w: senha acima de %d bytes", ErrInvalidInput, maxPassphraseBytes)
	}

	if _, err := s.findPoll(ctx, pollID); err != nil {
		return AuthResult{}, err
	}

	existente, err := s.participants.Find(ctx, pollID, nickname)
	switch {
	case err == nil:
		return s.authenticate(existente, passphrase)
	case !errors.Is(err, domain.ErrNotFound):
		s.log.Error("falha ao ler participante", "op", "auth", "poll", pollID, "nickname", nickname, "error", err)
		return AuthResult{}, fmt.Errorf("%w: ler participante: %w", ErrInternal, err)
	}

	return s.register(ctx, pollID, nickname, passphrase)
}

func (s *Service) register(ctx context.Context, pollID domain.PollID, nickname, passphrase string) (AuthResult, error) {
	digest, err := s.hasher.Hash(passphrase)
	if err != nil {
		s.log.Error("falha ao gerar hash da senha", "op", "register", "poll", pollID, "nickname", nickname, "error", err)
		return AuthResult{}, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	novo := domain.Participant{
		PollID:         pollID,
		Nickname:       nickname,
		PassphraseHash: digest,
		SelectedDates:  []domain.Date{},
		CreatedAt:      s.clock.Agora(),
	}

	err = s.participants.Create(ctx, novo)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Outra requisição registrou o mesmo apelido primeiro; vale o registro dela.
		vencedor, findErr := s.participants.Find(ctx, pollID, nickname)
		if findErr != nil {
			s.log.Error("falha ao reler participante apos conflito", "op", "register", "poll", pollID, "nickname", nickname, "error", findErr)
			return AuthResult{}, fmt.Errorf("%w: reler participante: %w", ErrInternal, findErr)
		}
		return s.authenticate(vencedor, passphrase)
	}
	if err != nil {
		s.log.Error("falha ao registrar participante", "op", "register", "poll", pollID, "nickname", nickname, "error", err)
		return AuthResult{}, fmt.Errorf("%w: registrar participante: %w", ErrInternal, err)
	}

	metrics.ObserveAuthRequest("registered")
	s.log.Info("participante registrado", "op", "register", "poll", pollID, "nickname", nickname)
	s.publish(ctx, pollID, nickname, domain.ActivityRegistered, 0)

	return AuthResult{
		Nickname:          nickname,
		PreviousSelection: []domain.Date{},
		Registered:        true,
	}, nil
}

func (s *Service) authenticate(p domain.Participant, passphrase string) (AuthResult, error) {
	if p.PassphraseHash == "" {
		metrics.ObserveAuthRequest("corrupt")
		s.log.Error("participante sem hash de senha", "op", "auth", "poll", p.PollID, "nickname", p.Nickname)
		return AuthResult{}, fmt.Errorf("%w: participante %q sem hash de senha", ErrInternal, p.Nickname)
	}
	if !s.hasher.Verify(passphrase, p.PassphraseHash) {
		metrics.ObserveAuthRequest("unauthorized")
		return AuthResult{}, ErrUnauthorized
	}

	metrics.ObserveAuthRequest("authenticated")
	anteriores := p.SelectedDates
	if anteriores == nil {
		anteriores = []domain.Date{}
	}
	return AuthResult{
		Nickname:          p.Nickname,
		PreviousSelection: anteriores,
	}, nil
}
