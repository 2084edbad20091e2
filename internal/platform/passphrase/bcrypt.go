// Pacote passphrase guarda e confere as senhas dos participantes com bcrypt.
package passphrase

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/marcelojr/quando-pode/internal/domain"
)

// DefaultCost segue as 10 rodadas de salt usadas desde a primeira versão.
const DefaultCost = bcrypt.DefaultCost

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash gera um digest com salt novo a cada chamada.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("passphrase: gerar hash: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

var _ domain.PassphraseHasher = (*BcryptHasher)(nil)
