package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/quando-pode/internal/domain"
)

// VoteUnitOfWork abre uma transação por enquete com SELECT ... FOR UPDATE na linha da enquete,
// serializando votos concorrentes sobre o mesmo ledger.
type VoteUnitOfWork struct {
	db    *gorm.DB
	clock domain.Clock
}

func NewVoteUnitOfWork(db *gorm.DB, clock domain.Clock) *VoteUnitOfWork {
	return &VoteUnitOfWork{db: db, clock: clock}
}

func (u *VoteUnitOfWork) RunInPollTx(ctx context.Context, id domain.PollID, fn func(ctx context.Context, tx domain.PollTx) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model pollModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", string(id)).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("gorm vote tx: travar enquete: %w", err)
		}

		return fn(ctx, &pollTx{tx: tx, poll: model, clock: u.clock})
	})
}

type pollTx struct {
	tx    *gorm.DB
	poll  pollModel
	clock domain.Clock
}

func (p *pollTx) Ledger(_ context.Context) (domain.Ledger, error) {
	ledger, err := decodeLedger(p.poll.Options)
	if err != nil {
		return nil, fmt.Errorf("enquete %s: %w", p.poll.ID, err)
	}
	return ledger, nil
}

func (p *pollTx) SaveLedger(ctx context.Context, ledger domain.Ledger) error {
	if err := ledger.Validate(); err != nil {
		return err
	}
	options, err := encodeLedger(ledger)
	if err != nil {
		return err
	}

	res := p.tx.WithContext(ctx).Model(&pollModel{}).
		Where("id = ?", p.poll.ID).
		Updates(map[string]any{
			"options":    options,
			"updated_at": p.now(),
		})
	if res.Error != nil {
		return fmt.Errorf("gorm vote tx: gravar ledger: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("gorm vote tx: gravar ledger: %w", domain.ErrNotFound)
	}
	p.poll.Options = options
	return nil
}

func (p *pollTx) SaveSelection(ctx context.Context, nickname string, dates []domain.Date, votedAt time.Time) error {
	selected, err := encodeDates(dates)
	if err != nil {
		return err
	}

	res := p.tx.WithContext(ctx).Model(&participantModel{}).
		Where("poll_id = ? AND nickname = ?", p.poll.ID, nickname).
		Updates(map[string]any{
			"selected_dates": selected,
			"last_voted_at":  votedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("gorm vote tx: gravar selecao: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("gorm vote tx: participante %q: %w", nickname, domain.ErrNotFound)
	}
	return nil
}

func (p *pollTx) now() time.Time {
	if p.clock == nil {
		return time.Now().UTC()
	}
	return p.clock.Agora()
}

var _ domain.UnitOfWork = (*VoteUnitOfWork)(nil)
