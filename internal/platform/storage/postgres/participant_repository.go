package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/quando-pode/internal/domain"
)

// ParticipantRepository persiste participantes por (enquete, apelido).
type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

type participantModel struct {
	PollID         string         `gorm:"column:poll_id;primaryKey"`
	Nickname       string         `gorm:"column:nickname;primaryKey"`
	PassphraseHash string         `gorm:"column:passphrase_hash"`
	SelectedDates  datatypes.JSON `gorm:"column:selected_dates"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
	LastVotedAt    *time.Time     `gorm:"column:last_voted_at"`
}

func (participantModel) TableName() string {
	return "participants"
}

func encodeDates(dates []domain.Date) (datatypes.JSON, error) {
	raw := make([]string, len(dates))
	for i, d := range dates {
		raw[i] = string(d)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("gorm participant: serializar datas: %w", err)
	}
	return datatypes.JSON(b), nil
}

// decodeDates devolve vazio quando a seleção gravada não é uma lista de textos.
func decodeDates(raw datatypes.JSON) []domain.Date {
	var dates []string
	if len(raw) == 0 || json.Unmarshal(raw, &dates) != nil {
		return []domain.Date{}
	}
	out := make([]domain.Date, len(dates))
	for i, d := range dates {
		out[i] = domain.Date(d)
	}
	return out
}

func (m participantModel) toDomain() domain.Participant {
	return domain.Participant{
		PollID:         domain.PollID(m.PollID),
		Nickname:       m.Nickname,
		PassphraseHash: m.PassphraseHash,
		SelectedDates:  decodeDates(m.SelectedDates),
		CreatedAt:      m.CreatedAt,
		LastVotedAt:    m.LastVotedAt,
	}
}

// Create é uma única escrita INSERT ... ON CONFLICT DO NOTHING: quem chegar depois recebe ErrAlreadyExists
// e o registro vencedor nunca é sobrescrito.
func (r *ParticipantRepository) Create(ctx context.Context, p domain.Participant) error {
	dates, err := encodeDates(p.SelectedDates)
	if err != nil {
		return err
	}
	model := participantModel{
		PollID:         string(p.PollID),
		Nickname:       p.Nickname,
		PassphraseHash: p.PassphraseHash,
		SelectedDates:  dates,
		CreatedAt:      p.CreatedAt,
		LastVotedAt:    p.LastVotedAt,
	}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model)
	if res.Error != nil {
		return fmt.Errorf("gorm participant: inserir: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *ParticipantRepository) Find(ctx context.Context, pollID domain.PollID, nickname string) (domain.Participant, error) {
	var model participantModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ? AND nickname = ?", string(pollID), nickname).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Participant{}, domain.ErrNotFound
		}
		return domain.Participant{}, fmt.Errorf("gorm participant: buscar: %w", err)
	}
	return model.toDomain(), nil
}

var _ domain.ParticipantRepository = (*ParticipantRepository)(nil)
