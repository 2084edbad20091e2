package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/marcelojr/quando-pode/internal/domain"
)

// PollRepository grava a enquete como um documento: metadados em colunas e o ledger em JSON.
type PollRepository struct {
	db *gorm.DB
}

func NewPollRepository(db *gorm.DB) *PollRepository {
	return &PollRepository{db: db}
}

type pollModel struct {
	ID          string         `gorm:"column:id;primaryKey"`
	Title       string         `gorm:"column:title"`
	VoteType    string         `gorm:"column:vote_type"`
	PeriodStart string         `gorm:"column:period_start"`
	PeriodEnd   string         `gorm:"column:period_end"`
	Options     datatypes.JSON `gorm:"column:options"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
}

func (pollModel) TableName() string {
	return "polls"
}

type timeSlotDoc struct {
	Time  string   `json:"time"`
	Votes []string `json:"votes"`
}

// optionDoc é o formato persistido de cada opção.
type optionDoc struct {
	Date      string         `json:"date"`
	Label     string         `json:"label"`
	Votes     []string       `json:"votes"`
	TimeSlots *[]timeSlotDoc `json:"timeSlots,omitempty"`
}

func encodeLedger(ledger domain.Ledger) (datatypes.JSON, error) {
	docs := make([]optionDoc, len(ledger))
	for i, opt := range ledger {
		votes := opt.Votes
		if votes == nil {
			votes = []string{}
		}
		doc := optionDoc{Date: string(opt.Date), Label: opt.Label, Votes: votes}
		if opt.TimeSlots != nil {
			slots := make([]timeSlotDoc, len(opt.TimeSlots))
			for j, s := range opt.TimeSlots {
				slots[j] = timeSlotDoc{Time: s.Time, Votes: s.Votes}
				if slots[j].Votes == nil {
					slots[j].Votes = []string{}
				}
			}
			doc.TimeSlots = &slots
		}
		docs[i] = doc
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("gorm poll: serializar opcoes: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// decodeLedger é a fronteira de leitura: documento malformado vira ErrCorruptRecord.
func decodeLedger(raw datatypes.JSON) (domain.Ledger, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: opcoes ausentes", domain.ErrCorruptRecord)
	}
	var docs []optionDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("%w: opcoes ilegiveis: %v", domain.ErrCorruptRecord, err)
	}
	if docs == nil {
		return nil, fmt.Errorf("%w: opcoes nulas", domain.ErrCorruptRecord)
	}

	ledger := make(domain.Ledger, len(docs))
	for i, doc := range docs {
		opt := domain.Option{
			Date:  domain.Date(doc.Date),
			Label: doc.Label,
			Votes: doc.Votes,
		}
		// Lista de votos ausente é tratada como vazia, igual aos documentos antigos.
		if opt.Votes == nil {
			opt.Votes = []string{}
		}
		if doc.TimeSlots != nil {
			opt.TimeSlots = make([]domain.TimeSlot, len(*doc.TimeSlots))
			for j, s := range *doc.TimeSlots {
				opt.TimeSlots[j] = domain.TimeSlot{Time: s.Time, Votes: s.Votes}
			}
		}
		ledger[i] = opt
	}

	if err := ledger.Validate(); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (m pollModel) toDomain() (domain.Poll, error) {
	ledger, err := decodeLedger(m.Options)
	if err != nil {
		return domain.Poll{}, fmt.Errorf("enquete %s: %w", m.ID, err)
	}
	voteType := domain.VoteType(m.VoteType)
	if !voteType.Valid() {
		return domain.Poll{}, fmt.Errorf("enquete %s: %w: tipo %q", m.ID, domain.ErrCorruptRecord, m.VoteType)
	}
	return domain.Poll{
		ID:          domain.PollID(m.ID),
		Title:       m.Title,
		VoteType:    voteType,
		PeriodStart: domain.Date(m.PeriodStart),
		PeriodEnd:   domain.Date(m.PeriodEnd),
		Options:     ledger,
		CreatedAt:   m.CreatedAt,
	}, nil
}

func fromDomainPoll(p domain.Poll) (pollModel, error) {
	options, err := encodeLedger(p.Options)
	if err != nil {
		return pollModel{}, err
	}
	return pollModel{
		ID:          string(p.ID),
		Title:       p.Title,
		VoteType:    string(p.VoteType),
		PeriodStart: string(p.PeriodStart),
		PeriodEnd:   string(p.PeriodEnd),
		Options:     options,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.CreatedAt,
	}, nil
}

func (r *PollRepository) Create(ctx context.Context, p domain.Poll) error {
	model, err := fromDomainPoll(p)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm poll: inserir: %w", err)
	}
	return nil
}

func (r *PollRepository) FindByID(ctx context.Context, id domain.PollID) (domain.Poll, error) {
	var model pollModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Poll{}, domain.ErrNotFound
		}
		return domain.Poll{}, fmt.Errorf("gorm poll: buscar id: %w", err)
	}
	return model.toDomain()
}

var _ domain.PollRepository = (*PollRepository)(nil)
