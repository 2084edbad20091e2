package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/quando-pode/internal/domain"
)

// ActivityRepository guarda o histórico de registros e votos consumido pelo worker.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

type activityModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	PollID     string    `gorm:"column:poll_id"`
	Nickname   string    `gorm:"column:nickname"`
	Kind       string    `gorm:"column:kind"`
	DatesCount int       `gorm:"column:dates_count"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (activityModel) TableName() string {
	return "activity_events"
}

func (m activityModel) toDomain() domain.ActivityEvent {
	return domain.ActivityEvent{
		ID:         domain.ActivityEventID(m.ID),
		PollID:     domain.PollID(m.PollID),
		Nickname:   m.Nickname,
		Kind:       domain.ActivityKind(m.Kind),
		DatesCount: m.DatesCount,
		OccurredAt: m.OccurredAt,
	}
}

// Save ignora ids repetidos: reprocessar o mesmo evento da fila não duplica o histórico.
func (r *ActivityRepository) Save(ctx context.Context, ev domain.ActivityEvent) error {
	model := activityModel{
		ID:         string(ev.ID),
		PollID:     string(ev.PollID),
		Nickname:   ev.Nickname,
		Kind:       string(ev.Kind),
		DatesCount: ev.DatesCount,
		OccurredAt: ev.OccurredAt,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model)
	if res.Error != nil {
		return fmt.Errorf("gorm activity: inserir: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *ActivityRepository) ListRecent(ctx context.Context, pollID domain.PollID, limit int) ([]domain.ActivityEvent, error) {
	var models []activityModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", string(pollID)).
		Order("occurred_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm activity: listar: %w", err)
	}

	result := make([]domain.ActivityEvent, len(models))
	for i, m := range models {
		result[i] = m.toDomain()
	}
	return result, nil
}

// CountByKind agrega o histórico no Postgres; serve de fonte quando o Redis não tem os contadores.
func (r *ActivityRepository) CountByKind(ctx context.Context, pollID domain.PollID) (map[domain.ActivityKind]int64, error) {
	type resultado struct {
		Kind  string
		Total int64
	}
	var res []resultado
	if err := r.db.WithContext(ctx).
		Model(&activityModel{}).
		Select("kind AS kind, COUNT(*) AS total").
		Where("poll_id = ?", string(pollID)).
		Group("kind").
		Scan(&res).Error; err != nil {
		return nil, fmt.Errorf("gorm activity: contar: %w", err)
	}

	totais := make(map[domain.ActivityKind]int64, len(res))
	for _, item := range res {
		totais[domain.ActivityKind(item.Kind)] = item.Total
	}
	return totais, nil
}

var _ domain.ActivityRepository = (*ActivityRepository)(nil)
