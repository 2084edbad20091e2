// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização.
package migrations

import (
	"fmt"
	"time"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Os structs abaixo congelam o schema de cada versão; não reaproveitar os modelos dos repositórios.

type pollV1 struct {
	ID          string         `gorm:"column:id;type:char(26);primaryKey"`
	Title       string         `gorm:"column:title;type:text;not null"`
	VoteType    string         `gorm:"column:vote_type;type:varchar(16);not null"`
	PeriodStart string         `gorm:"column:period_start;type:char(10);not null"`
	PeriodEnd   string         `gorm:"column:period_end;type:char(10);not null"`
	Options     datatypes.JSON `gorm:"column:options;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;not null"`
}

func (pollV1) TableName() string { return "polls" }

type participantV1 struct {
	PollID         string         `gorm:"column:poll_id;type:char(26);primaryKey"`
	Nickname       string         `gorm:"column:nickname;type:text;primaryKey"`
	PassphraseHash string         `gorm:"column:passphrase_hash;type:text;not null"`
	SelectedDates  datatypes.JSON `gorm:"column:selected_dates;not null"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null"`
	LastVotedAt    *time.Time     `gorm:"column:last_voted_at"`
}

func (participantV1) TableName() string { return "participants" }

type activityEventV1 struct {
	ID         string    `gorm:"column:id;type:char(26);primaryKey"`
	PollID     string    `gorm:"column:poll_id;type:char(26);not null;index:idx_activity_poll_occurred,priority:1"`
	Nickname   string    `gorm:"column:nickname;type:text;not null"`
	Kind       string    `gorm:"column:kind;type:varchar(16);not null"`
	DatesCount int       `gorm:"column:dates_count;not null;default:0"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null;index:idx_activity_poll_occurred,priority:2"`
}

func (activityEventV1) TableName() string { return "activity_events" }

func List() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202506010001_polls_participants",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&pollV1{}, &participantV1{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("participants", "polls")
			},
		},
		{
			ID: "202506150001_activity_events",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&activityEventV1{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("activity_events")
			},
		},
	}
}

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, List())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}

	return nil
}
