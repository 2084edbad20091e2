package domain

import (
	"encoding/json"
	"time"
)

type (
	PollID          string
	ActivityEventID string
)

// VoteType define se a enquete trabalha com dias inteiros ou com horários.
type VoteType string

const (
	VoteTypeDate     VoteType = "date"
	VoteTypeDatetime VoteType = "datetime"
)

func (v VoteType) Valid() bool {
	return v == VoteTypeDate || v == VoteTypeDatetime
}

type Poll struct {
	ID          PollID    `json:"id"`
	Title       string    `json:"title"`
	VoteType    VoteType  `json:"voteType"`
	PeriodStart Date      `json:"periodStartDate"`
	PeriodEnd   Date      `json:"periodEndDate"`
	Options     Ledger    `json:"options"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Option é um dia candidato; Votes funciona como conjunto de apelidos.
type Option struct {
	Date      Date       `json:"date"`
	Label     string     `json:"label"`
	Votes     []string   `json:"votes"`
	TimeSlots []TimeSlot `json:"timeSlots,omitempty"`
}

// MarshalJSON mantém "timeSlots": [] nas enquetes datetime; só a lista nil é omitida.
func (o Option) MarshalJSON() ([]byte, error) {
	type semSlots struct {
		Date  Date     `json:"date"`
		Label string   `json:"label"`
		Votes []string `json:"votes"`
	}
	type comSlots struct {
		semSlots
		TimeSlots []TimeSlot `json:"timeSlots"`
	}

	base := semSlots{Date: o.Date, Label: o.Label, Votes: o.Votes}
	if base.Votes == nil {
		base.Votes = []string{}
	}
	if o.TimeSlots == nil {
		return json.Marshal(base)
	}
	return json.Marshal(comSlots{semSlots: base, TimeSlots: o.TimeSlots})
}

// TimeSlot fica reservado para enquetes datetime; nenhuma operação preenche ainda.
type TimeSlot struct {
	Time  string   `json:"time"`
	Votes []string `json:"votes"`
}

type Participant struct {
	PollID         PollID
	Nickname       string
	PassphraseHash string
	SelectedDates  []Date
	CreatedAt      time.Time
	LastVotedAt    *time.Time
}

type ActivityKind string

const (
	ActivityRegistered ActivityKind = "registered"
	ActivityVoted      ActivityKind = "voted"
)

// ActivityEvent registra o que aconteceu na enquete, sem dados de credencial.
type ActivityEvent struct {
	ID         ActivityEventID `json:"id"`
	PollID     PollID          `json:"pollId"`
	Nickname   string          `json:"nickname"`
	Kind       ActivityKind    `json:"kind"`
	DatesCount int             `json:"datesCount"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type PollStats struct {
	PollID       PollID `json:"pollId"`
	Participants int64  `json:"participants"`
	Submissions  int64  `json:"submissions"`
}
