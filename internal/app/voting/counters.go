package voting

import (
	"fmt"

	"github.com/marcelojr/quando-pode/internal/domain"
)

func CounterKeyParticipants(id domain.PollID) string {
	return fmt.Sprintf("poll:%s:participants", id)
}

func CounterKeySubmissions(id domain.PollID) string {
	return fmt.Sprintf("poll:%s:submissions", id)
}

// CounterKeyFor devolve a chave incrementada por cada tipo de evento.
func CounterKeyFor(ev domain.ActivityEvent) (string, bool) {
	switch ev.Kind {
	case domain.ActivityRegistered:
		return CounterKeyParticipants(ev.PollID), true
	case domain.ActivityVoted:
		return CounterKeySubmissions(ev.PollID), true
	default:
		return "", false
	}
}
