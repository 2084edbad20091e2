package domain

import (
	"fmt"
)

// Ledger é a lista ordenada de opções de uma enquete com seus votantes.
// As operações devolvem uma cópia nova e nunca alteram o receptor.
type Ledger []Option

// NewLedger cria uma opção por dia, com lista de votos vazia.
func NewLedger(dias []Date, voteType VoteType) Ledger {
	ledger := make(Ledger, len(dias))
	for i, dia := range dias {
		opt := Option{
			Date:  dia,
			Label: dia.Label(),
			Votes: []string{},
		}
		if voteType == VoteTypeDatetime {
			opt.TimeSlots = []TimeSlot{}
		}
		ledger[i] = opt
	}
	return ledger
}

// Validate rejeita documentos corrompidos: data invalida, dia repetido ou votante duplicado.
func (l Ledger) Validate() error {
	vistos := make(map[Date]struct{}, len(l))
	for i, opt := range l {
		if !opt.Date.Valid() {
			return fmt.Errorf("%w: opcao %d com data %q", ErrCorruptRecord, i, opt.Date)
		}
		if _, dup := vistos[opt.Date]; dup {
			return fmt.Errorf("%w: data %s repetida", ErrCorruptRecord, opt.Date)
		}
		vistos[opt.Date] = struct{}{}

		votantes := make(map[string]struct{}, len(opt.Votes))
		for _, nick := range opt.Votes {
			if nick == "" {
				return fmt.Errorf("%w: voto vazio na data %s", ErrCorruptRecord, opt.Date)
			}
			if _, dup := votantes[nick]; dup {
				return fmt.Errorf("%w: votante %q repetido na data %s", ErrCorruptRecord, nick, opt.Date)
			}
			votantes[nick] = struct{}{}
		}
	}
	return nil
}

// Retract remove o apelido de todas as opções.
func (l Ledger) Retract(nickname string) Ledger {
	out := l.clone()
	for i := range out {
		votes := out[i].Votes[:0]
		for _, v := range out[i].Votes {
			if v != nickname {
				votes = append(votes, v)
			}
		}
		out[i].Votes = votes
	}
	return out
}

// Apply adiciona o apelido nas opções cujas datas estão na seleção.
// Datas fora do ledger são ignoradas; o apelido nunca entra duas vezes.
func (l Ledger) Apply(nickname string, selecionadas []Date) Ledger {
	escolhidas := make(map[Date]struct{}, len(selecionadas))
	for _, d := range selecionadas {
		escolhidas[d] = struct{}{}
	}

	out := l.clone()
	for i := range out {
		if _, ok := escolhidas[out[i].Date]; !ok {
			continue
		}
		out[i].Votes = appendUnique(out[i].Votes, nickname)
	}
	return out
}

// Replace troca a pegada inteira do participante pela seleção nova.
func (l Ledger) Replace(nickname string, selecionadas []Date) Ledger {
	return l.Retract(nickname).Apply(nickname, selecionadas)
}

// Footprint lista as datas em que o apelido aparece, na ordem do ledger.
func (l Ledger) Footprint(nickname string) []Date {
	var dias []Date
	for _, opt := range l {
		for _, v := range opt.Votes {
			if v == nickname {
				dias = append(dias, opt.Date)
				break
			}
		}
	}
	return dias
}

func (l Ledger) clone() Ledger {
	out := make(Ledger, len(l))
	for i, opt := range l {
		cp := opt
		cp.Votes = append(make([]string, 0, len(opt.Votes)+1), opt.Votes...)
		if opt.TimeSlots != nil {
			cp.TimeSlots = make([]TimeSlot, len(opt.TimeSlots))
			for j, slot := range opt.TimeSlots {
				cp.TimeSlots[j] = TimeSlot{Time: slot.Time, Votes: append([]string{}, slot.Votes...)}
			}
		}
		out[i] = cp
	}
	return out
}

func appendUnique(votes []string, nickname string) []string {
	for _, v := range votes {
		if v == nickname {
			return votes
		}
	}
	return append(votes, nickname)
}
