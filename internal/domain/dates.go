package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("data invalida")

// Date é um dia de calendário no formato YYYY-MM-DD, sem fuso nem horário.
type Date string

// ParseDate aceita YYYY-MM-DD ou um timestamp RFC 3339; o horário é descartado
// e fica o dia de calendário como foi escrito, sem conversão de fuso.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: vazia", ErrInvalidDate)
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return DateOf(t), nil
}

func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

func (d Date) String() string { return string(d) }

func (d Date) Valid() bool {
	_, err := d.Time()
	return err == nil
}

// Time devolve a meia-noite UTC do dia.
func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}
	return t, nil
}

// DateRange lista os dias de start até end (inclusive) em ordem cronológica.
// A iteração roda sobre meia-noite UTC para não escorregar em trocas de horário.
func DateRange(start, end Date) ([]Date, error) {
	from, err := start.Time()
	if err != nil {
		return nil, err
	}
	to, err := end.Time()
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: fim %s antes do inicio %s", ErrInvalidDate, end, start)
	}

	dias := make([]Date, 0, int(to.Sub(from).Hours()/24)+1)
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, 1) {
		dias = append(dias, DateOf(cur))
	}
	return dias, nil
}

var (
	nomesMeses = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}
	nomesDias  = [...]string{"dom", "seg", "ter", "qua", "qui", "sex", "sab"}
)

// Label monta o rótulo exibido no calendário, ex: "10 de jun (ter)".
func (d Date) Label() string {
	t, err := d.Time()
	if err != nil {
		return string(d)
	}
	return fmt.Sprintf("%d de %s (%s)", t.Day(), nomesMeses[t.Month()-1], nomesDias[t.Weekday()])
}
