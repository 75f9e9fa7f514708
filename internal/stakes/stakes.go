package stakes

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOdds  = errors.New("odds must be > 1.0")
	ErrInvalidTotal = errors.New("total stake must be > 0")
)

// Split é o resultado de uma divisão de stake entre as pernas de uma
// oportunidade. Profits[i] é o lucro líquido caso a perna i vença.
type Split struct {
	Stakes  []float64
	Profits []float64
}

// Proportional divide o total proporcionalmente às probabilidades implícitas:
// stake_i = total * (1/odds_i) / Σ(1/odds_j). Garante lucro igual em todas as
// pernas, qualquer que seja o vencedor.
func Proportional(odds []float64, total float64) (Split, error) {
	if err := validate(odds, total); err != nil {
		return Split{}, err
	}

	impliedSum := 0.0
	for _, o := range odds {
		impliedSum += 1.0 / o
	}

	s := Split{
		Stakes:  make([]float64, len(odds)),
		Profits: make([]float64, len(odds)),
	}
	for i, o := range odds {
		s.Stakes[i] = total * (1.0 / o) / impliedSum
		s.Profits[i] = s.Stakes[i]*o - total
	}
	return s, nil
}

// Favour concentra o lucro na perna favorecida: cada perna não favorecida
// recebe exatamente o stake de empate (total/odds), e a favorecida absorve o
// restante. Se a favorecida vencer, o lucro é a margem inteira; senão ~0.
func Favour(odds []float64, total float64, favoured int) (Split, error) {
	if err := validate(odds, total); err != nil {
		return Split{}, err
	}
	if favoured < 0 || favoured >= len(odds) {
		return Split{}, fmt.Errorf("favoured leg %d out of range", favoured)
	}

	s := Split{
		Stakes:  make([]float64, len(odds)),
		Profits: make([]float64, len(odds)),
	}
	rest := total
	for i, o := range odds {
		if i == favoured {
			continue
		}
		s.Stakes[i] = total / o
		rest -= s.Stakes[i]
	}
	if rest <= 0 {
		return Split{}, fmt.Errorf("no stake left for favoured leg (implied sum >= 1)")
	}
	s.Stakes[favoured] = rest

	for i, o := range odds {
		s.Profits[i] = s.Stakes[i]*o - total
	}
	return s, nil
}

// MiddleSplit divide o total meio a meio entre as duas pernas de um middle.
func MiddleSplit(total float64) ([]float64, error) {
	if total <= 0 {
		return nil, ErrInvalidTotal
	}
	return []float64{total / 2.0, total / 2.0}, nil
}

func validate(odds []float64, total float64) error {
	if total <= 0 {
		return ErrInvalidTotal
	}
	if len(odds) < 2 {
		return fmt.Errorf("need at least 2 legs, got %d", len(odds))
	}
	for _, o := range odds {
		if o <= 1.0 {
			return ErrInvalidOdds
		}
	}
	return nil
}
