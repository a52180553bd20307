package liability

import (
	"errors"
	"math"
)

// BetType identifica a modalidade da aposta. "cancelled" marca apostas cujo
// stake chegou a zero por compensação e não representa uma modalidade apostável.
type BetType string

const (
	Yes       BetType = "yes"
	No        BetType = "no"
	Back      BetType = "back"
	Lay       BetType = "lay"
	Cancelled BetType = "cancelled"
)

// SettlementStatus é o estado terminal (ou pendente) de uma aposta.
// Transiciona exatamente uma vez para fora de "pending" e nunca reverte.
type SettlementStatus string

const (
	Pending         SettlementStatus = "pending"
	SettledYes      SettlementStatus = "yes"
	SettledNo       SettlementStatus = "no"
	StatusCancelled SettlementStatus = "cancelled"
)

var ErrInvalidBet = errors.New("invalid bet")

// Result é a saída do cálculo de responsabilidade de uma aposta.
type Result struct {
	Liability     float64
	PotentialWin  float64
	PotentialLoss float64
}

// Placeable informa se o tipo aceita novas apostas.
func Placeable(t BetType) bool {
	switch t {
	case Yes, No, Back, Lay:
		return true
	}
	return false
}

// Opposite retorna o tipo que compensa t: yes<->no, back<->lay.
func Opposite(t BetType) (BetType, bool) {
	switch t {
	case Yes:
		return No, true
	case No:
		return Yes, true
	case Back:
		return Lay, true
	case Lay:
		return Back, true
	}
	return "", false
}

// Compute calcula (liability, potential_win, potential_loss) para um stake na
// odd informada. Função pura: é usada pelo orquestrador na entrada de uma
// aposta e pelo compensador ao reavaliar o stake residual não casado.
//
//	yes/no: unit = stake/100 * odd; liability = unit; win = 2*unit; loss = unit
//	back:   liability = stake; win = stake + odds*stake/100; loss = stake
//	lay:    liability = (odds-1)*stake; win = stake + odds*stake/100; loss = stake
func Compute(t BetType, stake, odds float64) (Result, error) {
	if stake < 0 || math.IsNaN(stake) {
		return Result{}, ErrInvalidBet
	}
	if odds <= 0 || math.IsNaN(odds) || math.IsInf(odds, 0) {
		return Result{}, ErrInvalidBet
	}

	switch t {
	case Yes, No:
		unit := stake / 100 * odds
		return Result{Liability: unit, PotentialWin: unit * 2, PotentialLoss: unit}, nil
	case Back:
		return Result{
			Liability:     stake,
			PotentialWin:  stake + odds*(stake/100),
			PotentialLoss: stake,
		}, nil
	case Lay:
		return Result{
			Liability:     (odds - 1) * stake,
			PotentialWin:  stake + odds*(stake/100),
			PotentialLoss: stake,
		}, nil
	}
	return Result{}, ErrInvalidBet
}
