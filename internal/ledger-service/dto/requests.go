package dto

import (
	"fmt"

	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
)

// Requests da API do ledger. Cada operação tem um tipo próprio com Validate
// exaustivo: entrada malformada é rejeitada antes de qualquer lock.

type PlaceBetRequest struct {
	UserID    string  `json:"userId"`
	Stake     float64 `json:"stake"`
	BetType   string  `json:"bet_type"` // "yes" | "no" | "back" | "lay"
	YesOdd    float64 `json:"yes_odd,omitempty"`
	NoOdd     float64 `json:"no_odd,omitempty"`
	Odds      float64 `json:"odds,omitempty"` // back/lay
	MarketID  string  `json:"market_id"`
	Selection string  `json:"selection"` // ex: limiar de corridas do mercado
	Title     string  `json:"title,omitempty"`
}

// Validate confere os campos e resolve a odd aplicável à modalidade:
// yes_odd/no_odd para yes/no, odds para back/lay.
func (r *PlaceBetRequest) Validate() (liability.BetType, float64, error) {
	if r.UserID == "" {
		return "", 0, fmt.Errorf("%w: userId required", liability.ErrInvalidBet)
	}
	if r.MarketID == "" || r.Selection == "" {
		return "", 0, fmt.Errorf("%w: market_id and selection required", liability.ErrInvalidBet)
	}
	if r.Stake <= 0 {
		return "", 0, fmt.Errorf("%w: stake must be positive", liability.ErrInvalidBet)
	}

	t := liability.BetType(r.BetType)
	var odd float64
	switch t {
	case liability.Yes:
		odd = r.YesOdd
	case liability.No:
		odd = r.NoOdd
	case liability.Back, liability.Lay:
		odd = r.Odds
	default:
		return "", 0, fmt.Errorf("%w: unknown bet_type %q", liability.ErrInvalidBet, r.BetType)
	}
	if odd <= 0 {
		return "", 0, fmt.Errorf("%w: missing or non-positive odd for bet_type %q", liability.ErrInvalidBet, r.BetType)
	}
	return t, odd, nil
}

type SettleBetRequest struct {
	BetID   string `json:"betId"`
	Outcome string `json:"outcome"` // "yes" | "no"
}

func (r *SettleBetRequest) Validate() (liability.SettlementStatus, error) {
	if r.BetID == "" {
		return "", fmt.Errorf("%w: betId required", liability.ErrInvalidBet)
	}
	switch liability.SettlementStatus(r.Outcome) {
	case liability.SettledYes:
		return liability.SettledYes, nil
	case liability.SettledNo:
		return liability.SettledNo, nil
	}
	return "", fmt.Errorf("%w: outcome must be yes or no", liability.ErrInvalidBet)
}

type CancelBetRequest struct {
	BetID string `json:"betId"`
}

func (r *CancelBetRequest) Validate() error {
	if r.BetID == "" {
		return fmt.Errorf("%w: betId required", liability.ErrInvalidBet)
	}
	return nil
}

type AdjustOddsRequest struct {
	BetID   string  `json:"betId"`
	NewOdds float64 `json:"new_odds"`
}

func (r *AdjustOddsRequest) Validate() error {
	if r.BetID == "" {
		return fmt.Errorf("%w: betId required", liability.ErrInvalidBet)
	}
	if r.NewOdds <= 0 {
		return fmt.Errorf("%w: new_odds must be positive", liability.ErrInvalidBet)
	}
	return nil
}

type DepositRequest struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

func (r *DepositRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: userId required", liability.ErrInvalidBet)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", liability.ErrInvalidBet)
	}
	return nil
}
