package engine

import (
	"context"

	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
)

// offsetOutcome resume o efeito da compensação de uma nova aposta.
type offsetOutcome struct {
	// Refund é o total liberado das apostas opostas consumidas: volta para o
	// saldo e sai da exposição.
	Refund float64
	// Remaining é o stake da nova aposta que sobrou sem casar e ainda precisa
	// de linha própria e de financiamento.
	Remaining float64
}

// offsetOpposing casa o stake de entrada contra as apostas abertas do tipo
// oposto do mesmo usuário em (market, selection), da mais antiga para a mais
// nova. Cada aposta consumida é reduzida proporcionalmente; stake zerado vira
// bet_type=cancelled.
func (l *Ledger) offsetOpposing(ctx context.Context, tx Tx, userID, marketID, selection string, t liability.BetType, stake float64) (offsetOutcome, error) {
	out := offsetOutcome{Remaining: stake}

	opposite, ok := liability.Opposite(t)
	if !ok {
		return out, liability.ErrInvalidBet
	}

	open, err := tx.OpenOpposing(ctx, userID, marketID, selection, opposite)
	if err != nil {
		return offsetOutcome{}, err
	}

	for _, b := range open {
		if out.Remaining <= 0 {
			break
		}
		offset := out.Remaining
		if b.Stake < offset {
			offset = b.Stake
		}

		// O reembolso vale o que o trecho consumido custou de
		// responsabilidade na modalidade e odd da aposta oposta.
		freed, err := liability.Compute(b.BetType, offset, b.OddValue)
		if err != nil {
			return offsetOutcome{}, err
		}
		out.Refund += freed.Liability

		scale := (b.Stake - offset) / b.Stake
		if err := tx.ReduceBet(ctx, b.ID, b.Stake-offset, b.PotentialWin*scale, b.PotentialLoss*scale); err != nil {
			return offsetOutcome{}, err
		}

		out.Remaining -= offset
	}

	return out, nil
}
