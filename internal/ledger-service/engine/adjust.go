package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
)

// AdjustResult é o retorno de uma reprecificação de odds.
type AdjustResult struct {
	PreviousOdds float64
	CurrentOdds  float64
	ProfitLoss   float64
}

// AdjustOdds reprecifica uma aposta back/lay aberta quando a odd cotada muda.
// O lucro/prejuízo realizado (stake*(nova-antiga) para back, o inverso para
// lay) entra no saldo e sai da exposição na hora. Não é liquidação: a aposta
// continua pendente e a operação pode repetir até a liquidação final.
func (l *Ledger) AdjustOdds(ctx context.Context, betID string, newOdds float64) (AdjustResult, error) {
	if newOdds <= 0 {
		return AdjustResult{}, liability.ErrInvalidBet
	}

	var out AdjustResult
	err := l.store.WithinTx(ctx, func(tx Tx) error {
		peek, err := tx.Bet(ctx, betID)
		if err != nil {
			return err
		}
		w, err := tx.LockWallet(ctx, peek.UserID)
		if err != nil {
			return err
		}
		b, err := tx.BetForUpdate(ctx, betID)
		if err != nil {
			return err
		}
		if b.SettlementStatus != liability.Pending {
			return ErrAlreadySettled
		}

		var profitLoss float64
		switch b.BetType {
		case liability.Back:
			profitLoss = b.Stake * (newOdds - b.OddValue)
		case liability.Lay:
			profitLoss = b.Stake * (b.OddValue - newOdds)
		default:
			return ErrNotAdjustable
		}

		if err := tx.ApplyWallet(ctx, w.ID, profitLoss, -profitLoss); err != nil {
			return err
		}
		if err := tx.SetOdds(ctx, betID, newOdds); err != nil {
			return err
		}

		out = AdjustResult{PreviousOdds: b.OddValue, CurrentOdds: newOdds, ProfitLoss: profitLoss}
		return nil
	})
	if err != nil {
		return AdjustResult{}, err
	}

	l.log.Info("odds adjusted",
		zap.String("betId", betID),
		zap.Float64("previousOdds", out.PreviousOdds),
		zap.Float64("currentOdds", out.CurrentOdds),
		zap.Float64("profitLoss", out.ProfitLoss),
	)
	return out, nil
}
