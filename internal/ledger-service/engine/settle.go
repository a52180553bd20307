package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
)

// SettleResult é o retorno da liquidação de uma aposta.
type SettleResult struct {
	UserID     string
	Status     liability.SettlementStatus
	WinAmount  float64
	LossAmount float64
}

// SettleBet resolve uma aposta pendente para yes (usuário ganha) ou no
// (usuário perde). Escopo é a linha da aposta, não a posição agregada do
// mercado: cada aposta liquida com os próprios potential_win/potential_loss.
//
// outcome yes: saldo do usuário += potential_win; exposição -= potential_loss.
// outcome no:  carteira da casa += potential_loss; exposição do usuário -= o mesmo.
func (l *Ledger) SettleBet(ctx context.Context, betID string, outcome liability.SettlementStatus) (SettleResult, error) {
	if outcome != liability.SettledYes && outcome != liability.SettledNo {
		return SettleResult{}, ErrInvalidOutcome
	}

	var out SettleResult
	err := l.store.WithinTx(ctx, func(tx Tx) error {
		// Leitura sem lock só para descobrir o dono; a carteira é sempre o
		// primeiro lock (mesma ordem da colocação) e o estado da aposta é
		// reconferido sob lock logo depois.
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

		switch outcome {
		case liability.SettledYes:
			if err := tx.ApplyWallet(ctx, w.ID, b.PotentialWin, -b.PotentialLoss); err != nil {
				return err
			}
			out.WinAmount = b.PotentialWin
		case liability.SettledNo:
			if err := tx.ApplyWallet(ctx, w.ID, 0, -b.PotentialLoss); err != nil {
				return err
			}
			// Lock da casa por último para não deadlockar com locks de
			// carteiras de usuário em liquidações concorrentes.
			house, err := tx.LockWallet(ctx, l.houseUserID)
			if err != nil {
				return err
			}
			if err := tx.ApplyWallet(ctx, house.ID, b.PotentialLoss, 0); err != nil {
				return err
			}
			out.LossAmount = b.PotentialLoss
		}

		out.UserID = b.UserID
		out.Status = outcome
		return tx.SetSettlement(ctx, betID, outcome)
	})
	if err != nil {
		return SettleResult{}, err
	}

	l.log.Info("bet settled",
		zap.String("betId", betID),
		zap.String("outcome", string(outcome)),
		zap.Float64("winAmount", out.WinAmount),
		zap.Float64("lossAmount", out.LossAmount),
	)
	return out, nil
}

// CancelResult é o retorno do cancelamento explícito de uma aposta.
type CancelResult struct {
	Status         liability.SettlementStatus
	ReturnedAmount float64
}

// CancelBet encerra uma aposta pendente devolvendo a responsabilidade
// recalculada da modalidade/odd/stake armazenados. Apostas já zeradas por
// compensação são apenas marcadas terminais, sem devolução.
func (l *Ledger) CancelBet(ctx context.Context, betID string) (CancelResult, error) {
	var out CancelResult
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

		if b.Stake > 0 && b.BetType != liability.Cancelled {
			freed, err := liability.Compute(b.BetType, b.Stake, b.OddValue)
			if err != nil {
				return err
			}
			if err := tx.ApplyWallet(ctx, w.ID, freed.Liability, -freed.Liability); err != nil {
				return err
			}
			out.ReturnedAmount = freed.Liability
		}

		out.Status = liability.StatusCancelled
		return tx.SetSettlement(ctx, betID, liability.StatusCancelled)
	})
	if err != nil {
		return CancelResult{}, err
	}

	l.log.Info("bet cancelled", zap.String("betId", betID), zap.Float64("returned", out.ReturnedAmount))
	return out, nil
}

// BetStatus retorna o estado corrente de uma aposta, sem lock.
func (l *Ledger) BetStatus(ctx context.Context, betID string) (liability.SettlementStatus, error) {
	b, err := l.store.BetByID(ctx, betID)
	if err != nil {
		return "", err
	}
	return b.SettlementStatus, nil
}
