package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
	"github.com/radieske/wager-ledger/internal/ledger-service/repo"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrAlreadySettled = errors.New("bet already settled")
	ErrNotAdjustable  = errors.New("odds adjustment applies to back/lay bets only")
	ErrInvalidOutcome = errors.New("outcome must be yes or no")
)

// InsufficientBalanceError reporta saldo exigido vs. disponível para que o
// caller possa reagir (ex.: sugerir depósito).
type InsufficientBalanceError struct {
	Required float64
	Current  float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %.2f, current %.2f", e.Required, e.Current)
}

// User é a identidade resolvida pelo diretório de usuários.
type User struct {
	ID   string
	Role string
}

// UserDirectory resolve user_id para a identidade interna. Colaborador
// externo (subsistema de auth/usuários); ausência vira ErrUserNotFound.
type UserDirectory interface {
	Resolve(ctx context.Context, userID string) (User, error)
}

// Ledger é o motor de exposição de carteira e liquidação de apostas.
// Toda operação mutante roda numa única transação com lock pessimista na(s)
// carteira(s) envolvida(s); a carteira da casa é sempre o último lock.
type Ledger struct {
	log         *zap.Logger
	store       Store
	users       UserDirectory
	houseUserID string
}

func New(log *zap.Logger, store Store, users UserDirectory, houseUserID string) *Ledger {
	return &Ledger{log: log, store: store, users: users, houseUserID: houseUserID}
}

// PlaceInput é a entrada já validada de uma colocação de aposta.
// Odds é o valor aplicável ao tipo (yes_odd/no_odd para yes/no, odds para back/lay).
type PlaceInput struct {
	UserID    string
	Stake     float64
	BetType   liability.BetType
	Odds      float64
	MarketID  string
	Selection string
	Title     string
}

// PlaceResult é o retorno de uma colocação. BetID fica vazio quando a aposta
// foi totalmente consumida pela compensação e nenhuma linha nova foi criada.
type PlaceResult struct {
	BetID         string
	NewBalance    float64
	NewExposure   float64
	Liability     float64
	PotentialWin  float64
	PotentialLoss float64
}

// PlaceBet orquestra a colocação de uma aposta: resolve o usuário, trava a
// carteira, pré-valida o saldo, compensa apostas opostas abertas, insere a
// aposta residual e financia a responsabilidade, tudo numa transação.
func (l *Ledger) PlaceBet(ctx context.Context, in PlaceInput) (PlaceResult, error) {
	if !liability.Placeable(in.BetType) || in.Stake <= 0 {
		return PlaceResult{}, liability.ErrInvalidBet
	}

	user, err := l.users.Resolve(ctx, in.UserID)
	if err != nil {
		return PlaceResult{}, err
	}

	var out PlaceResult
	err = l.store.WithinTx(ctx, func(tx Tx) error {
		w, err := tx.LockWallet(ctx, user.ID)
		if err != nil {
			return err
		}

		calc, err := liability.Compute(in.BetType, in.Stake, in.Odds)
		if err != nil {
			return err
		}

		// Pré-checagem apenas: o financiamento real acontece depois da
		// compensação, que pode liberar saldo.
		if w.CurrentBalance < calc.Liability {
			return &InsufficientBalanceError{Required: calc.Liability, Current: w.CurrentBalance}
		}

		off, err := l.offsetOpposing(ctx, tx, user.ID, in.MarketID, in.Selection, in.BetType, in.Stake)
		if err != nil {
			return err
		}

		balance := w.CurrentBalance + off.Refund
		exposure := w.CurrentExposure - off.Refund

		var funded liability.Result
		if off.Remaining > 0 {
			funded, err = liability.Compute(in.BetType, off.Remaining, in.Odds)
			if err != nil {
				return err
			}
			if balance < funded.Liability {
				return &InsufficientBalanceError{Required: funded.Liability, Current: balance}
			}

			out.BetID, err = tx.InsertBet(ctx, &repo.Bet{
				UserID:        user.ID,
				MarketID:      in.MarketID,
				Selection:     in.Selection,
				Title:         in.Title,
				BetType:       in.BetType,
				OddValue:      in.Odds,
				Stake:         off.Remaining,
				PotentialWin:  funded.PotentialWin,
				PotentialLoss: funded.PotentialLoss,
			})
			if err != nil {
				return err
			}

			// Financia a responsabilidade residual: o reembolso da
			// compensação já voltou para o saldo, então o débito sai
			// sempre do saldo e entra na exposição (soma constante).
			balance -= funded.Liability
			exposure += funded.Liability
		}

		if err := tx.ApplyWallet(ctx, w.ID, balance-w.CurrentBalance, exposure-w.CurrentExposure); err != nil {
			return err
		}

		out.NewBalance = balance
		out.NewExposure = exposure
		out.Liability = funded.Liability
		out.PotentialWin = funded.PotentialWin
		out.PotentialLoss = funded.PotentialLoss
		return nil
	})
	if err != nil {
		return PlaceResult{}, err
	}

	l.log.Info("bet placed",
		zap.String("userId", user.ID),
		zap.String("marketId", in.MarketID),
		zap.String("selection", in.Selection),
		zap.String("betType", string(in.BetType)),
		zap.String("betId", out.BetID),
		zap.Float64("liability", out.Liability),
	)
	return out, nil
}

// WalletDetails retorna saldo e exposição correntes em leitura consistente.
func (l *Ledger) WalletDetails(ctx context.Context, userID string) (*repo.Wallet, error) {
	user, err := l.users.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return l.store.WalletByUser(ctx, user.ID)
}

// Deposit credita saldo na carteira. Subsistema de depósito: nunca toca a
// exposição.
func (l *Ledger) Deposit(ctx context.Context, userID string, amount float64) (*repo.Wallet, error) {
	if amount <= 0 {
		return nil, liability.ErrInvalidBet
	}
	user, err := l.users.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out *repo.Wallet
	err = l.store.WithinTx(ctx, func(tx Tx) error {
		w, err := tx.LockWallet(ctx, user.ID)
		if err != nil {
			return err
		}
		if err := tx.ApplyWallet(ctx, w.ID, amount, 0); err != nil {
			return err
		}
		w.PrevBalance = w.CurrentBalance
		w.PrevExposure = w.CurrentExposure
		w.CurrentBalance += amount
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
