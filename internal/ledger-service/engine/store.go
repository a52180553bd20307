package engine

import (
	"context"

	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
	"github.com/radieske/wager-ledger/internal/ledger-service/repo"
)

// Store é o contrato de persistência consumido pelo motor. O escopo
// transacional é sempre uma closure: o caller não tem como commitar parcial.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	WalletByUser(ctx context.Context, userID string) (*repo.Wallet, error)
	BetByID(ctx context.Context, betID string) (*repo.Bet, error)
}

// Tx reúne as operações de carteira e de aposta disponíveis dentro de uma
// transação. Toda leitura usada para decidir uma mutação acontece sob o mesmo
// lock que protege a escrita.
type Tx interface {
	LockWallet(ctx context.Context, userID string) (*repo.Wallet, error)
	ApplyWallet(ctx context.Context, walletID string, dBalance, dExposure float64) error

	InsertBet(ctx context.Context, b *repo.Bet) (string, error)
	Bet(ctx context.Context, betID string) (*repo.Bet, error)
	BetForUpdate(ctx context.Context, betID string) (*repo.Bet, error)
	OpenOpposing(ctx context.Context, userID, marketID, selection string, opposite liability.BetType) ([]*repo.Bet, error)
	ReduceBet(ctx context.Context, betID string, stake, potentialWin, potentialLoss float64) error
	SetOdds(ctx context.Context, betID string, odds float64) error
	SetSettlement(ctx context.Context, betID string, status liability.SettlementStatus) error
}

// pgStore adapta repo.Postgres às interfaces acima.
type pgStore struct{ pg *repo.Postgres }

// NewStore embrulha o repositório Postgres como Store do motor.
func NewStore(pg *repo.Postgres) Store { return pgStore{pg: pg} }

func (s pgStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.pg.WithinTx(ctx, func(t *repo.Tx) error { return fn(t) })
}

func (s pgStore) WalletByUser(ctx context.Context, userID string) (*repo.Wallet, error) {
	return s.pg.WalletByUser(ctx, userID)
}

func (s pgStore) BetByID(ctx context.Context, betID string) (*repo.Bet, error) {
	return s.pg.BetByID(ctx, betID)
}
