package engine_test

import (
	"context"
	"fmt"
	"time"

	"github.com/radieske/wager-ledger/internal/ledger-service/engine"
	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
	"github.com/radieske/wager-ledger/internal/ledger-service/repo"
)

// memStore implementa engine.Store em memória, com rollback por snapshot,
// para exercitar o motor sem Postgres.
type memStore struct {
	wallets map[string]*repo.Wallet // por userID
	bets    map[string]*repo.Bet
	order   []string // ids de apostas em ordem de criação (FIFO)
	seq     int
}

func newMemStore() *memStore {
	return &memStore{
		wallets: map[string]*repo.Wallet{},
		bets:    map[string]*repo.Bet{},
	}
}

func (s *memStore) addWallet(userID string, balance, exposure float64) {
	s.wallets[userID] = &repo.Wallet{
		ID:              "w-" + userID,
		UserID:          userID,
		CurrentBalance:  balance,
		CurrentExposure: exposure,
	}
}

func cloneWallet(w *repo.Wallet) *repo.Wallet { c := *w; return &c }
func cloneBet(b *repo.Bet) *repo.Bet          { c := *b; return &c }

func (s *memStore) WithinTx(_ context.Context, fn func(tx engine.Tx) error) error {
	snapW := map[string]*repo.Wallet{}
	for k, v := range s.wallets {
		snapW[k] = cloneWallet(v)
	}
	snapB := map[string]*repo.Bet{}
	for k, v := range s.bets {
		snapB[k] = cloneBet(v)
	}
	snapOrder := append([]string(nil), s.order...)
	snapSeq := s.seq

	if err := fn(&memTx{s: s}); err != nil {
		s.wallets, s.bets, s.order, s.seq = snapW, snapB, snapOrder, snapSeq
		return err
	}
	return nil
}

func (s *memStore) WalletByUser(_ context.Context, userID string) (*repo.Wallet, error) {
	w, ok := s.wallets[userID]
	if !ok {
		return nil, repo.ErrWalletNotFound
	}
	return cloneWallet(w), nil
}

func (s *memStore) BetByID(_ context.Context, betID string) (*repo.Bet, error) {
	b, ok := s.bets[betID]
	if !ok {
		return nil, repo.ErrBetNotFound
	}
	return cloneBet(b), nil
}

type memTx struct{ s *memStore }

func (t *memTx) LockWallet(_ context.Context, userID string) (*repo.Wallet, error) {
	w, ok := t.s.wallets[userID]
	if !ok {
		return nil, repo.ErrWalletNotFound
	}
	return cloneWallet(w), nil
}

func (t *memTx) ApplyWallet(_ context.Context, walletID string, dBalance, dExposure float64) error {
	for _, w := range t.s.wallets {
		if w.ID == walletID {
			w.PrevBalance = w.CurrentBalance
			w.PrevExposure = w.CurrentExposure
			w.CurrentBalance += dBalance
			w.CurrentExposure += dExposure
			w.UpdatedAt = time.Now()
			return nil
		}
	}
	return repo.ErrWalletNotFound
}

func (t *memTx) InsertBet(_ context.Context, b *repo.Bet) (string, error) {
	t.s.seq++
	c := cloneBet(b)
	c.ID = fmt.Sprintf("bet-%d", t.s.seq)
	c.SettlementStatus = liability.Pending
	c.CreatedAt = time.Now().Add(time.Duration(t.s.seq) * time.Millisecond)
	t.s.bets[c.ID] = c
	t.s.order = append(t.s.order, c.ID)
	return c.ID, nil
}

func (t *memTx) Bet(ctx context.Context, betID string) (*repo.Bet, error) {
	return t.s.BetByID(ctx, betID)
}

func (t *memTx) BetForUpdate(ctx context.Context, betID string) (*repo.Bet, error) {
	return t.s.BetByID(ctx, betID)
}

func (t *memTx) OpenOpposing(_ context.Context, userID, marketID, selection string, opposite liability.BetType) ([]*repo.Bet, error) {
	var out []*repo.Bet
	for _, id := range t.s.order {
		b := t.s.bets[id]
		if b.UserID != userID || b.MarketID != marketID || b.Selection != selection {
			continue
		}
		if b.BetType != opposite || b.SettlementStatus != liability.Pending || b.Stake <= 0 {
			continue
		}
		out = append(out, cloneBet(b))
	}
	return out, nil
}

func (t *memTx) ReduceBet(_ context.Context, betID string, stake, potentialWin, potentialLoss float64) error {
	b, ok := t.s.bets[betID]
	if !ok {
		return repo.ErrBetNotFound
	}
	b.Stake = stake
	b.PotentialWin = potentialWin
	b.PotentialLoss = potentialLoss
	if stake <= 0 {
		b.BetType = liability.Cancelled
	}
	b.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) SetOdds(_ context.Context, betID string, odds float64) error {
	b, ok := t.s.bets[betID]
	if !ok {
		return repo.ErrBetNotFound
	}
	b.OddValue = odds
	b.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) SetSettlement(_ context.Context, betID string, status liability.SettlementStatus) error {
	b, ok := t.s.bets[betID]
	if !ok {
		return repo.ErrBetNotFound
	}
	b.SettlementStatus = status
	b.UpdatedAt = time.Now()
	return nil
}

// dirStub resolve usuários de um mapa fixo.
type dirStub struct{ users map[string]engine.User }

func (d dirStub) Resolve(_ context.Context, userID string) (engine.User, error) {
	u, ok := d.users[userID]
	if !ok {
		return engine.User{}, engine.ErrUserNotFound
	}
	return u, nil
}
