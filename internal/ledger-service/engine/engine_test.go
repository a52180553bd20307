package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/ledger-service/engine"
	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
)

func newTestLedger(userIDs ...string) (*engine.Ledger, *memStore) {
	store := newMemStore()
	users := map[string]engine.User{"house": {ID: "house"}}
	store.addWallet("house", 0, 0)
	for _, id := range userIDs {
		users[id] = engine.User{ID: id, Role: "player"}
	}
	ledger := engine.New(zap.NewNop(), store, dirStub{users: users}, "house")
	return ledger, store
}

func place(t *testing.T, l *engine.Ledger, userID string, betType liability.BetType, stake, odds float64) engine.PlaceResult {
	t.Helper()
	res, err := l.PlaceBet(context.Background(), engine.PlaceInput{
		UserID:    userID,
		Stake:     stake,
		BetType:   betType,
		Odds:      odds,
		MarketID:  "m1",
		Selection: "runs-45",
	})
	require.NoError(t, err)
	return res
}

func TestPlaceBet_YesSessionOdd(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 2000, 0)

	res := place(t, l, "u1", liability.Yes, 1000, 50)

	require.Equal(t, 1500.0, res.NewBalance)
	require.Equal(t, 500.0, res.NewExposure)
	require.Equal(t, 500.0, res.Liability)
	require.Equal(t, 1000.0, res.PotentialWin)
	require.Equal(t, 500.0, res.PotentialLoss)
	require.NotEmpty(t, res.BetID)

	b := store.bets[res.BetID]
	require.Equal(t, liability.Pending, b.SettlementStatus)
	require.Equal(t, liability.Yes, b.BetType)
	require.Equal(t, 1000.0, b.Stake)
}

func TestPlaceBet_BackMovesLiabilityToExposure(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 5000, 0)

	res := place(t, l, "u1", liability.Back, 1000, 2)

	require.Equal(t, 4000.0, res.NewBalance)
	require.Equal(t, 1000.0, res.NewExposure)
	require.Equal(t, 1000.0, res.Liability)
	require.Equal(t, 1020.0, res.PotentialWin)
}

func TestPlaceBet_LayLiabilityScalesWithOdds(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 5000, 0)

	res := place(t, l, "u1", liability.Lay, 1000, 3)

	// (3-1) * 1000
	require.Equal(t, 2000.0, res.Liability)
	require.Equal(t, 3000.0, res.NewBalance)
	require.Equal(t, 2000.0, res.NewExposure)
}

func TestPlaceBet_UserNotFound(t *testing.T) {
	l, _ := newTestLedger("u1")

	_, err := l.PlaceBet(context.Background(), engine.PlaceInput{
		UserID: "ghost", Stake: 100, BetType: liability.Yes, Odds: 50,
		MarketID: "m1", Selection: "runs-45",
	})
	require.ErrorIs(t, err, engine.ErrUserNotFound)
}

func TestPlaceBet_InsufficientBalance(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 100, 0)

	_, err := l.PlaceBet(context.Background(), engine.PlaceInput{
		UserID: "u1", Stake: 1000, BetType: liability.Yes, Odds: 50,
		MarketID: "m1", Selection: "runs-45",
	})

	var insufficient *engine.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 500.0, insufficient.Required)
	require.Equal(t, 100.0, insufficient.Current)

	// rollback completo: nada muda
	w, _ := store.WalletByUser(context.Background(), "u1")
	require.Equal(t, 100.0, w.CurrentBalance)
	require.Equal(t, 0.0, w.CurrentExposure)
	require.Empty(t, store.bets)
}

func TestPlaceBet_InvalidType(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 1000, 0)

	_, err := l.PlaceBet(context.Background(), engine.PlaceInput{
		UserID: "u1", Stake: 100, BetType: liability.Cancelled, Odds: 2,
		MarketID: "m1", Selection: "runs-45",
	})
	require.ErrorIs(t, err, liability.ErrInvalidBet)
}

func TestPlaceBet_FullOffsetCancelsOpposite(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 5000, 0)

	first := place(t, l, "u1", liability.Back, 1000, 2)
	require.Equal(t, 1000.0, first.NewExposure)

	second := place(t, l, "u1", liability.Lay, 1000, 2)

	// casou tudo: sem linha nova, sem responsabilidade nova
	require.Empty(t, second.BetID)
	require.Equal(t, 0.0, second.Liability)
	require.Equal(t, 0.0, second.NewExposure)
	require.Equal(t, 5000.0, second.NewBalance)

	back := store.bets[first.BetID]
	require.Equal(t, liability.Cancelled, back.BetType)
	require.Equal(t, 0.0, back.Stake)
	require.Equal(t, 0.0, back.PotentialWin)
	require.Equal(t, liability.Pending, back.SettlementStatus)
}

func TestPlaceBet_PartialOffsetReducesProportionally(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 5000, 0)

	first := place(t, l, "u1", liability.Back, 1000, 2)

	second := place(t, l, "u1", liability.Lay, 400, 2)
	require.Empty(t, second.BetID)
	require.Equal(t, 600.0, second.NewExposure)
	require.Equal(t, 4400.0, second.NewBalance)

	back := store.bets[first.BetID]
	require.Equal(t, liability.Back, back.BetType)
	require.Equal(t, 600.0, back.Stake)
	require.InDelta(t, 612.0, back.PotentialWin, 1e-9) // 1020 * 0.6
	require.InDelta(t, 600.0, back.PotentialLoss, 1e-9)
}

func TestPlaceBet_ResidualAfterOffsetGetsNewRow(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 5000, 0)

	first := place(t, l, "u1", liability.Back, 600, 2)
	require.Equal(t, 600.0, first.NewExposure)

	second := place(t, l, "u1", liability.Lay, 1000, 2)

	require.NotEmpty(t, second.BetID)
	require.Equal(t, 400.0, second.Liability) // (2-1) * 400 residual
	require.Equal(t, 400.0, second.NewExposure)

	require.Equal(t, liability.Cancelled, store.bets[first.BetID].BetType)
	require.Equal(t, 400.0, store.bets[second.BetID].Stake)
}

func TestPlaceBet_OffsetIsExposureNeutralAcrossYesNo(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 2000, 0)

	place(t, l, "u1", liability.Yes, 1000, 50)

	// o reembolso usa a odd da aposta oposta (50), não a nova (40)
	res := place(t, l, "u1", liability.No, 1000, 40)

	require.Equal(t, 0.0, res.NewExposure)
	require.Equal(t, 2000.0, res.NewBalance)
	require.Empty(t, res.BetID)
}

func TestPlaceBet_OffsetConsumesOldestFirst(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 10000, 0)

	oldest := place(t, l, "u1", liability.Back, 300, 2)
	newest := place(t, l, "u1", liability.Back, 300, 2)

	place(t, l, "u1", liability.Lay, 400, 2)

	require.Equal(t, liability.Cancelled, store.bets[oldest.BetID].BetType)
	require.Equal(t, liability.Back, store.bets[newest.BetID].BetType)
	require.Equal(t, 200.0, store.bets[newest.BetID].Stake)
}

func TestPlaceBet_NeverMatchesOtherSelections(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 10000, 0)

	first, err := l.PlaceBet(context.Background(), engine.PlaceInput{
		UserID: "u1", Stake: 500, BetType: liability.Back, Odds: 2,
		MarketID: "m1", Selection: "runs-45",
	})
	require.NoError(t, err)

	second, err := l.PlaceBet(context.Background(), engine.PlaceInput{
		UserID: "u1", Stake: 500, BetType: liability.Lay, Odds: 2,
		MarketID: "m1", Selection: "runs-50",
	})
	require.NoError(t, err)

	// seleções distintas não compensam
	require.Equal(t, liability.Back, store.bets[first.BetID].BetType)
	require.NotEmpty(t, second.BetID)
	require.Equal(t, 1000.0, second.NewExposure)
}

// Conservação da carteira: colocação só move dinheiro entre saldo e
// exposição, nunca cria nem some com valor.
func TestPlaceBet_WalletConservation(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 10000, 0)

	steps := []struct {
		betType liability.BetType
		stake   float64
		odds    float64
	}{
		{liability.Back, 1000, 2},
		{liability.Lay, 400, 2},
		{liability.Lay, 900, 3},
		{liability.Yes, 500, 60},
		{liability.No, 700, 60},
		{liability.Back, 250, 1.8},
	}

	for _, st := range steps {
		res := place(t, l, "u1", st.betType, st.stake, st.odds)
		require.InDelta(t, 10000.0, res.NewBalance+res.NewExposure, 1e-9,
			"balance %v + exposure %v deve conservar o total", res.NewBalance, res.NewExposure)
	}
}

func TestDeposit_CreditsBalanceOnly(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 100, 250)

	w, err := l.Deposit(context.Background(), "u1", 400)
	require.NoError(t, err)
	require.Equal(t, 500.0, w.CurrentBalance)
	require.Equal(t, 250.0, w.CurrentExposure)
}

func TestWalletDetails(t *testing.T) {
	l, store := newTestLedger("u1")
	store.addWallet("u1", 123, 45)

	w, err := l.WalletDetails(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 123.0, w.CurrentBalance)
	require.Equal(t, 45.0, w.CurrentExposure)

	_, err = l.WalletDetails(context.Background(), "ghost")
	require.ErrorIs(t, err, engine.ErrUserNotFound)
}
