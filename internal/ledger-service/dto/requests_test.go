package dto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radieske/wager-ledger/internal/ledger-service/dto"
	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
)

func validPlace() dto.PlaceBetRequest {
	return dto.PlaceBetRequest{
		UserID:    "u1",
		Stake:     1000,
		BetType:   "yes",
		YesOdd:    50,
		MarketID:  "m1",
		Selection: "runs-45",
	}
}

func TestPlaceBetRequest_ResolvesOddPerType(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*dto.PlaceBetRequest)
		wantType liability.BetType
		wantOdd  float64
	}{
		{"yes uses yes_odd", func(r *dto.PlaceBetRequest) {}, liability.Yes, 50},
		{"no uses no_odd", func(r *dto.PlaceBetRequest) { r.BetType = "no"; r.NoOdd = 80 }, liability.No, 80},
		{"back uses odds", func(r *dto.PlaceBetRequest) { r.BetType = "back"; r.Odds = 1.9 }, liability.Back, 1.9},
		{"lay uses odds", func(r *dto.PlaceBetRequest) { r.BetType = "lay"; r.Odds = 2.4 }, liability.Lay, 2.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPlace()
			tt.mutate(&req)
			bt, odd, err := req.Validate()
			require.NoError(t, err)
			require.Equal(t, tt.wantType, bt)
			require.Equal(t, tt.wantOdd, odd)
		})
	}
}

func TestPlaceBetRequest_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.PlaceBetRequest)
	}{
		{"missing user", func(r *dto.PlaceBetRequest) { r.UserID = "" }},
		{"missing market", func(r *dto.PlaceBetRequest) { r.MarketID = "" }},
		{"missing selection", func(r *dto.PlaceBetRequest) { r.Selection = "" }},
		{"zero stake", func(r *dto.PlaceBetRequest) { r.Stake = 0 }},
		{"negative stake", func(r *dto.PlaceBetRequest) { r.Stake = -10 }},
		{"unknown type", func(r *dto.PlaceBetRequest) { r.BetType = "parlay" }},
		{"cancelled type", func(r *dto.PlaceBetRequest) { r.BetType = "cancelled" }},
		{"yes without yes_odd", func(r *dto.PlaceBetRequest) { r.YesOdd = 0 }},
		{"back without odds", func(r *dto.PlaceBetRequest) { r.BetType = "back"; r.Odds = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPlace()
			tt.mutate(&req)
			_, _, err := req.Validate()
			require.ErrorIs(t, err, liability.ErrInvalidBet)
		})
	}
}

func TestSettleBetRequest_Validate(t *testing.T) {
	out, err := (&dto.SettleBetRequest{BetID: "b1", Outcome: "yes"}).Validate()
	require.NoError(t, err)
	require.Equal(t, liability.SettledYes, out)

	out, err = (&dto.SettleBetRequest{BetID: "b1", Outcome: "no"}).Validate()
	require.NoError(t, err)
	require.Equal(t, liability.SettledNo, out)

	_, err = (&dto.SettleBetRequest{BetID: "", Outcome: "yes"}).Validate()
	require.ErrorIs(t, err, liability.ErrInvalidBet)

	_, err = (&dto.SettleBetRequest{BetID: "b1", Outcome: "pending"}).Validate()
	require.ErrorIs(t, err, liability.ErrInvalidBet)

	_, err = (&dto.SettleBetRequest{BetID: "b1", Outcome: "cancelled"}).Validate()
	require.ErrorIs(t, err, liability.ErrInvalidBet)
}

func TestSimpleRequests_Validate(t *testing.T) {
	require.NoError(t, (&dto.CancelBetRequest{BetID: "b1"}).Validate())
	require.Error(t, (&dto.CancelBetRequest{}).Validate())

	require.NoError(t, (&dto.AdjustOddsRequest{BetID: "b1", NewOdds: 2.2}).Validate())
	require.Error(t, (&dto.AdjustOddsRequest{BetID: "b1"}).Validate())
	require.Error(t, (&dto.AdjustOddsRequest{NewOdds: 2.2}).Validate())

	require.NoError(t, (&dto.DepositRequest{UserID: "u1", Amount: 100}).Validate())
	require.Error(t, (&dto.DepositRequest{UserID: "u1", Amount: 0}).Validate())
	require.Error(t, (&dto.DepositRequest{Amount: 10}).Validate())
}
