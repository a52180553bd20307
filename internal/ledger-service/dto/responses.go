package dto

type PlaceBetResponse struct {
	BetID         string  `json:"betId,omitempty"` // vazio quando totalmente compensada
	NewBalance    float64 `json:"new_balance"`
	NewExposure   float64 `json:"new_exposure"`
	Liability     float64 `json:"liability"`
	PotentialWin  float64 `json:"potential_win"`
	PotentialLoss float64 `json:"potential_loss"`
}

type SettleBetResponse struct {
	SettlementStatus string  `json:"settlement_status"`
	WinAmount        float64 `json:"win_amount,omitempty"`
	LossAmount       float64 `json:"loss_amount,omitempty"`
}

type CancelBetResponse struct {
	Status         string  `json:"status"` // "cancelled"
	ReturnedAmount float64 `json:"returned_amount"`
}

type AdjustOddsResponse struct {
	PreviousOdds float64 `json:"previous_odds"`
	CurrentOdds  float64 `json:"current_odds"`
	ProfitLoss   float64 `json:"profit_loss"`
}

type WalletResponse struct {
	UserID          string  `json:"userId"`
	CurrentBalance  float64 `json:"current_balance"`
	CurrentExposure float64 `json:"current_exposure"`
}

type BetStatusResponse struct {
	BetID  string `json:"betId"`
	Status string `json:"status"`
}

// ErrorResponse é o envelope de falha: kind estável + mensagem legível.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
