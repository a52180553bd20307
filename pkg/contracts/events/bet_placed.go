package events

type BetPlaced struct {
	BetID         string  `json:"bet_id,omitempty"` // vazio quando a aposta foi totalmente compensada
	UserID        string  `json:"user_id"`
	MarketID      string  `json:"market_id"`
	Selection     string  `json:"selection"`
	BetType       string  `json:"bet_type"`
	Stake         float64 `json:"stake"` // stake residual após compensação
	OddValue      float64 `json:"odd_value"`
	Liability     float64 `json:"liability"`
	PotentialWin  float64 `json:"potential_win"`
	PotentialLoss float64 `json:"potential_loss"`
	TsUnixMs      int64   `json:"ts_unix_ms"`
}
