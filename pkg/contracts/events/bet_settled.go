package events

import "time"

// Evento emitido pelo ledger-service após liquidar uma aposta.
type BetSettled struct {
	BetID      string    `json:"betId"`
	UserID     string    `json:"userId"`
	Outcome    string    `json:"outcome"` // "yes" | "no"
	WinAmount  float64   `json:"winAmount,omitempty"`
	LossAmount float64   `json:"lossAmount,omitempty"`
	Ts         time.Time `json:"ts"`
}
