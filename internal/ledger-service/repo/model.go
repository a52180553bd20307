package repo

import (
	"time"

	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
)

// Wallet é a carteira persistida no Postgres. prev_* guardam o snapshot
// imediatamente anterior à última mutação, para auditoria.
type Wallet struct {
	ID              string
	UserID          string
	CurrentBalance  float64
	CurrentExposure float64
	PrevBalance     float64
	PrevExposure    float64
	UpdatedAt       time.Time
}

// Bet é uma linha por tentativa de aposta (não por posição líquida).
// Nunca é deletada: cancelamento e liquidação são estados terminais.
type Bet struct {
	ID               string
	UserID           string
	MarketID         string
	Selection        string
	Title            string
	BetType          liability.BetType
	OddValue         float64
	Stake            float64
	PotentialWin     float64
	PotentialLoss    float64
	SettlementStatus liability.SettlementStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
