package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrBetNotFound    = errors.New("bet not found")
)

// Postgres implementa a persistência de carteiras e apostas.
// Toda mutação acontece dentro de WithinTx; os métodos de escrita vivem em Tx.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Tx expõe as operações de carteira/aposta válidas dentro de uma transação.
// O caller recebe o escopo como closure e não consegue commitar parcialmente.
type Tx struct{ tx *sql.Tx }

// WithinTx abre uma transação, executa fn e commita; qualquer erro de fn
// provoca rollback completo; nenhuma mutação parcial fica visível.
func (p *Postgres) WithinTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// WalletByUser retorna a carteira do usuário em leitura consistente, sem lock.
func (p *Postgres) WalletByUser(ctx context.Context, userID string) (*Wallet, error) {
	w := &Wallet{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, current_balance, current_exposure, prev_balance, prev_exposure, updated_at
		FROM wallets WHERE user_id=$1`, userID).
		Scan(&w.ID, &w.UserID, &w.CurrentBalance, &w.CurrentExposure, &w.PrevBalance, &w.PrevExposure, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// PendingBetsBySelection lista ids de apostas pendentes de um par
// mercado+seleção. Usado pelo settlement-worker, fora de transação.
func (p *Postgres) PendingBetsBySelection(ctx context.Context, marketID, selection string) ([]*Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, bet_type
		FROM bets
		WHERE market_id=$1 AND selection=$2 AND settlement_status='pending' AND stake > 0
		ORDER BY created_at ASC`, marketID, selection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Bet
	for rows.Next() {
		b := &Bet{MarketID: marketID, Selection: selection}
		if err := rows.Scan(&b.ID, &b.UserID, &b.BetType); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LockWallet lê a carteira do usuário com SELECT ... FOR UPDATE. O lock
// serializa requisições concorrentes sobre a mesma carteira até o commit.
func (t *Tx) LockWallet(ctx context.Context, userID string) (*Wallet, error) {
	w := &Wallet{}
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, user_id, current_balance, current_exposure, prev_balance, prev_exposure, updated_at
		FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).
		Scan(&w.ID, &w.UserID, &w.CurrentBalance, &w.CurrentExposure, &w.PrevBalance, &w.PrevExposure, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ApplyWallet aplica deltas de saldo/exposição e tira o snapshot prev_* na
// mesma escrita. Pressupõe que a linha já está lockada por LockWallet.
func (t *Tx) ApplyWallet(ctx context.Context, walletID string, dBalance, dExposure float64) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE wallets SET
		  prev_balance     = current_balance,
		  prev_exposure    = current_exposure,
		  current_balance  = current_balance + $1,
		  current_exposure = current_exposure + $2,
		  updated_at       = NOW()
		WHERE id=$3`, dBalance, dExposure, walletID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// InsertBet insere uma nova aposta pendente e devolve o id gerado.
func (t *Tx) InsertBet(ctx context.Context, b *Bet) (string, error) {
	id := uuid.NewString()
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO bets
		  (id, user_id, market_id, selection, title, bet_type, odd_value, stake, potential_win, potential_loss, settlement_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'pending')`,
		id, b.UserID, b.MarketID, b.Selection, b.Title, string(b.BetType), b.OddValue, b.Stake, b.PotentialWin, b.PotentialLoss,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// BetByID lê uma aposta pelo id em leitura consistente, sem lock.
func (p *Postgres) BetByID(ctx context.Context, betID string) (*Bet, error) {
	return scanBet(p.db.QueryRowContext(ctx, betSelect+` WHERE id=$1`, betID))
}

// Bet lê uma aposta dentro da transação, sem lock de linha. Usada para
// descobrir o dono antes de travar a carteira; o estado é reconferido por
// BetForUpdate depois do lock.
func (t *Tx) Bet(ctx context.Context, betID string) (*Bet, error) {
	return scanBet(t.tx.QueryRowContext(ctx, betSelect+` WHERE id=$1`, betID))
}

// BetForUpdate lê uma aposta pelo id com lock de linha.
func (t *Tx) BetForUpdate(ctx context.Context, betID string) (*Bet, error) {
	return scanBet(t.tx.QueryRowContext(ctx, betSelect+` WHERE id=$1 FOR UPDATE`, betID))
}

const betSelect = `
	SELECT id, user_id, market_id, selection, title, bet_type, odd_value, stake,
	       potential_win, potential_loss, settlement_status, created_at, updated_at
	FROM bets`

func scanBet(row *sql.Row) (*Bet, error) {
	b := &Bet{}
	err := row.Scan(&b.ID, &b.UserID, &b.MarketID, &b.Selection, &b.Title, &b.BetType, &b.OddValue, &b.Stake,
		&b.PotentialWin, &b.PotentialLoss, &b.SettlementStatus, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrBetNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// OpenOpposing lista, em ordem FIFO e com lock, as apostas abertas do tipo
// oposto do mesmo usuário no mesmo par mercado+seleção. Nunca cruza usuários,
// mercados ou seleções.
func (t *Tx) OpenOpposing(ctx context.Context, userID, marketID, selection string, opposite liability.BetType) ([]*Bet, error) {
	rows, err := t.tx.QueryContext(ctx, betSelect+`
		WHERE user_id=$1 AND market_id=$2 AND selection=$3
		  AND bet_type=$4 AND settlement_status='pending' AND stake > 0
		ORDER BY created_at ASC
		FOR UPDATE`, userID, marketID, selection, string(opposite))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Bet
	for rows.Next() {
		b := &Bet{}
		if err := rows.Scan(&b.ID, &b.UserID, &b.MarketID, &b.Selection, &b.Title, &b.BetType, &b.OddValue, &b.Stake,
			&b.PotentialWin, &b.PotentialLoss, &b.SettlementStatus, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ReduceBet grava stake/potenciais reduzidos pela compensação.
// Stake zerado marca a aposta como bet_type=cancelled.
func (t *Tx) ReduceBet(ctx context.Context, betID string, stake, potentialWin, potentialLoss float64) error {
	betType := ""
	if stake <= 0 {
		betType = string(liability.Cancelled)
	}
	var err error
	if betType != "" {
		_, err = t.tx.ExecContext(ctx, `
			UPDATE bets SET stake=$1, potential_win=$2, potential_loss=$3, bet_type=$4, updated_at=NOW()
			WHERE id=$5`, stake, potentialWin, potentialLoss, betType, betID)
	} else {
		_, err = t.tx.ExecContext(ctx, `
			UPDATE bets SET stake=$1, potential_win=$2, potential_loss=$3, updated_at=NOW()
			WHERE id=$4`, stake, potentialWin, potentialLoss, betID)
	}
	return err
}

// SetOdds atualiza a odd armazenada de uma aposta (ajuste de odds).
func (t *Tx) SetOdds(ctx context.Context, betID string, odds float64) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE bets SET odd_value=$1, updated_at=NOW() WHERE id=$2`, odds, betID)
	return err
}

// SetSettlement grava o estado terminal de uma aposta.
func (t *Tx) SetSettlement(ctx context.Context, betID string, status liability.SettlementStatus) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE bets SET settlement_status=$1, updated_at=NOW() WHERE id=$2`, string(status), betID)
	return err
}
