package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/ledger-service/dto"
	"github.com/radieske/wager-ledger/internal/ledger-service/engine"
	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
	"github.com/radieske/wager-ledger/internal/ledger-service/repo"
	"github.com/radieske/wager-ledger/pkg/contracts/events"
)

// Ledger define as operações do motor consumidas pelos handlers HTTP.
type Ledger interface {
	PlaceBet(ctx context.Context, in engine.PlaceInput) (engine.PlaceResult, error)
	SettleBet(ctx context.Context, betID string, outcome liability.SettlementStatus) (engine.SettleResult, error)
	CancelBet(ctx context.Context, betID string) (engine.CancelResult, error)
	AdjustOdds(ctx context.Context, betID string, newOdds float64) (engine.AdjustResult, error)
	WalletDetails(ctx context.Context, userID string) (*repo.Wallet, error)
	Deposit(ctx context.Context, userID string, amount float64) (*repo.Wallet, error)
	BetStatus(ctx context.Context, betID string) (liability.SettlementStatus, error)
}

// OddsChecker confere divergência entre a odd pedida e a cotação corrente.
type OddsChecker interface {
	Diverged(ctx context.Context, marketID, selection string, requested float64) (current float64, diverged bool)
}

// Publisher emite eventos do ledger após o commit.
type Publisher interface {
	PublishBetPlaced(ctx context.Context, e events.BetPlaced) error
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// Server expõe a API HTTP do ledger de apostas.
type Server struct {
	log    *zap.Logger
	ledger Ledger
	odds   OddsChecker // opcional
	publ   Publisher   // opcional
}

func NewServer(log *zap.Logger, l Ledger, o OddsChecker, p Publisher) *Server {
	return &Server{log: log, ledger: l, odds: o, publ: p}
}

// Router retorna o mux HTTP com as rotas da API
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.placeBet)          // POST
	mux.HandleFunc("/bets/settle", s.settleBet)  // POST
	mux.HandleFunc("/bets/cancel", s.cancelBet)  // POST
	mux.HandleFunc("/bets/adjust", s.adjustOdds) // POST
	mux.HandleFunc("/bets/", s.getBetStatus)     // GET /bets/{id}
	mux.HandleFunc("/wallet", s.getWallet)       // GET ?userId=...
	mux.HandleFunc("/wallet/deposit", s.deposit) // POST
	return mux
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "bad json")
		return
	}
	betType, odd, err := req.Validate()
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	// Cotações back/lay são conferidas contra o feed antes de qualquer lock
	if s.odds != nil && (betType == liability.Back || betType == liability.Lay) {
		if cur, diverged := s.odds.Diverged(r.Context(), req.MarketID, req.Selection, odd); diverged {
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{
				Kind:    "odds_divergence",
				Message: "odd changed; current=" + trimFloat(cur),
			})
			return
		}
	}

	res, err := s.ledger.PlaceBet(r.Context(), engine.PlaceInput{
		UserID:    req.UserID,
		Stake:     req.Stake,
		BetType:   betType,
		Odds:      odd,
		MarketID:  req.MarketID,
		Selection: req.Selection,
		Title:     req.Title,
	})
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	if s.publ != nil {
		if err := s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
			BetID:         res.BetID,
			UserID:        req.UserID,
			MarketID:      req.MarketID,
			Selection:     req.Selection,
			BetType:       string(betType),
			Stake:         req.Stake,
			OddValue:      odd,
			Liability:     res.Liability,
			PotentialWin:  res.PotentialWin,
			PotentialLoss: res.PotentialLoss,
		}); err != nil {
			s.log.Warn("publish bet_placed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, dto.PlaceBetResponse{
		BetID:         res.BetID,
		NewBalance:    res.NewBalance,
		NewExposure:   res.NewExposure,
		Liability:     res.Liability,
		PotentialWin:  res.PotentialWin,
		PotentialLoss: res.PotentialLoss,
	})
}

func (s *Server) settleBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SettleBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "bad json")
		return
	}
	outcome, err := req.Validate()
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	res, err := s.ledger.SettleBet(r.Context(), req.BetID, outcome)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}

	if s.publ != nil {
		if err := s.publ.PublishBetSettled(r.Context(), events.BetSettled{
			BetID:      req.BetID,
			UserID:     res.UserID,
			Outcome:    string(res.Status),
			WinAmount:  res.WinAmount,
			LossAmount: res.LossAmount,
		}); err != nil {
			s.log.Warn("publish bet_settled", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, dto.SettleBetResponse{
		SettlementStatus: string(res.Status),
		WinAmount:        res.WinAmount,
		LossAmount:       res.LossAmount,
	})
}

func (s *Server) cancelBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CancelBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeLedgerError(w, err)
		return
	}

	res, err := s.ledger.CancelBet(r.Context(), req.BetID)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CancelBetResponse{
		Status:         string(res.Status),
		ReturnedAmount: res.ReturnedAmount,
	})
}

func (s *Server) adjustOdds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.AdjustOddsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeLedgerError(w, err)
		return
	}

	res, err := s.ledger.AdjustOdds(r.Context(), req.BetID, req.NewOdds)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AdjustOddsResponse{
		PreviousOdds: res.PreviousOdds,
		CurrentOdds:  res.CurrentOdds,
		ProfitLoss:   res.ProfitLoss,
	})
}

func (s *Server) getBetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// path: /bets/{id}
	id := strings.TrimPrefix(r.URL.Path, "/bets/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "validation_error", "betId required")
		return
	}

	st, err := s.ledger.BetStatus(r.Context(), id)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BetStatusResponse{BetID: id, Status: string(st)})
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "userId required")
		return
	}
	wd, err := s.ledger.WalletDetails(r.Context(), userID)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WalletResponse{
		UserID:          userID,
		CurrentBalance:  wd.CurrentBalance,
		CurrentExposure: wd.CurrentExposure,
	})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "bad json")
		return
	}
	if err := req.Validate(); err != nil {
		s.writeLedgerError(w, err)
		return
	}

	wd, err := s.ledger.Deposit(r.Context(), req.UserID, req.Amount)
	if err != nil {
		s.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WalletResponse{
		UserID:          req.UserID,
		CurrentBalance:  wd.CurrentBalance,
		CurrentExposure: wd.CurrentExposure,
	})
}

// writeLedgerError traduz a taxonomia de erros do motor em status + kind
func (s *Server) writeLedgerError(w http.ResponseWriter, err error) {
	var insufficient *engine.InsufficientBalanceError
	switch {
	case errors.Is(err, liability.ErrInvalidBet),
		errors.Is(err, engine.ErrInvalidOutcome),
		errors.Is(err, engine.ErrNotAdjustable):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, engine.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, repo.ErrWalletNotFound):
		writeError(w, http.StatusNotFound, "wallet_not_found", err.Error())
	case errors.Is(err, repo.ErrBetNotFound):
		writeError(w, http.StatusNotFound, "bet_not_found", err.Error())
	case errors.As(err, &insufficient):
		writeError(w, http.StatusConflict, "insufficient_balance", insufficient.Error())
	case errors.Is(err, engine.ErrAlreadySettled):
		writeError(w, http.StatusConflict, "already_settled", err.Error())
	default:
		s.log.Error("storage failure", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "storage_failure", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Kind: kind, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
