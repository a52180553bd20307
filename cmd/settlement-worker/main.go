package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/ledger-service/liability"
	"github.com/radieske/wager-ledger/internal/ledger-service/repo"
	"github.com/radieske/wager-ledger/internal/shared/config"
	"github.com/radieske/wager-ledger/internal/shared/db"
	"github.com/radieske/wager-ledger/internal/shared/kafka"
	"github.com/radieske/wager-ledger/internal/shared/logger"
	"github.com/radieske/wager-ledger/internal/shared/metrics"
	ev "github.com/radieske/wager-ledger/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: leitura das apostas pendentes da seleção declarada
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()
	repository := repo.NewPostgres(pg)

	// Kafka consumer: resultados declarados pelo feed de odds
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMarketResults, "settlement")
	defer reader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicMarketResultsDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMarketResultsDLQ)
		defer dlqWriter.Close()
	}

	// Métricas do worker
	settled := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_bets_settled_total", Help: "apostas liquidadas"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(settled, errorsBy)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("settlement-worker started", zap.String("consume", cfg.TopicMarketResults))

	ctx := context.Background()

	// Loop principal: consome resultados e liquida aposta a aposta via API
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			errorsBy.WithLabelValues("consume").Inc()
			time.Sleep(time.Second)
			continue
		}
		var result ev.MarketResult
		if jerr := json.Unmarshal(msg.Value, &result); jerr != nil {
			log.Error("unmarshal market_result", zap.Error(jerr))
			errorsBy.WithLabelValues("decode").Inc()
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, string(msg.Key), msg.Value)
			}
			continue
		}

		n, err := settleSelection(ctx, log, cfg, repository, &result)
		settled.Add(float64(n))
		if err != nil {
			log.Error("settle selection",
				zap.String("marketId", result.MarketID),
				zap.String("selection", result.Selection),
				zap.Error(err),
			)
			errorsBy.WithLabelValues("settle").Inc()
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, string(msg.Key), msg.Value)
			}
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// settleSelection liquida as apostas pendentes de um par mercado+seleção,
// uma a uma; cada aposta carrega os próprios potential_win/potential_loss.
// Retorna quantas liquidaram com sucesso.
func settleSelection(ctx context.Context, log *zap.Logger, cfg config.Config, repository *repo.Postgres, result *ev.MarketResult) (int, error) {
	if result.Result != "yes" && result.Result != "no" {
		return 0, errors.New("invalid result: " + result.Result)
	}

	bets, err := repository.PendingBetsBySelection(ctx, result.MarketID, result.Selection)
	if err != nil {
		return 0, err
	}

	ok := 0
	var firstErr error
	for _, b := range bets {
		outcome := outcomeFor(b.BetType, result.Result)
		if outcome == "" {
			// apostas já zeradas por compensação não liquidam
			continue
		}
		if err := callSettle(ctx, cfg, b.ID, outcome); err != nil {
			log.Warn("settle bet", zap.String("betId", b.ID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		ok++
	}
	return ok, firstErr
}

// outcomeFor converte o resultado declarado no outcome da aposta:
// yes/back seguem o resultado, no/lay recebem o inverso.
func outcomeFor(t liability.BetType, result string) string {
	wins := false
	switch t {
	case liability.Yes, liability.Back:
		wins = result == "yes"
	case liability.No, liability.Lay:
		wins = result == "no"
	default:
		return ""
	}
	if wins {
		return "yes"
	}
	return "no"
}

// callSettle chama POST /bets/settle no ledger-service, com retry simples.
func callSettle(ctx context.Context, cfg config.Config, betID, outcome string) error {
	body, _ := json.Marshal(map[string]string{"betId": betID, "outcome": outcome})

	var lastErr error
	for i := 0; i < 3; i++ {
		if i > 0 {
			time.Sleep(time.Duration(300*i) * time.Millisecond)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.LedgerURL+"/bets/settle", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()
		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode == http.StatusConflict:
			// já liquidada: reentrega de mensagem, nada a fazer
			return nil
		case resp.StatusCode >= 500:
			lastErr = errors.New("ledger http " + resp.Status)
			continue
		default:
			return errors.New("ledger http " + resp.Status)
		}
	}
	return lastErr
}
