// Package worker provides async scoring of ingested transactions.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sentinelpay/sentinel/internal/domain"
	"github.com/sentinelpay/sentinel/internal/scoring"
)

// Worker re-scores transactions off the ingest topic and raises alerts for
// high-risk assessments. Ingestion itself never blocks on scoring.
type Worker struct {
	bus     domain.EventBus
	scoring *scoring.Service

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, svc *scoring.Service) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:     bus,
		scoring: svc,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start subscribes to the transaction ingest topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicTransactionIngested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("worker started", "topic", domain.TopicTransactionIngested)
	return nil
}

// TransactionMessage is the payload published on transaction ingest.
type TransactionMessage struct {
	TxID   string `json:"txId"`
	UserID string `json:"userId"`
}

// AlertMessage is the payload published on the risk alert topic.
type AlertMessage struct {
	TxID      string   `json:"txId"`
	UserID    string   `json:"userId"`
	RiskScore int      `json:"riskScore"`
	RiskLevel string   `json:"riskLevel"`
	Reasons   []string `json:"reasons"`
}

func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var txMsg TransactionMessage
	if err := json.Unmarshal(msg.Payload, &txMsg); err != nil {
		slog.Error("failed to parse transaction message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	assessment, err := w.scoring.AssessTransaction(ctx, txMsg.TxID)
	if err != nil {
		slog.Error("risk assessment failed",
			"tx_id", txMsg.TxID,
			"error", err,
		)
		return err
	}

	if assessment.RiskLevel == domain.RiskLevelHigh {
		alert := AlertMessage{
			TxID:      txMsg.TxID,
			UserID:    txMsg.UserID,
			RiskScore: assessment.RiskScore,
			RiskLevel: assessment.RiskLevel,
			Reasons:   assessment.Reasons,
		}
		payload, _ := json.Marshal(alert)
		if err := w.bus.Publish(ctx, domain.TopicRiskAlert, payload); err != nil {
			slog.Error("failed to publish risk alert",
				"tx_id", txMsg.TxID,
				"error", err,
			)
		}
	}

	slog.Info("transaction scored",
		"tx_id", txMsg.TxID,
		"risk_score", assessment.RiskScore,
		"risk_level", assessment.RiskLevel,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
