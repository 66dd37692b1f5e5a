// Package worker runs the reconciliation sweep: orders that went out to the
// gateway but never saw a callback ("phantom charges") are settled from the
// gateway's own record, which is the source of truth for money movement.
package worker

import (
	"context"
	"time"

	"gigmart/internal/gateway"
	"gigmart/internal/repositories"
	"gigmart/internal/services"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReconciliationWorker periodically sweeps stale PENDING orders.
type ReconciliationWorker struct {
	orderRepo      repositories.OrderRepository
	paymentService *services.PaymentService
	gateway        gateway.Gateway
	logger         *zap.Logger
	// staleAfter is how long a PENDING order with a gateway order id may sit
	// untouched before we go asking the gateway what happened.
	staleAfter time.Duration
	cron       *cron.Cron
}

// NewReconciliationWorker creates a new ReconciliationWorker.
func NewReconciliationWorker(orderRepo repositories.OrderRepository, paymentService *services.PaymentService, gw gateway.Gateway, logger *zap.Logger, staleAfter time.Duration) *ReconciliationWorker {
	return &ReconciliationWorker{
		orderRepo:      orderRepo,
		paymentService: paymentService,
		gateway:        gw,
		logger:         logger,
		staleAfter:     staleAfter,
	}
}

// Start schedules the sweep on the given cron spec and begins running it.
func (w *ReconciliationWorker) Start(spec string) error {
	w.cron = cron.New()
	_, err := w.cron.AddFunc(spec, func() {
		if err := w.Sweep(context.Background()); err != nil {
			w.logger.Error("reconciliation sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("reconciliation worker started",
		zap.String("schedule", spec),
		zap.Duration("stale_after", w.staleAfter))
	return nil
}

// Stop halts the schedule, letting a running sweep finish.
func (w *ReconciliationWorker) Stop() {
	if w.cron != nil {
		ctx := w.cron.Stop()
		<-ctx.Done()
	}
}

// Sweep settles every stale PENDING order according to the gateway's record.
// Each order is handled independently; one failing lookup does not stop the
// rest of the batch.
func (w *ReconciliationWorker) Sweep(ctx context.Context) error {
	stale, err := w.orderRepo.ListStalePending(w.staleAfter)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	w.logger.Info("reconciling stale pending orders", zap.Int("count", len(stale)))

	for i := range stale {
		order := stale[i]
		status, err := w.gateway.FetchStatus(ctx, order.GatewayOrderID)
		if err != nil {
			w.logger.Warn("failed to fetch gateway status",
				zap.String("order_id", order.ID),
				zap.String("gateway_order_id", order.GatewayOrderID),
				zap.Error(err))
			continue // leave it for the next sweep
		}

		result, err := w.paymentService.SettleReconciled(&order, status)
		if err != nil {
			w.logger.Warn("reconciliation settlement rejected",
				zap.String("order_id", order.ID),
				zap.Error(err))
			continue
		}
		if result.Outcome == services.OutcomeApplied || result.Outcome == services.OutcomeFailedApplied {
			w.logger.Info("reconciled stale order",
				zap.String("order_id", order.ID),
				zap.String("status", string(result.Status)))
		}
	}
	return nil
}
