package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardshop/internal/config"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/metrics"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

// SweepResult aggregates one sweep. Individual failures never abort a sweep.
type SweepResult struct {
	Examined int `json:"examined"`
	Closed   int `json:"closed"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Sweeper closes PENDING orders that outlived the payment window.
type Sweeper interface {
	Sweep(ctx context.Context) (*SweepResult, error)
}

type sweeper struct {
	store    repository.Store
	machine  StateMachine
	restocks RestockService
	cfg      config.OrderConfig
	logger   *zap.Logger
	now      Clock
}

// NewSweeper creates the expiry sweeper.
func NewSweeper(store repository.Store, machine StateMachine, restocks RestockService, cfg config.OrderConfig, logger *zap.Logger) Sweeper {
	return &sweeper{
		store:    store,
		machine:  machine,
		restocks: restocks,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *sweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	cutoff := s.now().Add(-s.cfg.PendingTimeout())
	candidates, err := s.store.Orders().ListExpiredPending(ctx, cutoff, s.cfg.SweepBatchSize)
	if err != nil {
		return nil, fmt.Errorf("list expired orders: %w", err)
	}

	result := &SweepResult{Examined: len(candidates)}
	restock := map[uuid.UUID]struct{}{}

	for _, order := range candidates {
		tr, err := s.machine.Transition(ctx, order.ID, model.OrderStatusClosed)
		switch {
		case err == nil && tr.Changed:
			result.Closed++
			metrics.SweeperClosed.Inc()
			if tr.Released > 0 {
				restock[order.ProductID] = struct{}{}
			}
		case err == nil:
			result.Skipped++
		case apperrors.IsKind(err, apperrors.KindConflict):
			// paid while we were looking at it
			result.Skipped++
		default:
			result.Failed++
			s.logger.Error("close expired order failed", zap.String("order_no", order.OrderNo), zap.Error(err))
		}
	}

	if s.restocks != nil {
		for productID := range restock {
			if _, err := s.restocks.Check(ctx, productID); err != nil {
				s.logger.Warn("restock check failed", zap.String("product_id", productID.String()), zap.Error(err))
			}
		}
	}

	s.logger.Info("expiry sweep finished",
		zap.Time("cutoff", cutoff),
		zap.Int("examined", result.Examined),
		zap.Int("closed", result.Closed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
