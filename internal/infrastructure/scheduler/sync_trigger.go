package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kkbridge/backend/internal/domain/integration"
)

// OrderRunner runs one order synchronization pass
type OrderRunner interface {
	RunSync(ctx context.Context, window integration.SyncWindow) (*integration.SyncRunResult, error)
}

// StatusRunner runs one status propagation pass
type StatusRunner interface {
	RunStatusUpdate(ctx context.Context, window integration.SyncWindow) (*integration.StatusRunReport, error)
}

// SyncTriggerConfig holds configuration for the periodic sync trigger
type SyncTriggerConfig struct {
	// Enabled turns the background timers on
	Enabled bool
	// OrderSyncInterval is the period between order sync passes
	OrderSyncInterval time.Duration
	// StatusSyncInterval is the period between status propagation passes
	StatusSyncInterval time.Duration
	// Window is the time range selector passed to every pass
	Window integration.SyncWindow
}

// DefaultSyncTriggerConfig returns default sync trigger configuration
func DefaultSyncTriggerConfig() SyncTriggerConfig {
	return SyncTriggerConfig{
		Enabled:            true,
		OrderSyncInterval:  5 * time.Minute,
		StatusSyncInterval: 15 * time.Minute,
		Window:             integration.SyncWindowToday,
	}
}

// SyncTrigger runs the order sync and status sync on independent timers.
// The engines themselves reject overlapping passes; the trigger just logs
// and waits for the next tick.
type SyncTrigger struct {
	config       SyncTriggerConfig
	orderRunner  OrderRunner
	statusRunner StatusRunner
	logger       *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncTrigger creates a new sync trigger
func NewSyncTrigger(
	config SyncTriggerConfig,
	orderRunner OrderRunner,
	statusRunner StatusRunner,
	logger *zap.Logger,
) *SyncTrigger {
	return &SyncTrigger{
		config:       config,
		orderRunner:  orderRunner,
		statusRunner: statusRunner,
		logger:       logger,
	}
}

// Start starts both timers
func (t *SyncTrigger) Start(ctx context.Context) error {
	if !t.config.Enabled {
		t.logger.Info("Sync trigger disabled by configuration")
		return nil
	}
	if !t.config.Window.IsValid() {
		return ErrInvalidTriggerWindow
	}

	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(2)
	go t.orderLoop(ctx)
	go t.statusLoop(ctx)

	t.logger.Info("Sync trigger started",
		zap.Duration("order_interval", t.config.OrderSyncInterval),
		zap.Duration("status_interval", t.config.StatusSyncInterval),
		zap.String("window", t.config.Window.String()))

	return nil
}

// Stop stops both timers and waits for in-flight passes to finish
func (t *SyncTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// orderLoop ticks the order synchronization
func (t *SyncTrigger) orderLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.OrderSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.runOrderSync(ctx)
		}
	}
}

// statusLoop ticks the status propagation
func (t *SyncTrigger) statusLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.StatusSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.runStatusSync(ctx)
		}
	}
}

func (t *SyncTrigger) runOrderSync(ctx context.Context) {
	result, err := t.orderRunner.RunSync(ctx, t.config.Window)
	switch {
	case errors.Is(err, integration.ErrRunInProgress):
		t.logger.Debug("Order sync already running, skipping tick")
	case err != nil:
		t.logger.Error("Scheduled order sync failed", zap.Error(err))
	default:
		t.logger.Info("Scheduled order sync finished",
			zap.String("run_id", result.RunID.String()),
			zap.String("status", result.Status.String()),
			zap.String("summary", result.Message))
	}
}

func (t *SyncTrigger) runStatusSync(ctx context.Context) {
	report, err := t.statusRunner.RunStatusUpdate(ctx, t.config.Window)
	switch {
	case errors.Is(err, integration.ErrRunInProgress):
		t.logger.Debug("Status sync already running, skipping tick")
	case err != nil:
		t.logger.Error("Scheduled status sync failed", zap.Error(err))
	default:
		t.logger.Info("Scheduled status sync finished",
			zap.Int("examined", report.Examined),
			zap.Int("marked_paid", report.MarkedPaid),
			zap.Int("fulfilled", report.Fulfilled),
			zap.Int("invoices_issued", report.InvoicesIssued))
	}
}
