package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pozt-backend/internal/metrics"
	"pozt-backend/internal/timeutil"
)

// OTPSweeper evicts passcodes once they have been expired for longer than Retention. Keeping them
// for a while lets a late verify report "expired" rather than "invalid".
type OTPSweeper struct {
	Store     OTPStore
	Retention time.Duration
	Interval  time.Duration

	now    timeutil.Clock
	logger *zap.Logger
}

func NewOTPSweeper(store OTPStore, retention, interval time.Duration, logger *zap.Logger) *OTPSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &OTPSweeper{
		Store:     store,
		Retention: retention,
		Interval:  interval,
		now:       timeutil.Now,
		logger:    logger.Named("otp-sweeper"),
	}
}

// SweepOnce deletes records that expired before now - Retention.
func (s *OTPSweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.Store.DeleteExpiredBefore(ctx, s.now().Add(-s.Retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.OTPSwept.Add(float64(n))
		s.logger.Debug("expired otps removed", zap.Int64("count", n))
	}
	return n, nil
}

// Run sweeps every Interval until ctx is cancelled.
func (s *OTPSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("otp sweep failed", zap.Error(err))
			}
		}
	}
}
