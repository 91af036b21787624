package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"pozt-backend/internal/metrics"
)

// Retrying re-sends transient failures up to maxRetries extra times.
type Retrying struct {
	next       Sender
	maxRetries uint64
	delay      time.Duration
	logger     *zap.Logger
}

func NewRetrying(next Sender, maxRetries uint64, delay time.Duration, logger *zap.Logger) *Retrying {
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	return &Retrying{next: next, maxRetries: maxRetries, delay: delay, logger: logger.Named("notify")}
}

func (r *Retrying) Name() string { return r.next.Name() }

func (r *Retrying) Send(ctx context.Context, msg Message) error {
	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewConstant(r.delay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := r.next.Send(ctx, msg)
		if err == nil {
			return nil
		}

		var perm *PermanentError
		if errors.As(err, &perm) {
			return err
		}
		r.logger.Warn("delivery attempt failed",
			zap.String("provider", r.next.Name()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return retry.RetryableError(err)
	})

	if err != nil {
		metrics.NotificationsSent.WithLabelValues(r.next.Name(), "failed").Inc()
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	metrics.NotificationsSent.WithLabelValues(r.next.Name(), "sent").Inc()
	return nil
}
