package jobs

import (
	"context"
	"time"

	"github.com/homenest/homenest-api/pkg/logger"
	"go.uber.org/zap"
)

type otpPurger interface {
	PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// OTPCleanupJob periodically deletes verification codes that expired more
// than retention ago
type OTPCleanupJob struct {
	otp       otpPurger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stop      chan struct{}
}

func NewOTPCleanupJob(otp otpPurger, interval, retention time.Duration) *OTPCleanupJob {
	return &OTPCleanupJob{
		otp:       otp,
		interval:  interval,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
		stop:      make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called
func (j *OTPCleanupJob) Start(ctx context.Context) {
	logger.Info(ctx, "OTP cleanup job started",
		zap.Duration("interval", j.interval),
		zap.Duration("retention", j.retention),
	)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "OTP cleanup job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "OTP cleanup job stopped")
			return
		case <-ticker.C:
			j.purge(ctx)
		}
	}
}

func (j *OTPCleanupJob) Stop() {
	close(j.stop)
}

func (j *OTPCleanupJob) purge(ctx context.Context) {
	cutoff := j.now().Add(-j.retention)
	n, err := j.otp.PurgeExpired(ctx, cutoff)
	if err != nil {
		logger.Error(ctx, "OTP cleanup failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info(ctx, "Purged expired OTP records", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
}
