package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/config"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
	"github.com/homenest/homenest-api/pkg/logger"
	"github.com/homenest/homenest-api/pkg/mailer"
	"github.com/homenest/homenest-api/pkg/metrics"
	"go.uber.org/zap"
)

// OTPService issues and verifies one-time passcodes sent by email
type OTPService struct {
	tx      *repository.Transactor
	otpRepo *repository.OTPRepository
	sender  mailer.EmailSender
	cfg     config.OTPConfig
	metrics *metrics.Metrics
	now     func() time.Time
	newCode func(length int) (string, error)
}

func NewOTPService(
	tx *repository.Transactor,
	otpRepo *repository.OTPRepository,
	sender mailer.EmailSender,
	cfg config.OTPConfig,
	m *metrics.Metrics,
) *OTPService {
	return &OTPService{
		tx:      tx,
		otpRepo: otpRepo,
		sender:  sender,
		cfg:     cfg,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		newCode: generateOTPCode,
	}
}

// Generate issues a new code for email and mails it. Any previously valid
// code for the email stops working. Returns the new code's expiry.
func (s *OTPService) Generate(ctx context.Context, email string, kind mailer.OTPKind) (time.Time, error) {
	expiresAt, err := s.issue(ctx, normalizeEmail(email), kind)
	s.metrics.ObserveOTPIssued(metrics.Outcome(err))
	return expiresAt, err
}

// Resend behaves exactly like Generate and shares its rate limit
func (s *OTPService) Resend(ctx context.Context, email string, kind mailer.OTPKind) (time.Time, error) {
	return s.Generate(ctx, email, kind)
}

func (s *OTPService) issue(ctx context.Context, email string, kind mailer.OTPKind) (time.Time, error) {
	now := s.now()

	count, err := s.otpRepo.CountSince(ctx, email, now.Add(-s.cfg.RateWindow))
	if err != nil {
		return time.Time{}, err
	}
	if count >= int64(s.cfg.RateLimit) {
		logger.Warn(ctx, "OTP rate limit reached", zap.String("email", email), zap.Int64("issued", count))
		return time.Time{}, apperr.New(apperr.ErrRateLimitExceeded, "Too many code requests. Please try again later")
	}

	code, err := s.newCode(s.cfg.Length)
	if err != nil {
		return time.Time{}, err
	}

	record := &model.OTPRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.cfg.Expiry),
		CreatedAt: now,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.otpRepo.InvalidateValid(ctx, email, now); err != nil {
			return err
		}
		return s.otpRepo.Create(ctx, record)
	})
	if err != nil {
		return time.Time{}, err
	}

	subject, body, err := mailer.RenderOTP(kind, code, int(s.cfg.Expiry.Minutes()))
	if err == nil {
		err = s.sender.Send(email, subject, body, true)
	}
	if err != nil {
		// The code never reached the user, so it must not stay redeemable.
		// The row still counts toward the rate limit.
		if markErr := s.otpRepo.MarkAsUsed(ctx, record.ID, now); markErr != nil {
			logger.Error(ctx, "Failed to invalidate undelivered OTP", zap.String("email", email), zap.Error(markErr))
		}
		return time.Time{}, apperr.Wrap(apperr.ErrDeliveryFailure, "We could not send the code to your email, please try again", err)
	}

	logger.Info(ctx, "OTP issued",
		zap.String("email", email),
		zap.String("kind", string(kind)),
		zap.Time("expires_at", record.ExpiresAt),
	)
	return record.ExpiresAt, nil
}

// Verify redeems code for email.
//
// With allowReuse, a code that was redeemed within the reuse grace period and
// is still the newest one for the email verifies again without state change.
// Registration uses this: the code is checked on the OTP screen first and
// presented again when the account is completed.
func (s *OTPService) Verify(ctx context.Context, email, code string, allowReuse bool) error {
	err := s.verify(ctx, normalizeEmail(email), code, allowReuse)
	s.metrics.ObserveOTPVerified(metrics.Outcome(err))
	return err
}

func (s *OTPService) verify(ctx context.Context, email, code string, allowReuse bool) error {
	now := s.now()

	if allowReuse {
		latest, err := s.otpRepo.FindLatest(ctx, email)
		switch {
		case err == nil:
			if s.reusable(latest, code, now) {
				logger.Debug(ctx, "OTP reused within grace period", zap.String("email", email))
				return nil
			}
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}
	}

	record, err := s.otpRepo.FindLatestUnused(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "No active code for this email. Please request a new one")
		}
		return err
	}
	if !codesEqual(record.Code, code) {
		return apperr.New(apperr.ErrMismatch, "The code you entered is incorrect")
	}
	if record.IsExpired(now) {
		return apperr.New(apperr.ErrExpired, "The code has expired. Please request a new one")
	}

	if err := s.otpRepo.MarkAsUsed(ctx, record.ID, now); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "This code has already been used")
		}
		return err
	}
	return nil
}

func (s *OTPService) reusable(latest *model.OTPRecord, code string, now time.Time) bool {
	if !latest.IsUsed || latest.UsedAt == nil || latest.IsExpired(now) {
		return false
	}
	if !codesEqual(latest.Code, code) {
		return false
	}
	return now.Sub(*latest.UsedAt) <= s.cfg.ReuseGrace
}

// DeleteAllForEmail removes every record for email, valid or not
func (s *OTPService) DeleteAllForEmail(ctx context.Context, email string) (int64, error) {
	return s.otpRepo.DeleteAllForEmail(ctx, normalizeEmail(email))
}

// PurgeExpired removes records that expired before olderThan
func (s *OTPService) PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	return s.otpRepo.DeleteExpiredBefore(ctx, olderThan)
}

// generateOTPCode generates a cryptographically secure random numeric code
func generateOTPCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func codesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
