package repository

import (
	"context"
	"testing"
	"time"

	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func seedOTP(t *testing.T, repo *OTPRepository, email, code string, createdAt time.Time, used bool) *model.OTPRecord {
	t.Helper()
	rec := &model.OTPRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: createdAt.Add(5 * time.Minute),
		IsUsed:    used,
		CreatedAt: createdAt,
	}
	if used {
		at := createdAt.Add(time.Minute)
		rec.UsedAt = &at
	}
	require.NoError(t, repo.Create(context.Background(), rec))
	return rec
}

func TestOTPRepository_FindLatestUnused(t *testing.T) {
	repo := NewOTPRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	_, err := repo.FindLatestUnused(ctx, "a@b.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	seedOTP(t, repo, "a@b.com", "111111", baseTime, false)
	newest := seedOTP(t, repo, "a@b.com", "222222", baseTime.Add(time.Minute), false)
	seedOTP(t, repo, "a@b.com", "333333", baseTime.Add(2*time.Minute), true)
	seedOTP(t, repo, "other@b.com", "444444", baseTime.Add(3*time.Minute), false)

	got, err := repo.FindLatestUnused(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, newest.ID, got.ID)
	assert.Equal(t, "222222", got.Code)

	latest, err := repo.FindLatest(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "333333", latest.Code)
}

func TestOTPRepository_MarkAsUsedOnlyOnce(t *testing.T) {
	repo := NewOTPRepository(testutil.NewTestDB(t))
	ctx := context.Background()
	rec := seedOTP(t, repo, "a@b.com", "123456", baseTime, false)

	require.NoError(t, repo.MarkAsUsed(ctx, rec.ID, baseTime.Add(time.Minute)))
	assert.ErrorIs(t, repo.MarkAsUsed(ctx, rec.ID, baseTime.Add(2*time.Minute)), apperr.ErrNotFound)

	latest, err := repo.FindLatest(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, latest.IsUsed)
	require.NotNil(t, latest.UsedAt)
	assert.True(t, latest.UsedAt.Equal(baseTime.Add(time.Minute)))
}

func TestOTPRepository_InvalidateValidSkipsExpired(t *testing.T) {
	repo := NewOTPRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	seedOTP(t, repo, "a@b.com", "111111", baseTime, false)                   // expired at +5m
	seedOTP(t, repo, "a@b.com", "222222", baseTime.Add(4*time.Minute), false) // valid at +6m

	n, err := repo.InvalidateValid(ctx, "a@b.com", baseTime.Add(6*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// the expired one stays unused; it cannot verify anyway
	got, err := repo.FindLatestUnused(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "111111", got.Code)
}

func TestOTPRepository_CountSince(t *testing.T) {
	repo := NewOTPRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	seedOTP(t, repo, "a@b.com", "111111", baseTime.Add(-2*time.Hour), true)
	seedOTP(t, repo, "a@b.com", "222222", baseTime.Add(-30*time.Minute), true)
	seedOTP(t, repo, "a@b.com", "333333", baseTime, false)
	seedOTP(t, repo, "x@b.com", "444444", baseTime, false)

	n, err := repo.CountSince(ctx, "a@b.com", baseTime.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestOTPRepository_Deletes(t *testing.T) {
	repo := NewOTPRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	seedOTP(t, repo, "a@b.com", "111111", baseTime, false)
	seedOTP(t, repo, "a@b.com", "222222", baseTime.Add(time.Hour), false)
	seedOTP(t, repo, "b@b.com", "333333", baseTime, false)

	n, err := repo.DeleteExpiredBefore(ctx, baseTime.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeleteAllForEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindLatest(ctx, "a@b.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
