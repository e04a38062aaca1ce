package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
	"github.com/homenest/homenest-api/internal/testutil"
	"github.com/homenest/homenest-api/pkg/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type authFixture struct {
	svc    *AuthService
	otp    *otpFixture
	db     *gorm.DB
	jwt    *auth.JWTManager
	bl     *auth.Blacklist
	redis  *miniredis.Miniredis
	users  *repository.UserRepository
	sender *fakeSender
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	otp := newOTPFixture(t)
	mr := miniredis.RunT(t)
	bl := auth.NewBlacklist(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	users := repository.NewUserRepository(otp.db)

	svc := NewAuthService(users, otp.svc, jwtManager, bl, nil, "")
	svc.now = otp.clock.Now
	return &authFixture{svc: svc, otp: otp, db: otp.db, jwt: jwtManager, bl: bl, redis: mr, users: users, sender: otp.sender}
}

func registerReq(email string) model.RegisterRequest {
	return model.RegisterRequest{Name: "Lan Pham", Email: email, Password: "secret123", Phone: "0901", Role: model.RoleClient}
}

func TestAuthService_RegisterAndVerify(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sent, err := f.svc.Register(ctx, registerReq("Lan@Example.com"))
	require.NoError(t, err)
	assert.Equal(t, "lan@example.com", sent.Email)
	assert.Equal(t, baseTime.Add(5*time.Minute), sent.ExpiresAt)
	assert.Equal(t, 1, f.sender.count())

	_, err = f.svc.Login(ctx, model.LoginRequest{Email: "lan@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// the OTP screen checks the code first, then registration completes with it
	require.NoError(t, f.otp.svc.Verify(ctx, "lan@example.com", "100001", false))
	f.otp.clock.Advance(time.Minute)
	resp, err := f.svc.VerifyEmail(ctx, model.VerifyEmailRequest{Email: "lan@example.com", Code: "100001"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.User.EmailVerified)
	assert.Equal(t, model.RoleClient, resp.User.Role)

	claims, err := f.jwt.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "client", claims.Role)

	login, err := f.svc.Login(ctx, model.LoginRequest{Email: "LAN@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = f.svc.Login(ctx, model.LoginRequest{Email: "lan@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = f.svc.Login(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.svc.Register(ctx, registerReq("lan@example.com"))
	assert.ErrorIs(t, err, apperr.ErrConflict)
	_, err = f.svc.ResendOTP(ctx, model.ResendOTPRequest{Email: "lan@example.com"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestAuthService_RegisterAgainReplacesPending(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerReq("agent@example.com"))
	require.NoError(t, err)

	req := registerReq("agent@example.com")
	req.Name = "Minh Tran"
	req.Role = model.RoleAgent
	f.otp.clock.Advance(time.Second)
	_, err = f.svc.Register(ctx, req)
	require.NoError(t, err)

	user, err := f.users.FindByEmail(ctx, "agent@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Minh Tran", user.Name)
	assert.Equal(t, model.RoleAgent, user.Role)
	assert.Equal(t, 2, f.sender.count())

	_, err = f.svc.VerifyEmail(ctx, model.VerifyEmailRequest{Email: "agent@example.com", Code: "100001"})
	assert.ErrorIs(t, err, apperr.ErrMismatch)
	_, err = f.svc.VerifyEmail(ctx, model.VerifyEmailRequest{Email: "agent@example.com", Code: "100002"})
	assert.NoError(t, err)
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	testutil.CreateUser(t, f.db, model.RoleClient, "reset@example.com")

	sent, err := f.svc.ForgotPassword(ctx, model.ForgotPasswordRequest{Email: "ghost@example.com"})
	require.NoError(t, err)
	assert.Contains(t, sent.Message, "If the email exists")
	assert.Equal(t, 0, f.sender.count())

	_, err = f.svc.ForgotPassword(ctx, model.ForgotPasswordRequest{Email: "reset@example.com"})
	require.NoError(t, err)
	require.Equal(t, 1, f.sender.count())
	assert.Contains(t, f.sender.sent[0].Subject, "Reset")

	err = f.svc.ResetPassword(ctx, model.ResetPasswordRequest{Email: "reset@example.com", Code: "999999", NewPassword: "newpass1"})
	assert.ErrorIs(t, err, apperr.ErrMismatch)

	require.NoError(t, f.svc.ResetPassword(ctx, model.ResetPasswordRequest{Email: "reset@example.com", Code: "100001", NewPassword: "newpass1"}))
	_, err = f.svc.Login(ctx, model.LoginRequest{Email: "reset@example.com", Password: "newpass1"})
	assert.NoError(t, err)

	// reset codes are single use, no grace
	err = f.svc.ResetPassword(ctx, model.ResetPasswordRequest{Email: "reset@example.com", Code: "100001", NewPassword: "another1"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAuthService_LoginWithGoogle(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.svc.google = func(_ context.Context, token string) (*model.GoogleUserInfo, error) {
		if token != "good-token" {
			return nil, errors.New("bad signature")
		}
		return &model.GoogleUserInfo{GoogleID: "g-123", Email: "G@Example.com", Name: "Hoa", Verified: true}, nil
	}

	_, err := f.svc.LoginWithGoogle(ctx, model.GoogleLoginRequest{IDToken: "forged"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	resp, err := f.svc.LoginWithGoogle(ctx, model.GoogleLoginRequest{IDToken: "good-token"})
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", resp.User.Email)
	assert.Equal(t, model.AuthProviderGoogle, resp.User.AuthProvider)
	assert.True(t, resp.User.EmailVerified)

	again, err := f.svc.LoginWithGoogle(ctx, model.GoogleLoginRequest{IDToken: "good-token"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, again.User.ID)

	_, err = f.svc.Login(ctx, model.LoginRequest{Email: "g@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, f.db, model.RoleAgent, "out@example.com")

	token, err := f.jwt.GenerateToken(user.ID, user.Email, user.Name, string(user.Role))
	require.NoError(t, err)
	claims, err := f.jwt.ValidateToken(token)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims))
	revoked, err := f.bl.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_DeactivatedAccountCannotLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registerReq("off@example.com"))
	require.NoError(t, err)
	resp, err := f.svc.VerifyEmail(ctx, model.VerifyEmailRequest{Email: "off@example.com", Code: "100001"})
	require.NoError(t, err)
	require.NoError(t, f.users.SetActive(ctx, resp.User.ID, false))

	_, err = f.svc.Login(ctx, model.LoginRequest{Email: "off@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
