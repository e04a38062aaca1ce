package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/repository"
	"github.com/homenest/homenest-api/pkg/auth"
	"github.com/homenest/homenest-api/pkg/logger"
	"github.com/homenest/homenest-api/pkg/mailer"
	"github.com/homenest/homenest-api/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
)

// GoogleVerifier validates a Google ID token
type GoogleVerifier func(ctx context.Context, idToken string) (*model.GoogleUserInfo, error)

// AuthService handles registration, login and profile management
type AuthService struct {
	userRepo   *repository.UserRepository
	otp        *OTPService
	jwtManager *auth.JWTManager
	blacklist  *auth.Blacklist
	storage    storage.Storage
	google     GoogleVerifier
	now        func() time.Time
}

func NewAuthService(
	userRepo *repository.UserRepository,
	otp *OTPService,
	jwtManager *auth.JWTManager,
	blacklist *auth.Blacklist,
	store storage.Storage,
	googleClientID string,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		otp:        otp,
		jwtManager: jwtManager,
		blacklist:  blacklist,
		storage:    store,
		google:     idTokenVerifier(googleClientID),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var errInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "Invalid email or password")

// ==================== Register (Email + OTP) ====================

// Register creates an unverified account and emails a verification code.
// Registering again before verification replaces the pending credentials.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.OTPSentResponse, error) {
	email := normalizeEmail(req.Email)

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsEmailVerified() || existing.AuthProvider == model.AuthProviderGoogle {
			return nil, apperr.New(apperr.ErrConflict, "Email already registered")
		}
		existing.Name = req.Name
		existing.Phone = req.Phone
		existing.Password = string(hashed)
		existing.Role = req.Role
		if err := s.userRepo.ReplacePending(ctx, existing); err != nil {
			return nil, err
		}
	case errors.Is(err, apperr.ErrNotFound):
		user := &model.User{
			Name:         req.Name,
			Email:        email,
			Phone:        req.Phone,
			Password:     string(hashed),
			Role:         req.Role,
			AuthProvider: model.AuthProviderEmail,
			IsActive:     true,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				return nil, apperr.New(apperr.ErrConflict, "Email already registered")
			}
			return nil, err
		}
		logger.Info(ctx, "Member registered", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	default:
		return nil, err
	}

	return s.sendCode(ctx, email, mailer.OTPKindVerification)
}

// VerifyEmail completes registration. The code may already have been checked
// on the OTP screen, so a recently redeemed code is accepted again.
func (s *AuthService) VerifyEmail(ctx context.Context, req model.VerifyEmailRequest) (*model.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "Account not found")
		}
		return nil, err
	}

	if err := s.otp.Verify(ctx, email, req.Code, true); err != nil {
		return nil, err
	}

	if !user.IsEmailVerified() {
		now := s.now()
		if err := s.userRepo.MarkEmailVerified(ctx, user.ID, now); err != nil {
			return nil, err
		}
		user.EmailVerifiedAt = &now
	}

	return s.issueToken(user)
}

// ResendOTP sends a fresh verification code to an unverified account
func (s *AuthService) ResendOTP(ctx context.Context, req model.ResendOTPRequest) (*model.OTPSentResponse, error) {
	email := normalizeEmail(req.Email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "Account not found")
		}
		return nil, err
	}
	if user.IsEmailVerified() {
		return nil, apperr.New(apperr.ErrConflict, "Email already verified")
	}
	return s.sendCode(ctx, email, mailer.OTPKindVerification)
}

// ==================== Login ====================

// Login authenticates with email and password
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if user.AuthProvider == model.AuthProviderGoogle && user.Password == "" {
		return nil, apperr.New(apperr.ErrInvalidInput, "This account uses Google login. Please sign in with Google")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	if !user.IsEmailVerified() {
		return nil, apperr.New(apperr.ErrForbidden, "Email not verified. Please check your inbox for the verification code")
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.ErrForbidden, "This account has been deactivated")
	}

	return s.issueToken(user)
}

// LoginWithGoogle signs in with a Google ID token, creating a client account on first use
func (s *AuthService) LoginWithGoogle(ctx context.Context, req model.GoogleLoginRequest) (*model.LoginResponse, error) {
	info, err := s.google(ctx, req.IDToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "Invalid Google token", err)
	}

	info.Email = normalizeEmail(info.Email)
	user, err := s.userRepo.GetOrCreateGoogleUser(ctx, *info, s.now())
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.ErrForbidden, "This account has been deactivated")
	}

	return s.issueToken(user)
}

func idTokenVerifier(clientID string) GoogleVerifier {
	return func(ctx context.Context, token string) (*model.GoogleUserInfo, error) {
		payload, err := idtoken.Validate(ctx, token, clientID)
		if err != nil {
			return nil, err
		}

		email, ok := payload.Claims["email"].(string)
		if !ok || email == "" {
			return nil, errors.New("email not found in token")
		}
		name, _ := payload.Claims["name"].(string)
		picture, _ := payload.Claims["picture"].(string)
		verified, _ := payload.Claims["email_verified"].(bool)

		return &model.GoogleUserInfo{
			GoogleID: payload.Subject,
			Email:    email,
			Name:     name,
			Picture:  picture,
			Verified: verified,
		}, nil
	}
}

// ==================== Forgot/Reset Password ====================

// ForgotPassword emails a reset code. Unknown addresses get the same answer.
func (s *AuthService) ForgotPassword(ctx context.Context, req model.ForgotPasswordRequest) (*model.OTPSentResponse, error) {
	email := normalizeEmail(req.Email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return &model.OTPSentResponse{
				Message:   "If the email exists, a reset code has been sent",
				Email:     email,
				ExpiresAt: s.now().Add(s.otp.cfg.Expiry),
			}, nil
		}
		return nil, err
	}

	if user.AuthProvider == model.AuthProviderGoogle && user.Password == "" {
		return nil, apperr.New(apperr.ErrInvalidInput, "This account uses Google login. Password reset is not available")
	}
	return s.sendCode(ctx, email, mailer.OTPKindPasswordReset)
}

// ResetPassword redeems a reset code and sets a new password
func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	email := normalizeEmail(req.Email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "No active code for this email. Please request a new one")
		}
		return err
	}

	if err := s.otp.Verify(ctx, email, req.Code, false); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, string(hashed))
}

// ==================== Profile ====================

// GetProfile returns the member's profile
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "User not found")
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// UpdateProfile updates name and phone
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req model.UpdateProfileRequest) (*model.UserResponse, error) {
	if err := s.userRepo.UpdateProfile(ctx, userID, req.Name, req.Phone, ""); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// UploadAvatar stores a new profile picture
func (s *AuthService) UploadAvatar(ctx context.Context, userID uuid.UUID, file io.Reader, header *multipart.FileHeader) (*model.UserResponse, error) {
	if s.storage == nil {
		return nil, errStorageUnavailable
	}
	if !strings.HasPrefix(storage.ContentType(header), "image/") {
		return nil, apperr.New(apperr.ErrInvalidInput, "Avatar must be an image")
	}
	result, err := s.storage.Upload(ctx, file, header, "avatars/"+userID.String())
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateProfile(ctx, userID, "", "", result.URL); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// RegisterDevice registers a device for push notifications
func (s *AuthService) RegisterDevice(ctx context.Context, userID uuid.UUID, req model.RegisterDeviceRequest) error {
	return s.userRepo.AddDevice(ctx, userID, req.FCMToken, req.DeviceType, s.now())
}

// Logout revokes the token and marks the member offline
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.userRepo.UpdateOnlineStatus(ctx, claims.UserID, false, s.now()); err != nil {
		return err
	}
	return s.blacklist.Revoke(ctx, claims.ID, s.jwtManager.RemainingTTL(claims))
}

// ==================== Internal Helpers ====================

func (s *AuthService) sendCode(ctx context.Context, email string, kind mailer.OTPKind) (*model.OTPSentResponse, error) {
	expiresAt, err := s.otp.Generate(ctx, email, kind)
	if err != nil {
		return nil, err
	}
	return &model.OTPSentResponse{
		Message:   "Verification code sent to your email",
		Email:     email,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) issueToken(user *model.User) (*model.LoginResponse, error) {
	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}
