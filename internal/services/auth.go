package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/peoplesquare/backend/internal/config"
	"github.com/peoplesquare/backend/internal/metrics"
	"github.com/peoplesquare/backend/internal/models"
	"github.com/peoplesquare/backend/internal/repository"
	"github.com/peoplesquare/backend/internal/utils"
	"github.com/peoplesquare/backend/pkg/logger"
	"github.com/peoplesquare/backend/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrEmailExists         = response.NewConflict("User with this email already exists")
	ErrInvalidCredentials  = response.NewUnauthorized("Invalid email or password")
	ErrUserNotFound        = response.NewNotFound("User not found")
	ErrInvalidResetCode    = response.NewBadRequest("Invalid or expired verification code")
	errCredentialsRequired = response.NewBadRequest("Email and password are required")
	errResetFieldsRequired = response.NewBadRequest("Email and new password are required")
	errValidEmailRequired  = response.NewBadRequest("Valid email is required")
)

type AuthService struct {
	db       *gorm.DB
	users    *repository.UserRepository
	resets   *repository.PasswordResetRepository
	mailer   Mailer
	metrics  *metrics.Metrics
	tokenTTL time.Duration
	resetCfg config.PasswordResetConfig
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, jwtCfg config.JWTConfig, resetCfg config.PasswordResetConfig, mailer Mailer, m *metrics.Metrics) *AuthService {
	if mailer == nil {
		mailer = noopMailer{}
	}
	return &AuthService{
		db:       db,
		users:    repository.NewUserRepository(db),
		resets:   repository.NewPasswordResetRepository(db),
		mailer:   mailer,
		metrics:  m,
		tokenTTL: jwtCfg.TTL(),
		resetCfg: resetCfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email            string `json:"email"`
	NewPassword      string `json:"newPassword"`
	VerificationCode string `json:"verificationCode"`
}

type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// ForgotPasswordResult tells the caller whether a code was issued. Code is
// only filled when codes are exposed in responses.
type ForgotPasswordResult struct {
	Issued           bool   `json:"-"`
	VerificationCode string `json:"verificationCode,omitempty"`
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// Register creates an account and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (result *AuthResult, err error) {
	defer func() { s.metrics.AuthEvent("register", err == nil) }()

	in := utils.SanitizeUser(utils.UserFields{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if errs := utils.ValidateUser(in, true); len(errs) > 0 {
		return nil, response.NewValidation(errs)
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		FullName: in.FullName,
		Email:    in.Email,
		Role:     in.Role,
		Password: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return &AuthResult{User: user, Token: token}, nil
}

// Login fails with the same message for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (result *AuthResult, err error) {
	defer func() { s.metrics.AuthEvent("login", err == nil) }()

	if req.Email == "" || req.Password == "" {
		return nil, errCredentialsRequired
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// ForgotPassword issues a six digit code for known accounts. Unknown
// addresses succeed without issuing anything.
func (s *AuthService) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) (result *ForgotPasswordResult, err error) {
	defer func() { s.metrics.AuthEvent("forgot_password", err == nil) }()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !utils.ValidateEmail(email) {
		return nil, errValidEmailRequired
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &ForgotPasswordResult{}, nil
		}
		return nil, err
	}

	code, err := generateResetCode()
	if err != nil {
		return nil, err
	}

	ttl := s.resetTTL()
	record := &models.PasswordResetCode{
		UserID:    user.ID,
		CodeHash:  hashResetCode(code),
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.resets.Create(ctx, record); err != nil {
		return nil, err
	}

	if s.mailer.Enabled() {
		if err := s.mailer.SendResetCode(ctx, user.Email, user.FullName, code, ttl); err != nil {
			logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to deliver reset code")
		}
	}

	result = &ForgotPasswordResult{Issued: true}
	if s.resetCfg.ExposeCode {
		result.VerificationCode = code
	}
	return result, nil
}

// ResetPassword replaces the password hash. A verification code is checked
// when one is supplied, and is mandatory when the service requires codes.
func (s *AuthService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (err error) {
	defer func() { s.metrics.AuthEvent("reset_password", err == nil) }()

	if req.Email == "" || req.NewPassword == "" {
		return errResetFieldsRequired
	}
	if msg := utils.ValidatePassword(req.NewPassword); msg != "" {
		return response.NewBadRequest(msg)
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code := strings.TrimSpace(req.VerificationCode)
	if s.resetCfg.RequireCode && code == "" {
		return ErrInvalidResetCode
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resets := s.resets.WithTx(tx)
		if code != "" {
			record, err := resets.FindUsable(ctx, user.ID, hashResetCode(code), now)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrInvalidResetCode
				}
				return err
			}
			if err := resets.MarkUsed(ctx, record.ID, now); err != nil {
				return err
			}
		}
		if err := s.users.WithTx(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return resets.InvalidateForUser(ctx, user.ID, now)
	})
}

func (s *AuthService) resetTTL() time.Duration {
	if s.resetCfg.CodeTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.resetCfg.CodeTTLMinutes) * time.Minute
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func hashResetCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
