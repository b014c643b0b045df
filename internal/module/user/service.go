package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service implements user operations.
type Service struct {
	repo       Repository
	otpStore   OTPStore
	email      EmailSender
	jwtManager *JWTManager
	otpExpiry  time.Duration
	logger     *zap.Logger
}

// NewService creates a new user service.
func NewService(
	repo Repository,
	otpStore OTPStore,
	email EmailSender,
	jwtManager *JWTManager,
	otpExpiryMinutes int,
	logger *zap.Logger,
) *Service {
	if otpExpiryMinutes <= 0 {
		otpExpiryMinutes = 10
	}
	return &Service{
		repo:       repo,
		otpStore:   otpStore,
		email:      email,
		jwtManager: jwtManager,
		otpExpiry:  time.Duration(otpExpiryMinutes) * time.Minute,
		logger:     logger,
	}
}

// Register creates a new user with a hashed password.
func (s *Service) Register(ctx context.Context, email, name, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Login verifies credentials and returns the user plus a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtManager.GenerateAccessToken(u)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	return u, token, expiresAt, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// RequestOTP generates a verification code and emails it to the user.
func (s *Service) RequestOTP(ctx context.Context, userID uuid.UUID) error {
	if s.otpStore == nil {
		return ErrOTPUnavailable
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	if err := s.otpStore.Save(ctx, u.ID, code, s.otpExpiry); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}

	if err := s.email.SendOTPEmail(ctx, u.Email, u.Name, code); err != nil {
		return err
	}

	s.logger.Info("otp sent", zap.String("user_id", u.ID.String()))
	return nil
}

// VerifyOTP checks the submitted code and marks the user verified on match.
func (s *Service) VerifyOTP(ctx context.Context, userID uuid.UUID, code string) error {
	if s.otpStore == nil {
		return ErrOTPUnavailable
	}
	stored, err := s.otpStore.Get(ctx, userID)
	if err != nil {
		return err
	}

	if stored != strings.TrimSpace(code) {
		return ErrOTPMismatch
	}

	if err := s.repo.MarkVerified(ctx, userID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	// Best effort: a stale code that outlives verification is harmless
	if err := s.otpStore.Delete(ctx, userID); err != nil {
		s.logger.Warn("failed to delete used otp", zap.Error(err))
	}

	return nil
}
