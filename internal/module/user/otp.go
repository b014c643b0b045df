package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:"

// OTPStore persists one-time verification codes with an expiry.
// The Redis implementation is the production store; tests inject an
// in-memory one.
type OTPStore interface {
	Save(ctx context.Context, userID uuid.UUID, code string, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

type redisOTPStore struct {
	client redis.UniversalClient
}

// NewRedisOTPStore creates a Redis-backed OTP store.
func NewRedisOTPStore(client redis.UniversalClient) OTPStore {
	return &redisOTPStore{client: client}
}

func (s *redisOTPStore) key(userID uuid.UUID) string {
	return otpKeyPrefix + userID.String()
}

func (s *redisOTPStore) Save(ctx context.Context, userID uuid.UUID, code string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(userID), code, ttl).Err()
}

func (s *redisOTPStore) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrOTPNotFound
		}
		return "", err
	}
	return val, nil
}

func (s *redisOTPStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

// generateOTPCode returns a zero-padded 6-digit numeric code.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
