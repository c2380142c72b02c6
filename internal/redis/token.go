package redis

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenInvalid is returned when a token is unknown, expired or already used.
var ErrTokenInvalid = errors.New("token is invalid or expired")

const (
	tokenKeyPrefix  = "token:"
	tokenDigits     = 6
	tokenMaxAttempt = 5
)

// tokenRecord is the cached value behind a one-time token.
type tokenRecord struct {
	Subject  string    `json:"subject"`
	IssuedAt time.Time `json:"issued_at"`
}

// TokenStore keeps single-use numeric tokens (email verification, password
// reset) with a TTL.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a token for subject under purpose.
func (s *TokenStore) Issue(ctx context.Context, purpose, subject string) (string, error) {
	data, err := json.Marshal(tokenRecord{Subject: subject, IssuedAt: time.Now()})
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < tokenMaxAttempt; attempt++ {
		token, err := NumericToken(tokenDigits)
		if err != nil {
			return "", err
		}

		ok, err := s.client.SetNX(ctx, tokenKey(purpose, token), data, s.ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
	}

	return "", fmt.Errorf("could not allocate a unique %s token", purpose)
}

// Consume returns the subject of token and deletes it.
func (s *TokenStore) Consume(ctx context.Context, purpose, token string) (string, error) {
	data, err := s.client.GetDel(ctx, tokenKey(purpose, token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTokenInvalid
		}
		return "", err
	}

	var record tokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return "", err
	}

	return record.Subject, nil
}

// NumericToken returns a zero-padded random decimal string of n digits.
func NumericToken(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

func tokenKey(purpose, token string) string {
	return tokenKeyPrefix + purpose + ":" + token
}
