package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/stayonbrand/gatekeeper/internal/logging"
)

const (
	resetKeyPrefix = "gk:reset:"
	resetCodeTTL   = 15 * time.Minute
)

// Claims are the JWT claims minted by the dev provider.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type account struct {
	id           string
	email        string
	username     string
	passwordHash []byte
}

// DevProvider is an in-memory identity backend: bcrypt password hashes,
// HS256 access tokens, and reset codes parked in Redis. Reset emails are
// not sent; the code is logged instead.
type DevProvider struct {
	mu       sync.Mutex
	accounts map[string]*account // keyed by email

	rdb      redis.UniversalClient
	secret   []byte
	tokenTTL time.Duration
	logger   logging.Logger
}

var _ Provider = (*DevProvider)(nil)

func NewDevProvider(rdb redis.UniversalClient, secret []byte, tokenTTL time.Duration, logger logging.Logger) *DevProvider {
	return &DevProvider{
		accounts: make(map[string]*account),
		rdb:      rdb,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (p *DevProvider) Signup(ctx context.Context, username, email, password string) (*SignupResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.accounts[email]; ok {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc := &account{
		id:           uuid.NewString(),
		email:        email,
		username:     username,
		passwordHash: hash,
	}
	p.accounts[email] = acc

	return &SignupResult{
		Message: "User registered successfully",
		User:    &User{ID: acc.id, Email: acc.email, Username: acc.username},
	}, nil
}

func (p *DevProvider) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	p.mu.Lock()
	acc, ok := p.accounts[email]
	p.mu.Unlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := p.mintToken(acc)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: token,
		User:        &User{ID: acc.id, Email: acc.email, Username: acc.username},
	}, nil
}

func (p *DevProvider) mintToken(acc *account) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
		},
		Email: acc.email,
	})

	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates an access token, returning its claims.
func (p *DevProvider) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

func (p *DevProvider) ForgotPassword(ctx context.Context, email string) error {
	p.mu.Lock()
	_, ok := p.accounts[email]
	p.mu.Unlock()

	if !ok {
		return ErrUserNotFound
	}

	code, err := sixDigitCode()
	if err != nil {
		return err
	}
	if err := p.rdb.Set(ctx, resetKeyPrefix+email, code, resetCodeTTL).Err(); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	// Email delivery is the real provider's job; surface the code for
	// local development.
	p.logger.Info(ctx, "password reset code issued", "email", email, "code", code)
	return nil
}

func (p *DevProvider) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	stored, err := p.rdb.Get(ctx, resetKeyPrefix+email).Result()
	if err == redis.Nil {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("failed to load reset code: %w", err)
	}
	if stored != code {
		return ErrInvalidCode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	p.mu.Lock()
	acc, ok := p.accounts[email]
	if ok {
		acc.passwordHash = hash
	}
	p.mu.Unlock()

	if !ok {
		return ErrUserNotFound
	}

	_ = p.rdb.Del(ctx, resetKeyPrefix+email).Err()
	return nil
}

func sixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
