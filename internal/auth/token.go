package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/quotation-service/internal/errs"
	"github.com/Dan9191/quotation-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL applies when TokenConfig.ExpiresIn is zero.
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken is returned for every verification failure. Callers never
// learn whether the signature, the expiry or the payload was at fault.
var ErrInvalidToken = errs.Authentication("Invalid token.")

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	Secret    string
	ExpiresIn time.Duration
}

// Claims is the signed payload of an access token.
type Claims struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the user view embedded in the claims.
func (c *Claims) Identity() models.PublicUser {
	return models.PublicUser{
		ID:       c.ID,
		Username: c.Username,
		Email:    c.Email,
		Role:     c.Role,
	}
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager validates cfg and returns a manager.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if cfg.ExpiresIn < 0 {
		return nil, fmt.Errorf("token expiry must not be negative, got %s", cfg.ExpiresIn)
	}
	ttl := cfg.ExpiresIn
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(cfg.Secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token carrying u's identity.
func (m *TokenManager) Issue(u models.PublicUser) (string, error) {
	now := m.now()
	claims := Claims{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errs.Internal("failed to generate token", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the claims.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, &errs.Error{Kind: errs.KindAuthentication, Message: ErrInvalidToken.Message, Err: err}
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
