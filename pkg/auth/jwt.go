package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes the two token kinds a session uses.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims are the session claims. Permissions carry the wire form
// "module:action[:resource]"; authorization reads this snapshot only and
// never queries storage per request.
type Claims struct {
	UserID      uuid.UUID `json:"user_id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	BranchID    uuid.UUID `json:"branch_id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions,omitempty"`
	TokenType   TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// Config holds JWT signing configuration.
type Config struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// JWTManager issues and validates session tokens.
type JWTManager struct {
	cfg Config
	now func() time.Time
}

func NewJWTManager(cfg Config) *JWTManager {
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL == 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &JWTManager{cfg: cfg, now: time.Now}
}

// AccessTokenTTL reports the configured access token lifetime.
func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.cfg.AccessTokenTTL
}

// Generate issues a signed token of the given type. Refresh tokens carry
// no permission snapshot; the snapshot is rebuilt at refresh time.
func (m *JWTManager) Generate(claims Claims, tokenType TokenType) (string, error) {
	ttl := m.cfg.AccessTokenTTL
	if tokenType == RefreshToken {
		ttl = m.cfg.RefreshTokenTTL
		claims.Permissions = nil
	}

	now := m.now()
	claims.TokenType = tokenType
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.cfg.Issuer,
		Subject:   claims.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a token and checks it is of the expected
// type, so a refresh token can never authenticate an API request.
func (m *JWTManager) Validate(tokenString string, expected TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(m.cfg.Secret), nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != expected {
		return nil, fmt.Errorf("wrong token type: expected %s", expected)
	}
	return claims, nil
}
