package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "campaign-server"

const (
	RoleGameMaster = "gm"
	RolePlayer     = "player"
)

// Claims identify the holder of an API token.
type Claims struct {
	Owner string `json:"owner"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// CanWrite reports whether the token may modify campaign data.
func (c *Claims) CanWrite() bool {
	return c.Role == RoleGameMaster
}

func checkSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("JWT secret is required but not set")
	}
	if len(secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters long")
	}
	return nil
}

// GenerateToken signs an HS256 token for owner valid for ttl.
func GenerateToken(secret, owner, role string, ttl time.Duration) (string, error) {
	if err := checkSecret(secret); err != nil {
		return "", fmt.Errorf("cannot generate token: %w", err)
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", fmt.Errorf("cannot generate token: owner is required")
	}
	switch role {
	case "":
		role = RoleGameMaster
	case RoleGameMaster, RolePlayer:
	default:
		return "", fmt.Errorf("cannot generate token: unknown role %q", role)
	}

	now := time.Now()
	claims := Claims{
		Owner: owner,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   owner,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenString string) (*Claims, error) {
	if err := checkSecret(secret); err != nil {
		return nil, fmt.Errorf("cannot validate token: %w", err)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
