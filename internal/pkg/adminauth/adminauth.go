// Package adminauth verifies identity-provider tokens and the admin email allowlist.
package adminauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
	"github.com/fivedlabs/beatstore/internal/pkg/env"
)

// Claims are the token claims the back office relies on.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Config struct {
	SigningKey []byte
	Issuer     string
	// AdminEmails is the allowlist. Comparison ignores case.
	AdminEmails []string
}

func LoadConfig() (Config, error) {
	secret := env.GetEnv("AUTH_JWT_SECRET", "")
	if secret == "" {
		return Config{}, errors.New("AUTH_JWT_SECRET is required")
	}
	return Config{
		SigningKey:  []byte(secret),
		Issuer:      env.GetEnv("AUTH_JWT_ISSUER", ""),
		AdminEmails: env.GetList("ADMIN_EMAILS"),
	}, nil
}

// Identity is the verified caller.
type Identity struct {
	UserID string
	Email  string
}

type Verifier struct {
	key    []byte
	issuer string
	admins map[string]bool
}

func NewVerifier(cfg Config) *Verifier {
	admins := make(map[string]bool, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		admins[normalizeEmail(e)] = true
	}
	return &Verifier{key: cfg.SigningKey, issuer: cfg.Issuer, admins: admins}
}

// Authenticate checks the token signature, expiry and issuer.
func (v *Verifier) Authenticate(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, apperror.Unauthorized("missing bearer token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, apperror.Unauthorized("token expired")
		}
		return Identity{}, apperror.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, apperror.Unauthorized("invalid token claims")
	}
	if claims.Email == "" {
		return Identity{}, apperror.Unauthorized("token carries no email")
	}
	return Identity{UserID: claims.Subject, Email: normalizeEmail(claims.Email)}, nil
}

// Authorize requires an allowlisted admin.
func (v *Verifier) Authorize(tokenString string) (Identity, error) {
	id, err := v.Authenticate(tokenString)
	if err != nil {
		return Identity{}, err
	}
	if !v.IsAdmin(id.Email) {
		return id, apperror.Forbidden("admin access required")
	}
	return id, nil
}

func (v *Verifier) IsAdmin(email string) bool {
	return v.admins[normalizeEmail(email)]
}

// IssueToken signs a token the verifier accepts. Used by local tooling and tests.
func IssueToken(cfg Config, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
