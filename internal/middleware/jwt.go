package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nebula-admin/internal/domain"
)

// HS256Validator signs and validates the API's bearer tokens with a shared
// HS256 secret.
type HS256Validator struct {
	secret []byte
}

func NewHS256Validator(secret string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret)}, nil
}

// Sign mints a token for one principal.
func (v *HS256Validator) Sign(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(p.ID, 10),
		"name":  p.Name,
		"admin": p.IsAdmin,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Validate verifies a token and reconstructs the principal it was minted for.
func (v *HS256Validator) Validate(tokenString string) (domain.Principal, error) {
	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Principal{}, fmt.Errorf("token verification failed: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}

	var p domain.Principal
	if sub, ok := raw["sub"].(string); ok {
		p.ID, _ = strconv.ParseInt(sub, 10, 64)
	}
	if name, ok := raw["name"].(string); ok {
		p.Name = name
	}
	if admin, ok := raw["admin"].(bool); ok {
		p.IsAdmin = admin
	}
	if p.ID == 0 {
		return domain.Principal{}, fmt.Errorf("token carries no subject")
	}
	return p, nil
}

// BearerAuth authenticates API requests carrying "Authorization: Bearer"
// tokens and puts the principal into the context.
func BearerAuth(validator *HS256Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				Unauthorized(w, r)
				return
			}
			p, err := validator.Validate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				Unauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
		})
	}
}
