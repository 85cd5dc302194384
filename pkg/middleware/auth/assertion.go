package auth

import (
	"errors"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errNoKey       = errors.New("assertion key not configured")
	errInvalid     = errors.New("invalid assertion")
	errBadIssuer   = errors.New("bad issuer")
	errBadAudience = errors.New("bad audience")
	errNoSubject   = errors.New("missing uid")
)

type assertionClaims struct {
	jwt.RegisteredClaims
	UID   string   `json:"uid"`
	Role  string   `json:"role"`
	Roles []string `json:"roles"`
}

func (m *Middleware) validateAssertion(raw string) (User, error) {
	if m.key == nil {
		return User{}, errNoKey
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.leeway),
	)

	var claims assertionClaims
	tok, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	})
	if err != nil || !tok.Valid {
		return User{}, errInvalid
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return User{}, errBadIssuer
	}
	if m.audience != "" && !slices.Contains(claims.Audience, m.audience) {
		return User{}, errBadAudience
	}

	username := claims.UID
	if username == "" {
		username = claims.Subject
	}
	if username == "" {
		return User{}, errNoSubject
	}
	role := claims.Role
	if role == "" && len(claims.Roles) > 0 {
		role = claims.Roles[0]
	}
	return User{
		Username:             username,
		AuthenticationSource: AuthenticationSource{Provider: "assert"},
		Role:                 Role{Name: role},
	}, nil
}
