package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// Identity is the result of the capability check: who is calling and what
// they are allowed to act as. The token format itself is opaque to the
// rest of the system.
type Identity struct {
	PrincipalID string
	Name        string
	Role        string
}

func (id Identity) IsStaff() bool {
	return id.Role == RoleStaff || id.Role == RoleAdmin
}

type claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a bearer token and resolves the caller's
// identity. Any parse or validation failure means unauthenticated.
func (v *Verifier) Verify(token string) (*Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	role := c.Role
	if role == "" {
		role = RoleCustomer
	}

	return &Identity{
		PrincipalID: c.Subject,
		Name:        c.Name,
		Role:        role,
	}, nil
}
