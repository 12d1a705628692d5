package auth

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload. IsAdmin is the legacy flag honoured when Role is empty.
type Claims struct {
	UserID  string `json:"userId"`
	Role    string `json:"role,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (v *Verifier) Verify(raw string) (domain.Principal, error) {
	if raw == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}

	var claims Claims
	_, err := v.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
		}
		return domain.Principal{}, fmt.Errorf("%w: invalid token: %v", domain.ErrUnauthorized, err)
	}
	if claims.UserID == "" {
		return domain.Principal{}, fmt.Errorf("%w: token has no user", domain.ErrUnauthorized)
	}

	return domain.Principal{UserID: claims.UserID, Role: roleFromClaims(claims)}, nil
}

func roleFromClaims(c Claims) domain.Role {
	switch domain.Role(c.Role) {
	case domain.RoleAdmin:
		return domain.RoleAdmin
	case domain.RoleUser:
		return domain.RoleUser
	}
	if c.IsAdmin {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}
