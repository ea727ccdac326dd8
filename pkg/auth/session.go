package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/datapress/datapress/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

// SessionClaim is the payload of a datapress session token.
type SessionClaim struct {
	jwt.RegisteredClaims

	// private claims
	OrganisationId string `json:"datapress/organisationId"`
	Role           string `json:"datapress/role"`
}

// Issuer signs and verifies session tokens with a shared HS256 secret.
type Issuer struct {
	secret []byte
	expiry time.Duration
}

func NewIssuer(secret []byte, expiry time.Duration) *Issuer {
	return &Issuer{secret: secret, expiry: expiry}
}

func (i *Issuer) Issue(u domain.User) (string, error) {
	now := time.Now()
	claim := SessionClaim{
		RegisteredClaims: jwt.RegisteredClaims{
			// jti
			ID: uuid.NewString(),

			// sub
			Subject: u.Id,

			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},

		// private claims
		OrganisationId: u.OrganisationId,
		Role:           u.Role.String(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claim).SignedString(i.secret)
}

// Verify parses token and returns the identity it asserts.
//
// Returns ErrInvalidToken for anything but a well-formed, unexpired
// HS256 token signed with the issuer's secret.
func (i *Issuer) Verify(token string) (domain.Identity, error) {
	claim := new(SessionClaim)
	parsed, err := jwt.ParseWithClaims(
		token, claim,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	role, err := domain.AsUserRole(claim.Role)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return domain.Identity{
		UserId:         claim.Subject,
		OrganisationId: claim.OrganisationId,
		Role:           role,
	}, nil
}
