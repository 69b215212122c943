package identity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried in storefront access tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTProvider validates HMAC-signed bearer tokens issued by the auth service.
// The token subject is the principal id; the role claim selects the audience.
type JWTProvider struct {
	secretKey []byte
}

// NewJWTProvider returns a provider verifying tokens against secretKey.
func NewJWTProvider(secretKey string) *JWTProvider {
	return &JWTProvider{secretKey: []byte(secretKey)}
}

var _ Provider = (*JWTProvider)(nil)

// Authenticate parses and verifies the token, returning its principal.
func (p *JWTProvider) Authenticate(ctx context.Context, credential string) (Principal, error) {
	if credential == "" {
		return Principal{}, ErrUnauthenticated
	}

	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthenticated
		}
		return p.secretKey, nil
	})
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Principal{}, ErrUnauthenticated
	}

	role := Role(claims.Role)
	switch role {
	case RoleCustomer, RoleSeller:
	default:
		return Principal{}, ErrUnauthenticated
	}

	return Principal{ID: claims.Subject, Role: role}, nil
}

// IssueToken signs an access token for a principal. Used by tests and local
// development tooling; production tokens come from the auth service.
func (p *JWTProvider) IssueToken(principal Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secretKey)
}
