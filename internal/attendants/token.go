package attendants

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer mints attendant session tokens.
//
// A session token is a signed HS256 JWT; the compact string is what gets
// stored on the attendant row and returned to the caller. Reissuing
// overwrites the stored value, which revokes the previous token implicitly:
// authorization always compares against the live stored fields, never against
// anything the caller presents.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// TTL exposes the configured session length.
func (i *Issuer) TTL() time.Duration { return i.ttl }

type sessionClaims struct {
	jwt.RegisteredClaims
	AttendantID string `json:"attendant_id"`
}

// IssuedToken is the result of minting a session token.
type IssuedToken struct {
	TokenID   string
	ExpiresAt time.Time
}

// Mint signs a fresh token for an attendant. The jti claim is a new uuid,
// so every mint produces a globally unique value even within the same second.
func (i *Issuer) Mint(attendantID string, now time.Time) (IssuedToken, error) {
	if attendantID == "" {
		return IssuedToken{}, ErrInvalidArgument
	}

	expiresAt := now.Add(i.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		AttendantID: attendantID,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{TokenID: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks a presented token's signature and expiry and returns the
// attendant it was minted for. It does NOT consult stored state; callers that
// need revoke-on-reissue semantics must also compare against the attendant's
// stored TokenID.
func (i *Issuer) Verify(tokenString string, now time.Time) (string, error) {
	var claims sessionClaims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", err
	}
	if claims.AttendantID == "" {
		return "", errors.New("attendant_id missing in token")
	}
	return claims.AttendantID, nil
}
