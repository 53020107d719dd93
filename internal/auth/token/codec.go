package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretBytes is the minimum accepted HMAC secret length.
// 32 bytes matches the HS256 output size.
const MinSecretBytes = 32

// Claims is the identity payload carried by a signed token.
// Refresh tokens carry only the user id; Email and Role stay empty.
type Claims struct {
	UserID string
	Email  string
	Role   string

	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a fixed secret, TTL, and issuer.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewCodec constructs a Codec. The secret must be at least MinSecretBytes
// and the TTL positive.
func NewCodec(secret []byte, ttl time.Duration, issuer string) (*Codec, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrConfig
	}
	if ttl <= 0 {
		return nil, ErrConfig
	}
	if issuer == "" {
		return nil, ErrConfig
	}
	return &Codec{secret: secret, ttl: ttl, issuer: issuer}, nil
}

// TTL returns the codec's configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Sign issues a token for claims valid from now until now+TTL.
func (c *Codec) Sign(now time.Time, claims Claims) (string, time.Time, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	exp := now.Add(c.ttl)

	jc := jwtClaims{
		Email: claims.Email,
		Role:  claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			// Unique jti: two tokens signed in the same second must still
			// differ, or refresh rotation could mint an identical token.
			ID: uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jc).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm, issuer, and expiry, and returns the
// embedded claims. Expiry is reported as ErrTokenExpired; every other
// failure collapses into ErrInvalidToken.
func (c *Codec) Verify(tokenStr string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwtClaims{},
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrInvalidToken
	}

	jc, ok := parsed.Claims.(*jwtClaims)
	if !ok || jc.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{
		UserID: jc.Subject,
		Email:  jc.Email,
		Role:   jc.Role,
	}
	if jc.IssuedAt != nil {
		out.IssuedAt = jc.IssuedAt.Time
	}
	if jc.ExpiresAt != nil {
		out.ExpiresAt = jc.ExpiresAt.Time
	}
	return out, nil
}
