package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/MarkMiraclee/purchaseorder/internal/models"
)

// clockSkew is subtracted from the not-before claim so a token is usable by
// a verifier whose clock runs slightly behind the issuer.
const clockSkew = 30 * time.Millisecond

var (
	ErrMalformed        = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token is expired or not valid yet")
	ErrIssuerMismatch   = errors.New("token issuer mismatch")
	ErrAudienceMismatch = errors.New("token audience mismatch")
)

type TokenConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	Validity time.Duration
}

type Claims struct {
	jwt.RegisteredClaims
	User string `json:"usr"`
}

// Codec issues and verifies bearer tokens carrying a serialized UserContext.
type Codec struct {
	cfg TokenConfig
	now func() time.Time
}

func NewCodec(cfg TokenConfig) *Codec {
	return &Codec{cfg: cfg, now: time.Now}
}

// WithClock returns a copy of the codec reading time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) Issue(user models.UserContext) (string, time.Time, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("marshal user claim: %w", err)
	}

	now := c.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Audience:  jwt.ClaimStrings{c.cfg.Audience},
			NotBefore: jwt.NewNumericDate(now.Add(-clockSkew)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.Validity)),
		},
		User: string(payload),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, claims.ExpiresAt.Time, nil
}

func (c *Codec) Verify(tokenString string) (models.UserContext, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.cfg.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrSignatureInvalid) {
			return models.UserContext{}, ErrInvalidSignature
		}
		return models.UserContext{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	now := c.now().UTC()
	if !claims.VerifyExpiresAt(now, true) || !claims.VerifyNotBefore(now, true) {
		return models.UserContext{}, ErrExpired
	}
	if !claims.VerifyIssuer(c.cfg.Issuer, true) {
		return models.UserContext{}, ErrIssuerMismatch
	}
	if !claims.VerifyAudience(c.cfg.Audience, true) {
		return models.UserContext{}, ErrAudienceMismatch
	}

	var user models.UserContext
	if err := json.Unmarshal([]byte(claims.User), &user); err != nil {
		return models.UserContext{}, fmt.Errorf("%w: user claim: %v", ErrMalformed, err)
	}
	if user.Username == "" {
		return models.UserContext{}, fmt.Errorf("%w: user claim has no username", ErrMalformed)
	}

	return user, nil
}
