package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the caller's role ids next to the registered claims.
type Claims struct {
	Roles []int64 `json:"roles"`
	jwt.RegisteredClaims
}

type keyLookup func(ctx context.Context, token *jwt.Token) (any, error)

type Verifier struct {
	lookup  keyLookup
	options []jwt.ParserOption
}

// NewHMACVerifier accepts HS256 tokens signed with secret.
func NewHMACVerifier(secret []byte, issuer string) *Verifier {
	return &Verifier{
		lookup: func(context.Context, *jwt.Token) (any, error) {
			return secret, nil
		},
		options: parserOptions(jwt.SigningMethodHS256.Alg(), issuer),
	}
}

// NewJWKSVerifier accepts RS256 tokens whose kid resolves against url.
func NewJWKSVerifier(url, issuer string, ttl time.Duration) *Verifier {
	cache := newJWKCache(url, ttl)
	return &Verifier{
		lookup: func(ctx context.Context, token *jwt.Token) (any, error) {
			kid, ok := token.Header["kid"].(string)
			if !ok || kid == "" {
				return nil, errors.New("missing kid")
			}
			return cache.keyForKid(ctx, kid)
		},
		options: parserOptions(jwt.SigningMethodRS256.Alg(), issuer),
	}
}

func parserOptions(alg, issuer string) []jwt.ParserOption {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{alg}), jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return opts
}

func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return v.lookup(ctx, token)
	}, v.options...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("missing sub claim")
	}
	return claims, nil
}

// Issuer signs HS256 tokens for users that authenticated with a password.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret []byte, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, issuer: issuer, ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(userID int64, roles []int64) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.ttl)
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}
