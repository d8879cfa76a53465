package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = Argon2Params{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 8, KeyLen: 16}

func TestArgon2Hasher_RoundTrip(t *testing.T) {
	h := NewArgon2Hasher(fastParams)
	encoded, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := h.Verify("correct horse", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("battery staple", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2Hasher_SaltsDiffer(t *testing.T) {
	h := NewArgon2Hasher(fastParams)
	a, err := h.Hash("pw123456")
	require.NoError(t, err)
	b, err := h.Hash("pw123456")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestArgon2Hasher_Malformed(t *testing.T) {
	h := NewArgon2Hasher(fastParams)
	for _, encoded := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$aa$bb", "$argon2id$v=18$m=1,t=1,p=1$aa$bb"} {
		_, err := h.Verify("x", encoded)
		assert.ErrorIs(t, err, errMalformedHash, encoded)
	}
	_, err := h.Hash("")
	assert.Error(t, err)
}

func TestIssuerAndHMACVerifier(t *testing.T) {
	secret := []byte("test-secret")
	issuer := NewIssuer(secret, "catalog", time.Hour)
	token, expires, err := issuer.Issue(7, []int64{1, 4})
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	claims, err := NewHMACVerifier(secret, "catalog").Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, []int64{1, 4}, claims.Roles)

	_, err = NewHMACVerifier([]byte("other"), "catalog").Verify(context.Background(), token)
	assert.Error(t, err)
	_, err = NewHMACVerifier(secret, "someone-else").Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestHMACVerifier_RejectsExpired(t *testing.T) {
	secret := []byte("test-secret")
	issuer := NewIssuer(secret, "", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := issuer.Issue(1, nil)
	require.NoError(t, err)

	_, err = NewHMACVerifier(secret, "").Verify(context.Background(), token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func jwksServer(t *testing.T, kid string, key *rsa.PublicKey) *httptest.Server {
	t.Helper()
	body, err := json.Marshal(jwksResponse{Keys: []jwk{{
		Kty: "RSA",
		Kid: kid,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}}})
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, "k1", &key.PublicKey)

	claims := Claims{
		Roles: []int64{3},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	verifier := NewJWKSVerifier(srv.URL, "", time.Minute)
	got, err := verifier.Verify(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, got.Roles)

	token.Header["kid"] = "unknown"
	signed, err = token.SignedString(key)
	require.NoError(t, err)
	_, err = verifier.Verify(context.Background(), signed)
	assert.Error(t, err)
}

func TestRSAFromJWK(t *testing.T) {
	_, err := rsaFromJWK("AQAB", "")
	assert.Error(t, err)
	pub, err := rsaFromJWK("AQAB", "AQAB")
	require.NoError(t, err)
	assert.Equal(t, 65537, pub.E)
}

func TestBearerMiddleware(t *testing.T) {
	secret := []byte("test-secret")
	token, _, err := NewIssuer(secret, "", time.Hour).Issue(9, []int64{2, 5})
	require.NoError(t, err)
	mw := NewBearerMiddleware(NewHMACVerifier(secret, ""))

	e := echo.New()
	var seen []int64
	handler := mw.Handler(func(c echo.Context) error {
		seen = CallerRoles(c)
		return c.String(http.StatusOK, CallerSubject(c))
	})

	cases := []struct {
		name   string
		header string
		status int
		roles  []int64
	}{
		{"valid", "Bearer " + token, http.StatusOK, []int64{2, 5}},
		{"anonymous", "", http.StatusOK, nil},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, nil},
		{"garbage", "Bearer nope", http.StatusUnauthorized, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/categories", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			require.NoError(t, handler(e.NewContext(req, rec)))
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.roles, seen)
		})
	}
}
