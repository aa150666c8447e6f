package oidc

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://id.example.com/realms/fiction"
	testAudience = "fiction-api"
)

func newTestVerifier(t *testing.T) (*Verifier, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	v, err := New(string(pubPEM), testIssuer, testAudience)
	require.NoError(t, err)

	return v, key
}

func signTestToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestParsePrincipal(t *testing.T) {
	v, key := newTestVerifier(t)

	signed := signTestToken(t, key, jwt.MapClaims{
		"iss":  testIssuer,
		"aud":  testAudience,
		"sub":  "subject-1",
		"name": "Ada",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"realm_access": map[string]interface{}{
			"roles": []interface{}{"author", "offline_access"},
		},
	})

	principal, err := v.ParsePrincipal(signed)
	require.NoError(t, err)

	assert.Equal(t, "subject-1", principal.Subject)
	assert.Equal(t, "Ada", principal.Name)
	assert.True(t, principal.HasRole("author"))
	assert.False(t, principal.HasRole("admin"))
}

func TestParsePrincipal_WrongIssuer(t *testing.T) {
	v, key := newTestVerifier(t)

	signed := signTestToken(t, key, jwt.MapClaims{
		"iss": "https://elsewhere.example.com",
		"aud": testAudience,
		"sub": "subject-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.ParsePrincipal(signed)
	assert.Error(t, err)
}

func TestParsePrincipal_Expired(t *testing.T) {
	v, key := newTestVerifier(t)

	signed := signTestToken(t, key, jwt.MapClaims{
		"iss": testIssuer,
		"aud": testAudience,
		"sub": "subject-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := v.ParsePrincipal(signed)
	assert.Error(t, err)
}

func TestParsePrincipal_MissingSubject(t *testing.T) {
	v, key := newTestVerifier(t)

	signed := signTestToken(t, key, jwt.MapClaims{
		"iss": testIssuer,
		"aud": testAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.ParsePrincipal(signed)
	assert.Error(t, err)
}
