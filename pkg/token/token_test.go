package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/votestar/votestar-backend/pkg/token"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestFromAuthorizationHeader(t *testing.T) {
	raw, ok := token.FromAuthorizationHeader("Bearer abc.def.ghi")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", raw)

	_, ok = token.FromAuthorizationHeader("Basic abc")
	assert.False(t, ok)

	_, ok = token.FromAuthorizationHeader("Bearer ")
	assert.False(t, ok)

	_, ok = token.FromAuthorizationHeader("")
	assert.False(t, ok)
}

func TestDecodeBearerUnverified(t *testing.T) {
	token.Configure("", "", "")

	// 不验签模式下，任意密钥签出的令牌都能被解析
	raw := signToken(t, "whatever", jwt.MapClaims{
		"sub":   "auth0|12345",
		"email": "citizen@example.com",
		"name":  "Citizen One",
	})

	claims, err := token.DecodeBearer(raw)
	require.NoError(t, err)
	assert.Equal(t, "auth0|12345", claims.Subject)
	assert.Equal(t, "citizen@example.com", claims.Email)
	assert.Equal(t, "Citizen One", claims.Name)
}

func TestDecodeBearerMissingSubject(t *testing.T) {
	token.Configure("", "", "")

	raw := signToken(t, "whatever", jwt.MapClaims{"email": "x@example.com"})
	_, err := token.DecodeBearer(raw)
	assert.Error(t, err)
}

func TestDecodeBearerVerified(t *testing.T) {
	token.Configure("test-secret", "", "")
	defer token.Configure("", "", "")

	raw := signToken(t, "test-secret", jwt.MapClaims{
		"sub": "auth0|67890",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := token.DecodeBearer(raw)
	require.NoError(t, err)
	assert.Equal(t, "auth0|67890", claims.Subject)
}

func TestDecodeBearerRejectsBadSignature(t *testing.T) {
	token.Configure("test-secret", "", "")
	defer token.Configure("", "", "")

	raw := signToken(t, "wrong-secret", jwt.MapClaims{
		"sub": "auth0|67890",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := token.DecodeBearer(raw)
	assert.Error(t, err)
}

func TestDecodeBearerRejectsWrongIssuer(t *testing.T) {
	token.Configure("test-secret", "https://idp.example.com/", "")
	defer token.Configure("", "", "")

	raw := signToken(t, "test-secret", jwt.MapClaims{
		"sub": "auth0|67890",
		"iss": "https://evil.example.com/",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := token.DecodeBearer(raw)
	assert.Error(t, err)
}
