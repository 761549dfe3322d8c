package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/backend/internal/infrastructure/config"
)

var testJWTConfig = config.JWTConfig{
	Secret: "test-secret-key-at-least-32-chars",
	Issuer: "invoicer",
	Leeway: 30 * time.Second,
}

func TestVerifier_RoundTrip(t *testing.T) {
	now := time.Now()
	tenantID := uuid.New()
	token, err := NewIssuer(testJWTConfig, 15*time.Minute).Issue("user-42", tenantID, now)
	require.NoError(t, err)

	claims, err := NewVerifier(testJWTConfig).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)

	got, err := claims.TenantUUID()
	require.NoError(t, err)
	assert.Equal(t, tenantID, got)
}

func TestVerifier_WithoutTenant(t *testing.T) {
	token, err := NewIssuer(testJWTConfig, 0).Issue("user-42", uuid.Nil, time.Now())
	require.NoError(t, err)

	claims, err := NewVerifier(testJWTConfig).Verify(token)
	require.NoError(t, err, "tenant-less tokens are valid for onboarding")
	_, err = claims.TenantUUID()
	assert.ErrorIs(t, err, ErrMissingTenantID)
}

func TestVerifier_Rejections(t *testing.T) {
	v := NewVerifier(testJWTConfig)
	issuer := NewIssuer(testJWTConfig, time.Minute)
	tenantID := uuid.New()

	t.Run("expired beyond leeway", func(t *testing.T) {
		token, err := issuer.Issue("u", tenantID, time.Now().Add(-2*time.Minute))
		require.NoError(t, err)
		_, err = v.Verify(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("expired within leeway", func(t *testing.T) {
		token, err := issuer.Issue("u", tenantID, time.Now().Add(-time.Minute-10*time.Second))
		require.NoError(t, err)
		_, err = v.Verify(token)
		assert.NoError(t, err)
	})

	t.Run("not yet valid", func(t *testing.T) {
		token, err := issuer.Issue("u", tenantID, time.Now().Add(time.Hour))
		require.NoError(t, err)
		_, err = v.Verify(token)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := testJWTConfig
		other.Secret = "another-secret-another-secret-123"
		token, err := NewIssuer(other, time.Minute).Issue("u", tenantID, time.Now())
		require.NoError(t, err)
		_, err = v.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := testJWTConfig
		other.Issuer = "someone-else"
		token, err := NewIssuer(other, time.Minute).Issue("u", tenantID, time.Now())
		require.NoError(t, err)
		_, err = v.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := issuer.Issue("", tenantID, time.Now())
		require.NoError(t, err)
		_, err = v.Verify(token)
		assert.ErrorIs(t, err, ErrMissingSubject)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "u", Issuer: testJWTConfig.Issuer},
		}).SignedString([]byte(testJWTConfig.Secret))
		require.NoError(t, err)
		_, err = v.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_TenantUUID(t *testing.T) {
	_, err := (&Claims{TenantID: "not-a-uuid"}).TenantUUID()
	assert.ErrorIs(t, err, ErrMissingTenantID)
}
