package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseflow/iep-compliance-api/internal/models"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService("test-secret")
	token := signToken(t, "test-secret", &models.JWTClaims{
		UserID: "user-1",
		Email:  "teacher@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "teacher@example.com", claims.Email)
}

func TestAuthServiceValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService("test-secret")
	token := signToken(t, "other-secret", &models.JWTClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	svc := NewAuthService("test-secret")
	token := signToken(t, "test-secret", &models.JWTClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
}

func TestAuthServiceValidateTokenRejectsUnsignedAlg(t *testing.T) {
	svc := NewAuthService("test-secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}
