package jwt

import (
	"testing"
	"time"

	"hotelbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := New("secret", time.Hour)

	tok, err := svc.GenerateToken(42, domain.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{UserID: 42, Role: domain.RoleAdmin}, claims.Principal())
}

func TestValidateRejectsForeignSecretAndExpiry(t *testing.T) {
	tok, err := New("one", time.Hour).GenerateToken(1, domain.RoleMember)
	require.NoError(t, err)
	_, err = New("two", time.Hour).ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := New("one", -time.Minute).GenerateToken(1, domain.RoleMember)
	require.NoError(t, err)
	_, err = New("one", time.Hour).ValidateToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	svc := New("secret", time.Hour)
	tok, err := svc.GenerateToken(7, domain.UserRole("OWNER"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
