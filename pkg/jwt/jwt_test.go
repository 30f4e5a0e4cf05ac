package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubject() Subject {
	tenantID := uuid.New()
	return Subject{
		UserID:       uuid.New(),
		Username:     "alice",
		TenantID:     &tenantID,
		TokenVersion: "v1",
	}
}

func TestGeneratePair_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	sub := testSubject()

	access, refresh, err := m.GeneratePair(sub)
	require.NoError(t, err)

	claims, err := m.Validate(access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, sub.UserID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, sub.TenantID.String(), claims.TenantID)
	assert.Equal(t, "v1", claims.TokenVersion)

	claims, err = m.Validate(refresh, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, TokenRefresh, claims.TokenType)
}

func TestValidate_WrongType(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	refresh, err := m.Generate(testSubject(), TokenRefresh)
	require.NoError(t, err)

	_, err = m.Validate(refresh, TokenAccess)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestValidate_Expired(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	token, err := m.Generate(testSubject(), TokenAccess)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := NewManager("secret", time.Minute, time.Hour).Generate(testSubject(), TokenAccess)
	require.NoError(t, err)

	_, err = NewManager("other", time.Minute, time.Hour).Validate(token, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Missing(t *testing.T) {
	_, err := NewManager("secret", time.Minute, time.Hour).Validate("", TokenAccess)
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = NewManager("secret", time.Minute, time.Hour).Validate("garbage", TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerate_SuperuserHasNoTenant(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	token, err := m.Generate(Subject{UserID: uuid.New(), Username: "root", IsSuperuser: true}, TokenAccess)
	require.NoError(t, err)

	claims, err := m.Validate(token, TokenAccess)
	require.NoError(t, err)
	assert.True(t, claims.IsSuperuser)
	assert.Empty(t, claims.TenantID)
}
