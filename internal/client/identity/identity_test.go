package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestCurrentUserID_FromSubjectClaim(t *testing.T) {
	s := NewTokenSource(signedToken(t, "user-42"))
	assert.Equal(t, "user-42", s.CurrentUserID())
}

func TestCurrentUserID_SignedOut(t *testing.T) {
	s := NewTokenSource("")
	assert.Equal(t, "", s.CurrentUserID())
}

func TestCurrentUserID_MalformedToken(t *testing.T) {
	s := NewTokenSource("not-a-jwt")
	assert.Equal(t, "", s.CurrentUserID())
}

func TestSetToken_ReplacesIdentity(t *testing.T) {
	s := NewTokenSource(signedToken(t, "u1"))
	require.Equal(t, "u1", s.CurrentUserID())

	s.SetToken(signedToken(t, "u2"))
	assert.Equal(t, "u2", s.CurrentUserID())

	s.SetToken("")
	assert.Equal(t, "", s.CurrentUserID())
	assert.Equal(t, "", s.Token())
}
