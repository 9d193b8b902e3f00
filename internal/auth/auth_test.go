package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/models"
)

func TestProvider_RoundTrip(t *testing.T) {
	p := NewProvider("test-secret", time.Hour)

	token, err := p.Issue(&models.User{ID: 42, Role: models.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/friends", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	session, err := p.Session(req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), session.UserID)
	assert.True(t, session.IsAdmin())
}

func TestProvider_Rejects(t *testing.T) {
	p := NewProvider("test-secret", time.Hour)
	valid, err := p.Issue(&models.User{ID: 7, Role: models.RoleUser})
	require.NoError(t, err)

	expired := NewProvider("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	oldToken, err := expired.Issue(&models.User{ID: 7})
	require.NoError(t, err)

	otherKey, err := NewProvider("other-secret", time.Hour).Issue(&models.User{ID: 7})
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "7"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic " + valid,
		"garbage":        "Bearer not-a-token",
		"expired":        "Bearer " + oldToken,
		"wrong key":      "Bearer " + otherKey,
		"unsigned":       "Bearer " + noneToken,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			_, err := p.Session(req)
			require.Error(t, err)
			assert.Equal(t, apperrors.KindAuthentication, apperrors.KindOf(err))
		})
	}
}
