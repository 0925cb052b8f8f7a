package adminauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivedlabs/beatstore/internal/pkg/apperror"
)

var testConfig = Config{
	SigningKey:  []byte("test-secret"),
	Issuer:      "identity.example.com",
	AdminEmails: []string{"Owner@Example.com", " ops@example.com "},
}

func TestAuthorize(t *testing.T) {
	v := NewVerifier(testConfig)

	adminToken, err := IssueToken(testConfig, "user-1", "owner@example.com", time.Hour)
	require.NoError(t, err)
	userToken, err := IssueToken(testConfig, "user-2", "fan@example.com", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testConfig, "user-1", "owner@example.com", -time.Minute)
	require.NoError(t, err)

	otherKey := testConfig
	otherKey.SigningKey = []byte("someone-else")
	forged, err := IssueToken(otherKey, "user-1", "owner@example.com", time.Hour)
	require.NoError(t, err)

	otherIssuer := testConfig
	otherIssuer.Issuer = "evil.example.com"
	wrongIssuer, err := IssueToken(otherIssuer, "user-1", "owner@example.com", time.Hour)
	require.NoError(t, err)

	noEmail, err := IssueToken(testConfig, "user-1", "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr *apperror.Error
		wantMsg string
	}{
		{name: "admin", token: adminToken},
		{name: "missing token", token: "", wantErr: apperror.ErrUnauthorized, wantMsg: "missing bearer token"},
		{name: "garbage", token: "not.a.jwt", wantErr: apperror.ErrUnauthorized, wantMsg: "invalid token"},
		{name: "expired", token: expired, wantErr: apperror.ErrUnauthorized, wantMsg: "token expired"},
		{name: "wrong key", token: forged, wantErr: apperror.ErrUnauthorized},
		{name: "wrong issuer", token: wrongIssuer, wantErr: apperror.ErrUnauthorized},
		{name: "no email claim", token: noEmail, wantErr: apperror.ErrUnauthorized},
		{name: "not on allowlist", token: userToken, wantErr: apperror.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Authorize(tt.token)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "user-1", id.UserID)
				assert.Equal(t, "owner@example.com", id.Email)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}

func TestAuthenticate_RejectsNoneAlgorithm(t *testing.T) {
	v := NewVerifier(testConfig)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "owner@example.com"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Authenticate(signed)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestIsAdminIgnoresCase(t *testing.T) {
	v := NewVerifier(testConfig)

	assert.True(t, v.IsAdmin("OWNER@example.COM"))
	assert.True(t, v.IsAdmin("ops@example.com"))
	assert.False(t, v.IsAdmin("someone@example.com"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "s")
	t.Setenv("ADMIN_EMAILS", "a@example.com, b@example.com,,")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AdminEmails)
}
