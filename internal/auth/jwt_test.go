package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-access-secret-32-chars-long!!"

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testSecret, 15*time.Minute)

	token, err := m.GenerateAccessToken("user-123", "writer@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "writer@example.com", claims.Email)
	assert.Equal(t, "quillforge", claims.Issuer)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	m := NewJWTManager(testSecret, -time.Minute)

	token, err := m.GenerateAccessToken("user-123", "writer@example.com")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	m := NewJWTManager(testSecret, 15*time.Minute)
	other := NewJWTManager("another-secret-that-is-32-chars-ok!", 15*time.Minute)

	token, err := m.GenerateAccessToken("user-123", "writer@example.com")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	m := NewJWTManager(testSecret, 15*time.Minute)
	token, err := m.GenerateAccessToken("user-123", "writer@example.com")
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserClaims(r.Context())
		require.NotNil(t, claims)
		assert.Equal(t, "user-123", claims.UserID)
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(m)(next)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc123", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/articles/generate", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
