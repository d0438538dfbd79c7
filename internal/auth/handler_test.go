package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Kyz7/sitecms/internal/auth"
	"github.com/Kyz7/sitecms/internal/config"
	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/testutils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)
	testutils.CreateTestAdmin(t, database.DB, "editor", "password123")

	t.Run("Success - Valid credentials", func(t *testing.T) {
		body := map[string]interface{}{"username": "editor", "password": "password123"}

		resp, err := testutils.MakeRequest(app, "POST", "/api/auth/login", body, "")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		assert.Contains(t, resp.Header().Get("Set-Cookie"), auth.CookieName+"=")
		assert.Contains(t, strings.ToLower(resp.Header().Get("Set-Cookie")), "httponly")

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.True(t, result.Success)
		assert.Equal(t, "Login successful", result.Message)

		data := result.Data.(map[string]interface{})
		assert.NotEmpty(t, data["token"])
		assert.NotEmpty(t, data["expiresAt"])
		user := data["user"].(map[string]interface{})
		assert.Equal(t, "editor", user["username"])
		assert.Nil(t, user["passwordHash"])
	})

	t.Run("Error - Wrong password", func(t *testing.T) {
		body := map[string]interface{}{"username": "editor", "password": "wrong-password"}

		resp, err := testutils.MakeRequest(app, "POST", "/api/auth/login", body, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, "Invalid username or password", result.Error)
	})

	t.Run("Error - Unknown user gets the same message", func(t *testing.T) {
		body := map[string]interface{}{"username": "ghost", "password": "password123"}

		resp, err := testutils.MakeRequest(app, "POST", "/api/auth/login", body, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, "Invalid username or password", result.Error)
		assert.Equal(t, "UNAUTHORIZED", result.Code)
	})

	t.Run("Error - Missing fields", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "POST", "/api/auth/login", map[string]interface{}{"username": "editor"}, "")
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
		testutils.AssertError(t, resp, "VALIDATION_ERROR")
	})
}

func TestLoginRateLimit(t *testing.T) {
	app := testutils.SetupTestApp(t)
	body := map[string]interface{}{"username": "nobody", "password": "password123"}

	for i := 0; i < 10; i++ {
		resp, err := testutils.MakeRequest(app, "POST", "/api/auth/login", body, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code, "attempt %d", i+1)
	}

	resp, err := testutils.MakeRequest(app, "POST", "/api/auth/login", body, "")
	require.NoError(t, err)
	assert.Equal(t, 429, resp.Code)
	testutils.AssertError(t, resp, "RATE_LIMITED")
}

func TestMeHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)
	user := testutils.CreateTestAdmin(t, database.DB, "editor", "password123")
	token := testutils.GetAuthToken(t, user)

	t.Run("Success - Bearer token", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/api/auth/me", nil, token)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, "editor", data["username"])
	})

	t.Run("Success - Session cookie", func(t *testing.T) {
		resp, err := testutils.MakeRequestWithHeaders(app, "GET", "/api/auth/me", map[string]string{
			"Cookie": auth.CookieName + "=" + token,
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
	})

	t.Run("Error - No token", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "GET", "/api/auth/me", nil, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
		testutils.AssertError(t, resp, "UNAUTHORIZED")
	})

	t.Run("Error - Tampered token", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

		resp, err := testutils.MakeRequest(app, "GET", "/api/auth/me", nil, tampered)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
	})

	t.Run("Error - Expired token", func(t *testing.T) {
		claims := auth.Claims{
			UserID:   user.ID,
			Username: user.Username,
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
			},
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.Current.JWTSecret))
		require.NoError(t, err)

		resp, err := testutils.MakeRequest(app, "GET", "/api/auth/me", nil, expired)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
	})
}

func TestLogoutHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)

	resp, err := testutils.MakeRequest(app, "POST", "/api/auth/logout", nil, "")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code)
	assert.Contains(t, resp.Header().Get("Set-Cookie"), auth.CookieName+"=;")
}

func TestChangePasswordHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)
	user := testutils.CreateTestAdmin(t, database.DB, "editor", "password123")
	token := testutils.GetAuthToken(t, user)

	t.Run("Error - Short new password", func(t *testing.T) {
		body := map[string]interface{}{"currentPassword": "password123", "newPassword": "short"}
		resp, err := testutils.MakeRequest(app, "PUT", "/api/auth/password", body, token)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
	})

	t.Run("Error - Wrong current password", func(t *testing.T) {
		body := map[string]interface{}{"currentPassword": "nope-nope", "newPassword": "new-password-1"}
		resp, err := testutils.MakeRequest(app, "PUT", "/api/auth/password", body, token)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, "Current password is incorrect", result.Error)
	})

	t.Run("Success - Password changed", func(t *testing.T) {
		body := map[string]interface{}{"currentPassword": "password123", "newPassword": "new-password-1"}
		resp, err := testutils.MakeRequest(app, "PUT", "/api/auth/password", body, token)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		login := map[string]interface{}{"username": "editor", "password": "new-password-1"}
		resp, err = testutils.MakeRequest(app, "POST", "/api/auth/login", login, "")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
	})
}
