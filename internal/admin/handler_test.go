package admin_test

import (
	"strconv"
	"testing"

	"github.com/Kyz7/sitecms/internal/admin"
	"github.com/Kyz7/sitecms/internal/auth"
	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestCreateUserHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)
	token := testutils.AdminToken(t)

	t.Run("Success - Create admin", func(t *testing.T) {
		body := map[string]interface{}{"username": "second", "password": "password123"}
		resp, err := testutils.MakeRequest(app, "POST", "/api/admin/users", body, token)
		require.NoError(t, err)
		assert.Equal(t, 201, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, "second", data["username"])
		assert.Nil(t, data["passwordHash"])
	})

	t.Run("Error - Duplicate username", func(t *testing.T) {
		body := map[string]interface{}{"username": "second", "password": "password123"}
		resp, err := testutils.MakeRequest(app, "POST", "/api/admin/users", body, token)
		require.NoError(t, err)
		assert.Equal(t, 409, resp.Code)
		testutils.AssertError(t, resp, "CONFLICT")
	})

	t.Run("Error - Short password", func(t *testing.T) {
		body := map[string]interface{}{"username": "third", "password": "short"}
		resp, err := testutils.MakeRequest(app, "POST", "/api/admin/users", body, token)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
	})

	t.Run("Error - No token", func(t *testing.T) {
		body := map[string]interface{}{"username": "fourth", "password": "password123"}
		resp, err := testutils.MakeRequest(app, "POST", "/api/admin/users", body, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)

		var count int64
		database.DB.Model(&models.AdminUser{}).Where("username = ?", "fourth").Count(&count)
		assert.Zero(t, count)
	})
}

func TestListUsersHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)
	token := testutils.AdminToken(t)
	testutils.CreateTestAdmin(t, database.DB, "zed", "password123")

	resp, err := testutils.MakeRequest(app, "GET", "/api/admin/users", nil, token)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Code)

	var result testutils.StandardResponse
	testutils.ParseResponse(t, resp, &result)
	users := result.Data.([]interface{})
	assert.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].(map[string]interface{})["username"])
}

func TestDeleteUserHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)
	me := testutils.CreateTestAdmin(t, database.DB, "me", "password123")
	other := testutils.CreateTestAdmin(t, database.DB, "other", "password123")
	token := testutils.GetAuthToken(t, me)

	t.Run("Error - Cannot delete yourself", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "DELETE", "/api/admin/users/"+itoa(me.ID), nil, token)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
	})

	t.Run("Success - Delete other admin", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "DELETE", "/api/admin/users/"+itoa(other.ID), nil, token)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
	})

	t.Run("Error - Not found", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app, "DELETE", "/api/admin/users/9999", nil, token)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Error - Last admin", func(t *testing.T) {
		ghost, _, err := auth.GenerateToken(4242, "ghost")
		require.NoError(t, err)

		resp, err := testutils.MakeRequest(app, "DELETE", "/api/admin/users/"+itoa(me.ID), nil, ghost)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, "Cannot delete the last admin account", result.Error)
	})
}

func TestCreateOrReset(t *testing.T) {
	db := testutils.TestDB(t)

	u, created, err := admin.CreateOrReset(db, "ops", "password123")
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = admin.CreateOrReset(db, "ops", "another-password")
	require.NoError(t, err)
	assert.False(t, created)

	var stored models.AdminUser
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.True(t, auth.CheckPassword("another-password", stored.PasswordHash))
}
