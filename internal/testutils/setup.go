package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/Kyz7/sitecms/internal/auth"
	"github.com/Kyz7/sitecms/internal/config"
	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/media"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/ratelimit"
	"github.com/Kyz7/sitecms/internal/server"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create test database")

	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db), "Failed to migrate test database")

	return db
}

// SetupTestApp returns an app over a fresh in-memory database with default
// config, in-memory rate limiting and no blob store.
func SetupTestApp(t *testing.T) *fiber.App {
	config.Current = config.Default()
	ratelimit.Storage = nil
	media.UseStore(nil)

	db := TestDB(t)
	database.DB = db

	return server.New(db)
}

func CreateTestAdmin(t *testing.T, db *gorm.DB, username, password string) *models.AdminUser {
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &models.AdminUser{Username: username, PasswordHash: hash}
	require.NoError(t, db.Create(user).Error, "Failed to create test admin")
	return user
}

func GetAuthToken(t *testing.T, user *models.AdminUser) string {
	token, _, err := auth.GenerateToken(user.ID, user.Username)
	require.NoError(t, err, "Failed to generate test token")
	return token
}

// AdminToken creates an admin account and returns a bearer token for it.
func AdminToken(t *testing.T) string {
	return GetAuthToken(t, CreateTestAdmin(t, database.DB, "admin", "password123"))
}

func do(app *fiber.App, req *http.Request) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode
	for k, v := range resp.Header {
		for _, val := range v {
			rec.Header().Add(k, val)
		}
	}

	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return do(app, req)
}

// MakeRequestWithHeaders sends a body-less request with extra headers
// (Range, Cookie).
func MakeRequestWithHeaders(app *fiber.App, method, url string, headers map[string]string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(method, url, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return do(app, req)
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.NewDecoder(bytes.NewReader(resp.Body.Bytes())).Decode(v)
	if err != nil && err != io.EOF {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details"`
	Meta    *Meta       `json:"meta"`
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Error, "Expected no error")
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	assert.NotEmpty(t, result.Error, "Expected error message")
	assert.Equal(t, expectedCode, result.Code, "Error code mismatch")
}

type File struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

func MakeMultipartRequest(app *fiber.App, method, url string, fields map[string]string, token string) (*httptest.ResponseRecorder, error) {
	return MakeMultipartRequestWithFile(app, method, url, fields, nil, token)
}

func MakeMultipartRequestWithFile(app *fiber.App, method, url string, fields map[string]string, file *File, token string) (*httptest.ResponseRecorder, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, val := range fields {
		writer.WriteField(key, val)
	}

	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, file.Field, file.Name))
		h.Set("Content-Type", "application/octet-stream")
		if file.ContentType != "" {
			h.Set("Content-Type", file.ContentType)
		}
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, err
		}
		part.Write(file.Content)
	}

	contentType := writer.FormDataContentType()
	writer.Close()

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", contentType)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return do(app, req)
}

func MakeRedirectRequest(app *fiber.App, method, url string, token string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(method, url, nil)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return do(app, req)
}
