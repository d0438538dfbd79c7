package auth

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const invalidCredentials = "Invalid username or password"

func LoginHandler(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" || body.Password == "" {
		return response.BadRequest(c, "Username and password are required", nil)
	}

	var user models.AdminUser
	err := database.WithRetry(c.UserContext(), func() error {
		return database.DB.Where("username = ?", body.Username).First(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.Unauthorized(c, invalidCredentials)
	}
	if err != nil {
		return response.FromError(c, err)
	}

	if !CheckPassword(body.Password, user.PasswordHash) {
		return response.Unauthorized(c, invalidCredentials)
	}

	token, expiresAt, err := GenerateToken(user.ID, user.Username)
	if err != nil {
		return response.InternalError(c, "Failed to issue token")
	}

	now := time.Now()
	if err := database.DB.Model(&user).Update("last_login_at", now).Error; err != nil {
		slog.Warn("failed to record last login", "user_id", user.ID, "err", err)
	}
	user.LastLoginAt = &now

	SetSessionCookie(c, token, expiresAt)

	return response.Success(c, fiber.Map{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      user,
	}, "Login successful")
}

func LogoutHandler(c *fiber.Ctx) error {
	ClearSessionCookie(c)
	return response.Success(c, nil, "Logout successful")
}

func MeHandler(c *fiber.Ctx) error {
	var user models.AdminUser
	if err := database.DB.First(&user, UserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Unauthorized(c, "User no longer exists")
		}
		return response.FromError(c, err)
	}

	return response.Success(c, user, "")
}

func ChangePasswordHandler(c *fiber.Ctx) error {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	if len(body.NewPassword) < MinPasswordLength {
		return response.BadRequest(c, "New password must be at least 8 characters", nil)
	}

	var user models.AdminUser
	if err := database.DB.First(&user, UserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Unauthorized(c, "User no longer exists")
		}
		return response.FromError(c, err)
	}

	if !CheckPassword(body.CurrentPassword, user.PasswordHash) {
		return response.BadRequest(c, "Current password is incorrect", nil)
	}

	hashed, err := HashPassword(body.NewPassword)
	if err != nil {
		return response.InternalError(c, "Failed to hash password")
	}

	if err := database.DB.Model(&user).Update("password_hash", hashed).Error; err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, nil, "Password updated")
}
