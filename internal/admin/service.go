package admin

import (
	"errors"
	"strings"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/auth"
	"github.com/Kyz7/sitecms/internal/models"
	"gorm.io/gorm"
)

func validateCredentials(username, password string) error {
	if username == "" {
		return apperr.Validation("username is required")
	}
	if len(username) > 100 {
		return apperr.Validation("username must be at most 100 characters")
	}
	if len(password) < auth.MinPasswordLength {
		return apperr.Validation("password must be at least %d characters", auth.MinPasswordLength)
	}
	return nil
}

func CreateUser(db *gorm.DB, username, password string) (*models.AdminUser, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&models.AdminUser{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.New(apperr.KindConflict, "Username already exists")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &models.AdminUser{Username: username, PasswordHash: hash}
	if err := db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// CreateOrReset creates the account, or replaces the password of an existing one.
func CreateOrReset(db *gorm.DB, username, password string) (*models.AdminUser, bool, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, false, err
	}

	var existing models.AdminUser
	err := db.Where("username = ?", username).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u, err := CreateUser(db, username, password)
		return u, true, err
	}
	if err != nil {
		return nil, false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	if err := db.Model(&existing).Update("password_hash", hash).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func ListUsers(db *gorm.DB) ([]models.AdminUser, error) {
	var users []models.AdminUser
	if err := db.Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser refuses to remove the caller or the last remaining admin.
func DeleteUser(db *gorm.DB, id, currentUserID uint) error {
	if id == currentUserID {
		return apperr.Validation("You cannot delete your own account")
	}

	var u models.AdminUser
	if err := db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Admin user")
		}
		return err
	}

	var count int64
	if err := db.Model(&models.AdminUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count <= 1 {
		return apperr.Validation("Cannot delete the last admin account")
	}

	return db.Delete(&u).Error
}
