package content

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const heroID = 1

func GetHero(db *gorm.DB) (*models.HeroSection, error) {
	var hero models.HeroSection
	if err := db.First(&hero, heroID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Hero section")
		}
		return nil, err
	}
	return &hero, nil
}

// SaveHero overwrites the whole hero row.
func SaveHero(db *gorm.DB, hero *models.HeroSection) error {
	var existing models.HeroSection
	err := db.First(&existing, heroID).Error
	switch {
	case err == nil:
		hero.CreatedAt = existing.CreatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	hero.ID = heroID
	return db.Save(hero).Error
}

func ListSections(db *gorm.DB) ([]models.ContentSection, error) {
	var sections []models.ContentSection
	err := db.Order("key").Find(&sections).Error
	return sections, err
}

func GetSection(db *gorm.DB, key string) (*models.ContentSection, error) {
	var section models.ContentSection
	if err := db.Where("key = ?", key).First(&section).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Section")
		}
		return nil, err
	}
	return &section, nil
}

func UpsertSection(db *gorm.DB, section *models.ContentSection) error {
	var existing models.ContentSection
	err := db.Where("key = ?", section.Key).First(&existing).Error
	switch {
	case err == nil:
		section.ID = existing.ID
		section.CreatedAt = existing.CreatedAt
		return db.Save(section).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.Create(section).Error
	default:
		return err
	}
}

func GetSettings(db *gorm.DB) (map[string]json.RawMessage, error) {
	var rows []models.SiteSetting
	if err := db.Order("key").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.Key] = json.RawMessage(row.Value)
	}
	return out, nil
}

// SaveSettings upserts each key independently.
func SaveSettings(ctx context.Context, db *gorm.DB, values map[string]json.RawMessage) error {
	for key, value := range values {
		row := models.SiteSetting{Key: key, Value: datatypes.JSON(value)}
		err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
	}
	return nil
}
