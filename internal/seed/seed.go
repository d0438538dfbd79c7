package seed

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/Kyz7/sitecms/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var defaultSections = []models.ContentSection{
	{Key: "about", Title: "About Us", Body: "<p>Tell visitors who you are.</p>"},
	{Key: "services", Title: "Our Services"},
	{Key: "projects", Title: "Projects"},
	{Key: "team", Title: "Our Team"},
	{Key: "contact", Title: "Contact Us", Subtitle: "We usually reply within two working days."},
}

var defaultSettings = map[string]interface{}{
	"siteName":     "Company Site",
	"contactEmail": "",
	"contactPhone": "",
	"address":      "",
	"social":       map[string]string{},
	"showShop":     false,
	"showTicker":   true,
}

// Defaults inserts the hero row, the standard sections and the default
// settings. Rows that already exist are left alone.
func Defaults(db *gorm.DB) error {
	var hero models.HeroSection
	err := db.First(&hero, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hero = models.HeroSection{
			Title:          "Welcome",
			Subtitle:       "Edit this hero from the admin dashboard.",
			BackgroundType: models.MediaTypeImage,
		}
		hero.ID = 1
		if err := db.Create(&hero).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	for _, s := range defaultSections {
		section := s
		if err := db.Where(models.ContentSection{Key: section.Key}).FirstOrCreate(&section).Error; err != nil {
			return err
		}
	}

	for key, value := range defaultSettings {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		setting := models.SiteSetting{Key: key, Value: datatypes.JSON(raw)}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&setting).Error; err != nil {
			return err
		}
	}

	log.Println("✅ Default content seeded")
	return nil
}
