package models

import (
	"time"

	"gorm.io/datatypes"
)

type ContentSection struct {
	Base
	Key      string         `gorm:"size:100;uniqueIndex" json:"key"`
	Title    string         `gorm:"size:200" json:"title"`
	Subtitle string         `gorm:"size:500" json:"subtitle"`
	Body     string         `gorm:"type:text" json:"body"`
	ImageURL string         `gorm:"size:500" json:"imageUrl"`
	Data     datatypes.JSON `json:"data,omitempty"`
}

// HeroSection is a single-row table; the row always has ID 1.
type HeroSection struct {
	Base
	Title          string `gorm:"size:200" json:"title"`
	Subtitle       string `gorm:"size:500" json:"subtitle"`
	CTAText        string `gorm:"size:100" json:"ctaText"`
	CTAURL         string `gorm:"size:500" json:"ctaUrl"`
	BackgroundURL  string `gorm:"size:500" json:"backgroundUrl"`
	BackgroundType string `gorm:"size:20;default:'image'" json:"backgroundType"`
}

type SiteSetting struct {
	Key       string         `gorm:"primaryKey;size:100" json:"key"`
	Value     datatypes.JSON `json:"value"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type ContactMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:150" json:"name"`
	Email     string    `gorm:"size:200;index" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Company   string    `gorm:"size:200" json:"company"`
	Subject   string    `gorm:"size:200" json:"subject"`
	Message   string    `gorm:"type:text" json:"message"`
	IsRead    bool      `gorm:"default:false;index" json:"isRead"`
	ClientIP  string    `gorm:"size:64" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
