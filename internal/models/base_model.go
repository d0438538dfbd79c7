package models

import "time"

// Base carries the columns every content row has.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// All lists every model migrated by database.Migrate.
func All() []interface{} {
	return []interface{}{
		&AdminUser{},
		&ContentSection{},
		&HeroSection{},
		&SiteSetting{},
		&BoardMember{},
		&Project{},
		&TeamGroup{},
		&TeamMember{},
		&GalleryImage{},
		&CarouselItem{},
		&TickerItem{},
		&Service{},
		&ShopItem{},
		&ContactMessage{},
		&MediaBlob{},
		&Image{},
		&ImageChunk{},
		&UploadSession{},
	}
}
