package models

import "gorm.io/datatypes"

type BoardMember struct {
	Base
	Name         string `gorm:"size:150" json:"name"`
	Position     string `gorm:"size:150" json:"position"`
	Bio          string `gorm:"type:text" json:"bio"`
	ImageURL     string `gorm:"size:500" json:"imageUrl"`
	LinkedInURL  string `gorm:"size:500" json:"linkedinUrl"`
	DisplayOrder int    `gorm:"index" json:"displayOrder"`
	IsActive     bool   `json:"isActive"`
}

type Project struct {
	Base
	Title        string `gorm:"size:200" json:"title"`
	Slug         string `gorm:"size:200;index" json:"slug"`
	Summary      string `gorm:"size:500" json:"summary"`
	Description  string `gorm:"type:text" json:"description"`
	ImageURL     string `gorm:"size:500" json:"imageUrl"`
	Location     string `gorm:"size:200" json:"location"`
	Category     string `gorm:"size:100;index" json:"category"`
	Year         int    `json:"year"`
	Status       string `gorm:"size:50" json:"status"`
	DisplayOrder int    `gorm:"index" json:"displayOrder"`
	IsActive     bool   `json:"isActive"`
}

type GalleryImage struct {
	Base
	Title        string `gorm:"size:200" json:"title"`
	Caption      string `gorm:"size:500" json:"caption"`
	ImageURL     string `gorm:"size:500" json:"imageUrl"`
	Category     string `gorm:"size:100;index" json:"category"`
	DisplayOrder int    `gorm:"index" json:"displayOrder"`
	IsActive     bool   `json:"isActive"`
}

type CarouselItem struct {
	Base
	Title        string `gorm:"size:200" json:"title"`
	Subtitle     string `gorm:"size:500" json:"subtitle"`
	MediaURL     string `gorm:"size:500" json:"mediaUrl"`
	MediaType    string `gorm:"size:20;default:'image'" json:"mediaType"` // image, video
	LinkURL      string `gorm:"size:500" json:"linkUrl"`
	DisplayOrder int    `gorm:"index" json:"displayOrder"`
	IsActive     bool   `json:"isActive"`
}

type TickerItem struct {
	Base
	Text         string `gorm:"size:300" json:"text"`
	LinkURL      string `gorm:"size:500" json:"linkUrl"`
	DisplayOrder int    `gorm:"index" json:"displayOrder"`
	IsActive     bool   `json:"isActive"`
}

type Service struct {
	Base
	Title        string         `gorm:"size:200" json:"title"`
	Summary      string         `gorm:"size:500" json:"summary"`
	Description  string         `gorm:"type:text" json:"description"`
	Icon         string         `gorm:"size:100" json:"icon"`
	ImageURL     string         `gorm:"size:500" json:"imageUrl"`
	Features     datatypes.JSON `json:"features,omitempty"`
	DisplayOrder int            `gorm:"index" json:"displayOrder"`
	IsActive     bool           `json:"isActive"`
}

type ShopItem struct {
	Base
	Name         string `gorm:"size:200" json:"name"`
	Description  string `gorm:"type:text" json:"description"`
	PriceCents   int64  `json:"priceCents"`
	Currency     string `gorm:"size:3;default:'USD'" json:"currency"`
	ImageURL     string `gorm:"size:500" json:"imageUrl"`
	PurchaseURL  string `gorm:"size:500" json:"purchaseUrl"`
	InStock      bool   `json:"inStock"`
	DisplayOrder int    `gorm:"index" json:"displayOrder"`
	IsActive     bool   `json:"isActive"`
}
