package models

type TeamGroup struct {
	Base
	Name         string       `gorm:"size:150" json:"name"`
	Description  string       `gorm:"type:text" json:"description"`
	DisplayOrder int          `gorm:"index" json:"displayOrder"`
	Members      []TeamMember `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"members,omitempty"`
}

// TeamMember is either grouped (GroupID set, ordered by GroupOrder inside the
// group) or ungrouped (ordered by DisplayOrder among other ungrouped members).
type TeamMember struct {
	Base
	Name         string `gorm:"size:150" json:"name"`
	Position     string `gorm:"size:150" json:"position"`
	Bio          string `gorm:"type:text" json:"bio"`
	ImageURL     string `gorm:"size:500" json:"imageUrl"`
	Email        string `gorm:"size:150" json:"email"`
	LinkedInURL  string `gorm:"size:500" json:"linkedinUrl"`
	GroupID      *uint  `gorm:"index" json:"groupId"`
	GroupOrder   *int   `json:"groupOrder"`
	DisplayOrder int    `gorm:"index" json:"displayOrder"`
	IsFeatured   bool   `gorm:"default:false;index" json:"isFeatured"`
	IsActive     bool   `json:"isActive"`
}
