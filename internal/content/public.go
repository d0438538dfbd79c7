package content

import (
	"context"
	"errors"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/Kyz7/sitecms/internal/team"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TeamView struct {
	Groups    []models.TeamGroup  `json:"groups"`
	Ungrouped []models.TeamMember `json:"ungrouped"`
	Featured  *models.TeamMember  `json:"featured"`
}

// PublicSite gathers everything the public pages render in one read.
func PublicSite(ctx context.Context, db *gorm.DB) (fiber.Map, error) {
	db = db.WithContext(ctx)
	site := fiber.Map{}

	hero, err := GetHero(db)
	if err != nil && !errors.Is(err, apperr.NotFound("")) {
		return nil, err
	}
	site["hero"] = hero

	sections, err := ListSections(db)
	if err != nil {
		return nil, err
	}
	site["sections"] = sections

	settings, err := GetSettings(db)
	if err != nil {
		return nil, err
	}
	site["settings"] = settings

	for _, r := range Resources() {
		items, err := r.Active(db)
		if err != nil {
			return nil, err
		}
		site[r.Key()] = items
	}

	view := TeamView{Groups: []models.TeamGroup{}, Ungrouped: []models.TeamMember{}}
	err = db.Preload("Members", func(q *gorm.DB) *gorm.DB {
		return q.Where("is_active = ?", true).Order("group_order").Order("id")
	}).Order("display_order").Order("id").Find(&view.Groups).Error
	if err != nil {
		return nil, err
	}
	err = db.Where("group_id IS NULL AND is_active = ?", true).
		Order("display_order").Order("id").
		Find(&view.Ungrouped).Error
	if err != nil {
		return nil, err
	}
	if view.Featured, err = team.Featured(ctx, db); err != nil {
		return nil, err
	}
	site["team"] = view

	return site, nil
}

func PublicSiteHandler(c *fiber.Ctx) error {
	var site fiber.Map
	err := database.WithRetry(c.UserContext(), func() error {
		var err error
		site, err = PublicSite(c.UserContext(), database.DB)
		return err
	})
	if err != nil {
		return response.FromError(c, err)
	}

	c.Set(fiber.HeaderCacheControl, "public, max-age=60")
	return response.Success(c, site, "")
}
