package content

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/Kyz7/sitecms/internal/sanitize"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

var (
	sectionKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,99}$`)
	settingKeyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,99}$`)
)

type HeroRequest struct {
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	CTAText        string `json:"ctaText"`
	CTAURL         string `json:"ctaUrl"`
	BackgroundURL  string `json:"backgroundUrl"`
	BackgroundType string `json:"backgroundType"`
}

type SectionRequest struct {
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle"`
	Body     string          `json:"body"`
	ImageURL string          `json:"imageUrl"`
	Data     json.RawMessage `json:"data"`
}

func GetHeroHandler(c *fiber.Ctx) error {
	hero, err := GetHero(database.DB)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, hero, "")
}

func UpdateHeroHandler(c *fiber.Ctx) error {
	var body HeroRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	if strings.TrimSpace(body.Title) == "" {
		return response.ValidationError(c, map[string]string{"title": "title is required"})
	}
	if !sanitize.SafeURL(body.CTAURL) || !sanitize.SafeURL(body.BackgroundURL) {
		return response.BadRequest(c, "URLs must be http(s) or site-relative", nil)
	}
	switch body.BackgroundType {
	case "":
		body.BackgroundType = models.MediaTypeImage
	case models.MediaTypeImage, models.MediaTypeVideo:
	default:
		return response.BadRequest(c, "backgroundType must be image or video", nil)
	}

	hero := models.HeroSection{
		Title:          sanitize.Plain(body.Title),
		Subtitle:       sanitize.Plain(body.Subtitle),
		CTAText:        sanitize.Plain(body.CTAText),
		CTAURL:         strings.TrimSpace(body.CTAURL),
		BackgroundURL:  strings.TrimSpace(body.BackgroundURL),
		BackgroundType: body.BackgroundType,
	}

	err := database.WithRetry(c.UserContext(), func() error {
		return SaveHero(database.DB, &hero)
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, hero, "Hero section updated successfully")
}

func ListSectionsHandler(c *fiber.Ctx) error {
	sections, err := ListSections(database.DB)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, sections, "")
}

func GetSectionHandler(c *fiber.Ctx) error {
	section, err := GetSection(database.DB, c.Params("key"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, section, "")
}

func UpsertSectionHandler(c *fiber.Ctx) error {
	key := strings.ToLower(c.Params("key"))
	if !sectionKeyPattern.MatchString(key) {
		return response.BadRequest(c, "Invalid section key", nil)
	}

	var body SectionRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if !sanitize.SafeURL(body.ImageURL) {
		return response.BadRequest(c, "imageUrl must be an http(s) or site-relative URL", nil)
	}
	if len(body.Data) > 0 && !json.Valid(body.Data) {
		return response.BadRequest(c, "data must be valid JSON", nil)
	}

	section := models.ContentSection{
		Key:      key,
		Title:    sanitize.Plain(body.Title),
		Subtitle: sanitize.Plain(body.Subtitle),
		Body:     sanitize.Rich(body.Body),
		ImageURL: strings.TrimSpace(body.ImageURL),
	}
	if len(body.Data) > 0 {
		section.Data = datatypes.JSON(body.Data)
	}

	err := database.WithRetry(c.UserContext(), func() error {
		return UpsertSection(database.DB, &section)
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, section, "Section saved successfully")
}

func GetSettingsHandler(c *fiber.Ctx) error {
	settings, err := GetSettings(database.DB)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, settings, "")
}

func UpdateSettingsHandler(c *fiber.Ctx) error {
	values := map[string]json.RawMessage{}
	if err := json.Unmarshal(c.Body(), &values); err != nil {
		return response.BadRequest(c, "Body must be a JSON object of setting values", nil)
	}
	if len(values) == 0 {
		return response.BadRequest(c, "No settings provided", nil)
	}
	for key := range values {
		if !settingKeyPattern.MatchString(key) {
			return response.BadRequest(c, "Invalid setting key: "+key, nil)
		}
	}

	if err := SaveSettings(c.UserContext(), database.DB, values); err != nil {
		return response.FromError(c, err)
	}

	settings, err := GetSettings(database.DB)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, settings, "Settings updated successfully")
}
