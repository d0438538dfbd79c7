// Package contact stores messages submitted through the public contact form.
package contact

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/Kyz7/sitecms/internal/sanitize"
	"github.com/gofiber/fiber/v2"
)

const MaxMessageLength = 5000

type SubmitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate reports field errors keyed by json name.
func (r *SubmitRequest) Validate() map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "name is required"
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != strings.TrimSpace(r.Email) {
		errs["email"] = "email must be a valid address"
	}
	if strings.TrimSpace(r.Message) == "" {
		errs["message"] = "message is required"
	} else if utf8.RuneCountInString(r.Message) > MaxMessageLength {
		errs["message"] = "message must be at most 5000 characters"
	}
	return errs
}

func Register(api fiber.Router, protected, limiter fiber.Handler) {
	g := api.Group("/contact")
	g.Post("/", limiter, SubmitHandler)
	g.Get("/", protected, ListHandler)
	g.Put("/:id/read", protected, MarkReadHandler)
	g.Delete("/:id", protected, DeleteHandler)
}

func SubmitHandler(c *fiber.Ctx) error {
	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	if errs := req.Validate(); len(errs) > 0 {
		return response.ValidationError(c, errs)
	}

	msg := models.ContactMessage{
		Name:     sanitize.Plain(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Phone:    sanitize.Plain(req.Phone),
		Company:  sanitize.Plain(req.Company),
		Subject:  sanitize.Plain(req.Subject),
		Message:  sanitize.Plain(req.Message),
		ClientIP: c.IP(),
	}

	err := database.WithRetry(c.UserContext(), func() error {
		return database.DB.Create(&msg).Error
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, fiber.Map{"id": msg.ID}, "Message sent successfully")
}

func ListHandler(c *fiber.Ctx) error {
	page, limit, offset := response.Pagination(c, 20, 100)

	q := database.DB.Model(&models.ContactMessage{})
	if c.Query("unread") == "true" {
		q = q.Where("is_read = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return response.FromError(c, err)
	}

	var messages []models.ContactMessage
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&messages).Error; err != nil {
		return response.FromError(c, err)
	}

	return response.SuccessWithMeta(c, messages, response.CalculateMeta(page, limit, total), "")
}

func MarkReadHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid message ID", nil)
	}

	body := struct {
		Read *bool `json:"read"`
	}{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "Invalid request body", nil)
		}
	}
	read := true
	if body.Read != nil {
		read = *body.Read
	}

	result := database.DB.Model(&models.ContactMessage{}).Where("id = ?", id).Update("is_read", read)
	if result.Error != nil {
		return response.FromError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Message")
	}

	return response.Success(c, fiber.Map{"id": id, "isRead": read}, "Message updated")
}

func DeleteHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid message ID", nil)
	}

	result := database.DB.Delete(&models.ContactMessage{}, id)
	if result.Error != nil {
		return response.FromError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Message")
	}

	return response.Success(c, nil, "Message deleted successfully")
}
