package media

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/auth"
	"github.com/Kyz7/sitecms/internal/blob"
	"github.com/Kyz7/sitecms/internal/config"
	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/Kyz7/sitecms/internal/sanitize"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UploadTokenRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type CompleteRequest struct {
	ObjectKey   string  `json:"objectKey"`
	ContentType string  `json:"contentType"`
	Size        int64   `json:"size"`
	Title       *string `json:"title"`
	Replaces    string  `json:"replaces"`
}

func errNoStore() error {
	return apperr.Upstream("Blob storage is not configured", nil)
}

// UploadTokenHandler issues a short-lived signed PUT URL for one object.
func UploadTokenHandler(c *fiber.Ctx) error {
	var body UploadTokenRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	contentType := blob.NormalizeContentType(body.ContentType)
	if !blob.IsAllowedContentType(contentType) {
		return response.BadRequest(c, "Content type not allowed: "+body.ContentType,
			fiber.Map{"allowed": blob.AllowedContentTypes})
	}
	if body.Size < 0 {
		return response.BadRequest(c, "size must not be negative", nil)
	}

	store := Store()
	if store == nil {
		return response.FromError(c, errNoStore())
	}

	key := blob.ObjectKey(body.Filename, time.Now())
	ticket, err := store.SignUpload(c.UserContext(), key, contentType, config.Current.BlobTokenTTL)
	if err != nil {
		return response.FromError(c, apperr.Upstream("Failed to sign upload", err))
	}

	return response.Success(c, ticket, "")
}

// CompleteHandler records an object the client uploaded with a ticket. When
// replaces names older media it is removed after the new row is stored;
// failing to delete the old object is logged and otherwise ignored.
func CompleteHandler(c *fiber.Ctx) error {
	var body CompleteRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	body.ObjectKey = strings.TrimSpace(body.ObjectKey)
	if !strings.HasPrefix(body.ObjectKey, "media/") || strings.Contains(body.ObjectKey, "..") {
		return response.BadRequest(c, "objectKey must be a key issued by upload-token", nil)
	}
	contentType := blob.NormalizeContentType(body.ContentType)
	if !blob.IsAllowedContentType(contentType) {
		return response.BadRequest(c, "Content type not allowed: "+body.ContentType, nil)
	}

	store := Store()
	if store == nil {
		return response.FromError(c, errNoStore())
	}

	record := models.MediaBlob{
		ID:          uuid.NewString(),
		URL:         store.PublicURL(body.ObjectKey),
		ObjectKey:   body.ObjectKey,
		Provider:    store.Provider(),
		Type:        blob.MediaType(contentType),
		ContentType: contentType,
		SizeBytes:   body.Size,
		OwnerUserID: auth.UserID(c),
	}
	if body.Title != nil {
		title := sanitize.Plain(*body.Title)
		record.Title = &title
	}

	ctx := c.UserContext()
	err := database.WithRetry(ctx, func() error {
		return database.DB.WithContext(ctx).Create(&record).Error
	})
	if err != nil {
		return response.FromError(c, err)
	}

	result := fiber.Map{"media": record, "replaced": false}

	if replaces := strings.TrimSpace(body.Replaces); replaces != "" && replaces != record.ID {
		old, err := DirectChain(database.DB).Resolve(ctx, replaces)
		switch {
		case err == nil:
			warning, rmErr := Remove(ctx, database.DB, old)
			if rmErr != nil {
				slog.Error("failed to remove replaced media row", "media_id", replaces, "err", rmErr)
				result["warning"] = "New media saved but the old record could not be removed"
			} else {
				result["replaced"] = true
				if warning != "" {
					result["warning"] = warning
				}
			}
		case apperr.KindOf(err) == apperr.KindNotFound:
			result["warning"] = "Media to replace was not found"
		default:
			slog.Error("failed to resolve replaced media", "media_id", replaces, "err", err)
			result["warning"] = "New media saved but the old record could not be loaded"
		}
	}

	return response.Created(c, result, "Media recorded successfully")
}
