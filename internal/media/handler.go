package media

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Item struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Title       string    `json:"title,omitempty"`
	IsChunked   bool      `json:"isChunked"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListHandler merges both media tables, newest first.
func ListHandler(c *fiber.Ctx) error {
	page, limit, offset := response.Pagination(c, 24, 100)
	mediaType := c.Query("type")
	if mediaType != "" && mediaType != models.MediaTypeImage && mediaType != models.MediaTypeVideo {
		return response.BadRequest(c, "type must be image or video", nil)
	}

	blobQuery := func() *gorm.DB {
		q := database.DB.Model(&models.MediaBlob{})
		if mediaType != "" {
			q = q.Where("type = ?", mediaType)
		}
		return q
	}
	imageQuery := func() *gorm.DB {
		q := database.DB.Model(&models.Image{}).Omit("inline_data")
		if mediaType != "" {
			q = q.Where("mime_type LIKE ?", mediaType+"/%")
		}
		return q
	}

	var blobTotal, imageTotal int64
	if err := blobQuery().Count(&blobTotal).Error; err != nil {
		return response.FromError(c, err)
	}
	if err := imageQuery().Count(&imageTotal).Error; err != nil {
		return response.FromError(c, err)
	}

	window := offset + limit
	var blobs []models.MediaBlob
	if err := blobQuery().Order("created_at DESC").Limit(window).Find(&blobs).Error; err != nil {
		return response.FromError(c, err)
	}
	var images []models.Image
	if err := imageQuery().Order("created_at DESC").Limit(window).Find(&images).Error; err != nil {
		return response.FromError(c, err)
	}

	items := make([]Item, 0, len(blobs)+len(images))
	for _, m := range blobs {
		item := Item{
			ID:          m.ID,
			Source:      SourceBlob,
			URL:         m.URL,
			ContentType: m.ContentType,
			Size:        m.SizeBytes,
			CreatedAt:   m.CreatedAt,
		}
		if m.Title != nil {
			item.Title = *m.Title
		}
		items = append(items, item)
	}
	for _, img := range images {
		items = append(items, Item{
			ID:          fromImage(&img).ID,
			Source:      SourceInline,
			URL:         InlineURL(img.ID),
			ContentType: img.MimeType,
			Size:        img.Size,
			Title:       img.Title,
			IsChunked:   img.IsChunked,
			CreatedAt:   img.CreatedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if offset >= len(items) {
		items = []Item{}
	} else {
		end := offset + limit
		if end > len(items) {
			end = len(items)
		}
		items = items[offset:end]
	}

	return response.SuccessWithMeta(c, items, response.CalculateMeta(page, limit, blobTotal+imageTotal), "")
}

// Remove deletes a resolved row, then best-effort deletes its chunk rows or
// stored object. The returned warning is set when that cleanup failed.
func Remove(ctx context.Context, db *gorm.DB, res *Resolved) (string, error) {
	if res.IsExternal() {
		err := database.WithRetry(ctx, func() error {
			return db.WithContext(ctx).Delete(&models.MediaBlob{}, "id = ?", res.Blob.ID).Error
		})
		if err != nil {
			return "", err
		}

		store := Store()
		if store == nil || store.Provider() != res.Blob.Provider {
			slog.Warn("stored object left in place, provider not configured",
				"media_id", res.Blob.ID, "provider", res.Blob.Provider, "object_key", res.Blob.ObjectKey)
			return "Record removed; stored object was left in place", nil
		}
		if err := store.Delete(ctx, res.Blob.ObjectKey); err != nil {
			slog.Warn("failed to delete stored object", "media_id", res.Blob.ID, "object_key", res.Blob.ObjectKey, "err", err)
			return "Record removed; stored object could not be deleted", nil
		}
		return "", nil
	}

	imageID := res.Image.ID
	err := database.WithRetry(ctx, func() error {
		return db.WithContext(ctx).Delete(&models.Image{}, imageID).Error
	})
	if err != nil {
		return "", err
	}

	if err := db.WithContext(ctx).Where("image_id = ?", imageID).Delete(&models.ImageChunk{}).Error; err != nil {
		slog.Warn("failed to delete image chunks", "image_id", imageID, "err", err)
		return "Record removed; chunk rows could not be deleted", nil
	}
	if err := db.WithContext(ctx).Where("image_id = ?", imageID).Delete(&models.UploadSession{}).Error; err != nil {
		slog.Warn("failed to delete upload sessions", "image_id", imageID, "err", err)
	}
	return "", nil
}

func DeleteHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()
	res, err := DirectChain(database.DB).Resolve(ctx, c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}

	warning, err := Remove(ctx, database.DB, res)
	if err != nil {
		return response.FromError(c, err)
	}

	data := fiber.Map{"id": res.ID, "source": res.Source}
	if warning != "" {
		data["warning"] = warning
	}
	return response.Success(c, data, "Media deleted successfully")
}

func StatusHandler(c *fiber.Ctx) error {
	ctx := c.UserContext()
	res, err := DirectChain(database.DB).Resolve(ctx, c.Params("id"))
	if err != nil {
		return response.FromError(c, err)
	}

	if res.IsExternal() {
		return response.Success(c, fiber.Map{
			"id":       res.ID,
			"source":   SourceBlob,
			"complete": true,
		}, "")
	}

	data := fiber.Map{
		"id":        res.ID,
		"source":    SourceInline,
		"isChunked": res.Image.IsChunked,
	}
	if !res.Image.IsChunked {
		data["complete"] = res.Image.InlineData != ""
		return response.Success(c, data, "")
	}

	report, err := ChunkStatus(ctx, database.DB, res.Image)
	if err != nil {
		return response.FromError(c, err)
	}
	data["chunkCount"] = report.Expected
	data["storedChunks"] = report.Stored
	data["missing"] = report.Missing
	data["complete"] = report.Complete
	return response.Success(c, data, "")
}
