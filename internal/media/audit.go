package media

import (
	"context"
	"time"

	"github.com/Kyz7/sitecms/internal/models"
	"gorm.io/gorm"
)

type Incomplete struct {
	ID       uint   `json:"id"`
	Filename string `json:"filename"`
	Expected int    `json:"expected"`
	Stored   int    `json:"stored"`
}

// FindIncomplete lists chunked images whose stored chunk count differs from
// chunkCount. Uploads with a live session are still in progress and skipped.
func FindIncomplete(ctx context.Context, db *gorm.DB) ([]Incomplete, error) {
	active := db.Model(&models.UploadSession{}).
		Select("image_id").
		Where("expires_at > ?", time.Now())

	var out []Incomplete
	err := db.WithContext(ctx).Table("images").
		Select("images.id AS id, images.filename AS filename, images.chunk_count AS expected, COUNT(image_chunks.id) AS stored").
		Joins("LEFT JOIN image_chunks ON image_chunks.image_id = images.id").
		Where("images.is_chunked = ?", true).
		Where("images.id NOT IN (?)", active).
		Group("images.id, images.filename, images.chunk_count").
		Having("COUNT(image_chunks.id) <> images.chunk_count").
		Order("images.id").
		Scan(&out).Error
	return out, err
}
