package content

import (
	"context"

	"github.com/Kyz7/sitecms/internal/database"
	"github.com/Kyz7/sitecms/internal/media"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/Kyz7/sitecms/internal/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MediaStats struct {
	External   int64 `json:"external"`
	Inline     int64 `json:"inline"`
	Chunked    int64 `json:"chunked"`
	Videos     int64 `json:"videos"`
	TotalBytes int64 `json:"totalBytes"`
	Incomplete int   `json:"incomplete"`
}

type Stats struct {
	Counts         map[string]int64 `json:"counts"`
	TeamGroups     int64            `json:"teamGroups"`
	TeamMembers    int64            `json:"teamMembers"`
	Messages       int64            `json:"messages"`
	UnreadMessages int64            `json:"unreadMessages"`
	Media          MediaStats       `json:"media"`
}

func count(db *gorm.DB, model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Count(&n).Error
	return n, err
}

// DashboardStats counts rows per table plus media and inbox totals.
func DashboardStats(ctx context.Context, db *gorm.DB) (*Stats, error) {
	db = db.WithContext(ctx)
	stats := &Stats{Counts: map[string]int64{}}

	for _, r := range Resources() {
		var n int64
		if err := db.Table(r.Table()).Count(&n).Error; err != nil {
			return nil, err
		}
		stats.Counts[r.Key()] = n
	}

	var err error
	if stats.TeamGroups, err = count(db, &models.TeamGroup{}, ""); err != nil {
		return nil, err
	}
	if stats.TeamMembers, err = count(db, &models.TeamMember{}, ""); err != nil {
		return nil, err
	}
	if stats.Messages, err = count(db, &models.ContactMessage{}, ""); err != nil {
		return nil, err
	}
	if stats.UnreadMessages, err = count(db, &models.ContactMessage{}, "is_read = ?", false); err != nil {
		return nil, err
	}

	m := &stats.Media
	if m.External, err = count(db, &models.MediaBlob{}, ""); err != nil {
		return nil, err
	}
	if m.Inline, err = count(db, &models.Image{}, "is_chunked = ?", false); err != nil {
		return nil, err
	}
	if m.Chunked, err = count(db, &models.Image{}, "is_chunked = ?", true); err != nil {
		return nil, err
	}
	if m.Videos, err = count(db, &models.MediaBlob{}, "type = ?", models.MediaTypeVideo); err != nil {
		return nil, err
	}

	var sizes struct{ Blobs, Images int64 }
	if err := db.Model(&models.MediaBlob{}).Select("COALESCE(SUM(size_bytes), 0)").Scan(&sizes.Blobs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Image{}).Select("COALESCE(SUM(size), 0)").Scan(&sizes.Images).Error; err != nil {
		return nil, err
	}
	m.TotalBytes = sizes.Blobs + sizes.Images

	incomplete, err := media.FindIncomplete(ctx, db)
	if err != nil {
		return nil, err
	}
	m.Incomplete = len(incomplete)

	return stats, nil
}

func DashboardStatsHandler(c *fiber.Ctx) error {
	stats, err := DashboardStats(c.UserContext(), database.DB)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, stats, "")
}
