// Package jobs runs scheduled maintenance for chunked uploads.
package jobs

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/Kyz7/sitecms/internal/media"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type SweepResult struct {
	ExpiredSessions int64
	Incomplete      []media.Incomplete
}

// Sweep drops expired upload sessions and reports incomplete chunked images.
// Image and chunk rows are never deleted here.
func Sweep(ctx context.Context, db *gorm.DB, now time.Time) (*SweepResult, error) {
	result := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.UploadSession{})
	if result.Error != nil {
		return nil, result.Error
	}

	incomplete, err := media.FindIncomplete(ctx, db)
	if err != nil {
		return nil, err
	}

	for _, img := range incomplete {
		slog.Warn("incomplete chunked image",
			"image_id", img.ID,
			"filename", img.Filename,
			"expected", img.Expected,
			"stored", img.Stored,
		)
	}

	return &SweepResult{ExpiredSessions: result.RowsAffected, Incomplete: incomplete}, nil
}

// Start schedules Sweep with a cron expression such as "@every 1h".
func Start(db *gorm.DB, schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		res, err := Sweep(ctx, db, time.Now())
		if err != nil {
			slog.Error("upload sweep failed", "err", err)
			return
		}
		if res.ExpiredSessions > 0 || len(res.Incomplete) > 0 {
			slog.Info("upload sweep finished",
				"expired_sessions", res.ExpiredSessions,
				"incomplete_images", len(res.Incomplete),
			)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Printf("✅ Upload sweep scheduled (%s)", schedule)
	return c, nil
}
