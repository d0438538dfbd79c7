package media

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resolved is a media identifier mapped to the row that stores it.
type Resolved struct {
	ID          string
	Source      string
	ContentType string
	Size        int64
	URL         string
	Blob        *models.MediaBlob
	Image       *models.Image
}

func (r *Resolved) IsVideo() bool {
	return strings.HasPrefix(strings.ToLower(r.ContentType), "video/")
}

func (r *Resolved) IsExternal() bool {
	return r.Source == SourceBlob
}

func fromBlob(m *models.MediaBlob) *Resolved {
	return &Resolved{
		ID:          m.ID,
		Source:      SourceBlob,
		ContentType: m.ContentType,
		Size:        m.SizeBytes,
		URL:         m.URL,
		Blob:        m,
	}
}

func fromImage(img *models.Image) *Resolved {
	return &Resolved{
		ID:          strconv.FormatUint(uint64(img.ID), 10),
		Source:      SourceInline,
		ContentType: img.MimeType,
		Size:        img.Size,
		URL:         InlineURL(img.ID),
		Image:       img,
	}
}

func InlineURL(id uint) string {
	return "/media/" + strconv.FormatUint(uint64(id), 10)
}

type MediaResolver interface {
	Resolve(ctx context.Context, id string) (*Resolved, error)
}

func notFound() error {
	return apperr.NotFound("Media")
}

// ModernTableResolver looks up the media table by uuid.
type ModernTableResolver struct {
	DB *gorm.DB
}

func (r ModernTableResolver) Resolve(ctx context.Context, id string) (*Resolved, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound()
	}

	var m models.MediaBlob
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, apperr.Upstream("Failed to load media", err)
	}
	return fromBlob(&m), nil
}

// LegacyTableResolver looks up the images table by numeric id.
type LegacyTableResolver struct {
	DB *gorm.DB
}

func (r LegacyTableResolver) Resolve(ctx context.Context, id string) (*Resolved, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return nil, notFound()
	}

	var img models.Image
	err = r.DB.WithContext(ctx).First(&img, n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, apperr.Upstream("Failed to load image", err)
	}
	return fromImage(&img), nil
}

// FuzzyMatchResolver matches a filename-like identifier against the end of
// images.filename, then media.url.
type FuzzyMatchResolver struct {
	DB *gorm.DB
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func suffixPattern(s string) string {
	return "%" + likeEscaper.Replace(s)
}

func (r FuzzyMatchResolver) Resolve(ctx context.Context, id string) (*Resolved, error) {
	id = strings.TrimSpace(id)
	if len(id) < 3 || !strings.Contains(id, ".") {
		return nil, notFound()
	}

	var img models.Image
	err := r.DB.WithContext(ctx).
		Where(`filename LIKE ? ESCAPE '\'`, suffixPattern(id)).
		Order("id DESC").
		First(&img).Error
	if err == nil {
		return fromImage(&img), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Upstream("Failed to search images", err)
	}

	var m models.MediaBlob
	err = r.DB.WithContext(ctx).
		Where(`url LIKE ? ESCAPE '\'`, suffixPattern("/"+id)).
		Order("created_at DESC").
		First(&m).Error
	if err == nil {
		return fromBlob(&m), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Upstream("Failed to search media", err)
	}
	return nil, notFound()
}

// FindDuplicate returns an existing single-row image with the same filename
// suffix and size, or nil.
func (r FuzzyMatchResolver) FindDuplicate(ctx context.Context, filename string, size int64) (*models.Image, error) {
	if filename == "" {
		return nil, nil
	}
	var img models.Image
	err := r.DB.WithContext(ctx).
		Where(`filename LIKE ? ESCAPE '\'`, suffixPattern(filename)).
		Where("size = ? AND is_chunked = ?", size, false).
		Order("id").
		First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Upstream("Failed to search images", err)
	}
	return &img, nil
}

// Chain tries each resolver in order; a miss falls through to the next.
type Chain []MediaResolver

func (ch Chain) Resolve(ctx context.Context, id string) (*Resolved, error) {
	for _, r := range ch {
		res, err := r.Resolve(ctx, id)
		if err == nil {
			return res, nil
		}
		if apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
	}
	return nil, notFound()
}

// DefaultChain resolves modern rows first, then legacy rows, then suffix matches.
func DefaultChain(db *gorm.DB) Chain {
	return Chain{
		ModernTableResolver{DB: db},
		LegacyTableResolver{DB: db},
		FuzzyMatchResolver{DB: db},
	}
}

// DirectChain skips suffix matching; used where a wrong guess would be destructive.
func DirectChain(db *gorm.DB) Chain {
	return Chain{
		ModernTableResolver{DB: db},
		LegacyTableResolver{DB: db},
	}
}
