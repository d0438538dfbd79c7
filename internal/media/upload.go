package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strconv"
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
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// InlineThresholdBytes is the largest raw file stored in a single row
	// (about 2 MiB once base64 encoded).
	InlineThresholdBytes = 3 << 19
	// ChunkSizeBytes is the raw slice size clients are told to use.
	ChunkSizeBytes = 1 << 20
	// MaxChunkBytes accepts the 4 MiB chunks older clients send.
	MaxChunkBytes   = 4 << 20
	MaxInlineChunks = 512
)

var uploadIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = sanitize.Plain(name)
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	if len(name) > 200 {
		name = name[len(name)-200:]
	}
	return name
}

func readFormFile(fh *multipart.FileHeader, max int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, apperr.New(apperr.KindTooLarge, fmt.Sprintf("Chunk exceeds %d bytes", max))
	}
	return data, nil
}

func UploadConfigHandler(c *fiber.Ctx) error {
	provider := "none"
	if s := Store(); s != nil {
		provider = s.Provider()
	}
	return response.Success(c, fiber.Map{
		"inlineThresholdBytes": InlineThresholdBytes,
		"chunkSizeBytes":       ChunkSizeBytes,
		"maxChunkBytes":        MaxChunkBytes,
		"maxChunks":            MaxInlineChunks,
		"allowedContentTypes":  blob.AllowedContentTypes,
		"directUpload":         Store() != nil,
		"provider":             provider,
	}, "")
}

// UploadHandler stores a small file in a single images row.
func UploadHandler(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "File is required", nil)
	}

	if fh.Size > InlineThresholdBytes {
		hint := "use chunked upload"
		if Store() != nil {
			hint = "use direct upload"
		}
		return response.Error(c, fiber.StatusRequestEntityTooLarge, string(apperr.KindTooLarge),
			fmt.Sprintf("File exceeds %d bytes, %s", InlineThresholdBytes, hint),
			fiber.Map{"maxBytes": InlineThresholdBytes, "size": fh.Size})
	}

	contentType := blob.NormalizeContentType(fh.Header.Get(fiber.HeaderContentType))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = blob.NormalizeContentType(mime.TypeByExtension(filepath.Ext(fh.Filename)))
	}
	if !blob.IsAllowedContentType(contentType) {
		return response.BadRequest(c, "Unsupported content type: "+contentType, nil)
	}

	filename := cleanFilename(fh.Filename)
	ctx := c.UserContext()

	dup, err := FuzzyMatchResolver{DB: database.DB}.FindDuplicate(ctx, filename, fh.Size)
	if err != nil {
		return response.FromError(c, err)
	}
	if dup != nil {
		return c.JSON(fiber.Map{
			"success":      true,
			"id":           dup.ID,
			"url":          InlineURL(dup.ID),
			"deduplicated": true,
		})
	}

	data, err := readFormFile(fh, InlineThresholdBytes)
	if err != nil {
		return response.FromError(c, err)
	}

	img := models.Image{
		Filename:    filename,
		MimeType:    contentType,
		Size:        int64(len(data)),
		Title:       sanitize.Plain(c.FormValue("title")),
		IsChunked:   false,
		InlineData:  base64.StdEncoding.EncodeToString(data),
		OwnerUserID: auth.UserID(c),
	}

	err = database.WithRetry(ctx, func() error {
		return database.DB.Create(&img).Error
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":      true,
		"id":           img.ID,
		"url":          InlineURL(img.ID),
		"deduplicated": false,
	})
}

type chunkForm struct {
	UploadID    string
	ChunkIndex  int
	TotalChunks int
	FileName    string
	FileType    string
	FileSize    int64
	Data        string
}

func parseChunkForm(c *fiber.Ctx) (*chunkForm, error) {
	f := &chunkForm{
		UploadID: strings.TrimSpace(c.FormValue("uploadId")),
		FileName: cleanFilename(c.FormValue("fileName")),
		FileType: blob.NormalizeContentType(c.FormValue("fileType")),
	}

	if !uploadIDPattern.MatchString(f.UploadID) {
		return nil, apperr.Validation("uploadId is required (8-64 characters of [A-Za-z0-9_-])")
	}

	var err error
	if f.ChunkIndex, err = strconv.Atoi(c.FormValue("chunkIndex")); err != nil {
		return nil, apperr.Validation("chunkIndex must be an integer")
	}
	if f.TotalChunks, err = strconv.Atoi(c.FormValue("totalChunks")); err != nil {
		return nil, apperr.Validation("totalChunks must be an integer")
	}
	if f.TotalChunks < 1 || f.TotalChunks > MaxInlineChunks {
		return nil, apperr.Validation("totalChunks must be between 1 and %d", MaxInlineChunks)
	}
	if f.ChunkIndex < 0 || f.ChunkIndex >= f.TotalChunks {
		return nil, apperr.Validation("chunkIndex %d is out of range for %d chunks", f.ChunkIndex, f.TotalChunks)
	}
	if raw := c.FormValue("fileSize"); raw != "" {
		if f.FileSize, err = strconv.ParseInt(raw, 10, 64); err != nil || f.FileSize < 0 {
			return nil, apperr.Validation("fileSize must be a non-negative integer")
		}
	}

	if fh, ferr := c.FormFile("file"); ferr == nil {
		data, err := readFormFile(fh, MaxChunkBytes)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, apperr.Validation("Chunk is empty")
		}
		f.Data = base64.StdEncoding.EncodeToString(data)
		return f, nil
	}

	encoded := strings.TrimSpace(c.FormValue("data"))
	if encoded == "" {
		return nil, apperr.Validation("Chunk data is required (file or data)")
	}
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperr.Validation("Chunk data is not valid base64")
	}
	if len(decoded) == 0 {
		return nil, apperr.Validation("Chunk is empty")
	}
	if len(decoded) > MaxChunkBytes {
		return nil, apperr.New(apperr.KindTooLarge, fmt.Sprintf("Chunk exceeds %d bytes", MaxChunkBytes))
	}
	f.Data = encoded
	return f, nil
}

// ChunkHandler stores one chunk. Chunk 0 opens the upload session; retries of
// any index overwrite the earlier row.
func ChunkHandler(c *fiber.Ctx) error {
	form, err := parseChunkForm(c)
	if err != nil {
		return response.FromError(c, err)
	}

	ctx := c.UserContext()
	var imageID uint

	if form.ChunkIndex == 0 {
		imageID, err = openSession(c, form)
	} else {
		imageID, err = lookupSession(form)
	}
	if err != nil {
		return response.FromError(c, err)
	}

	chunk := models.ImageChunk{ImageID: imageID, ChunkIndex: form.ChunkIndex, Data: form.Data}
	err = database.WithRetry(ctx, func() error {
		return database.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "image_id"}, {Name: "chunk_index"}},
			DoUpdates: clause.AssignmentColumns([]string{"data"}),
		}).Create(&chunk).Error
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"id":          imageID,
		"chunkIndex":  form.ChunkIndex,
		"totalChunks": form.TotalChunks,
	})
}

func openSession(c *fiber.Ctx, form *chunkForm) (uint, error) {
	if !blob.IsAllowedContentType(form.FileType) {
		return 0, apperr.Validation("Unsupported content type: %s", form.FileType)
	}

	var session models.UploadSession
	err := database.DB.Where("upload_id = ?", form.UploadID).First(&session).Error
	if err == nil {
		if session.TotalChunks != form.TotalChunks {
			return 0, apperr.Validation("totalChunks does not match the upload session (%d)", session.TotalChunks)
		}
		return session.ImageID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.Upstream("Failed to load upload session", err)
	}

	img := models.Image{
		Filename:    form.FileName,
		MimeType:    form.FileType,
		Size:        form.FileSize,
		Title:       sanitize.Plain(c.FormValue("title")),
		IsChunked:   true,
		ChunkCount:  form.TotalChunks,
		OwnerUserID: auth.UserID(c),
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&img).Error; err != nil {
			return err
		}
		return tx.Create(&models.UploadSession{
			UploadID:    form.UploadID,
			ImageID:     img.ID,
			TotalChunks: form.TotalChunks,
			FileName:    form.FileName,
			ExpiresAt:   time.Now().Add(config.Current.UploadSessionTTL),
		}).Error
	})
	if err != nil {
		return 0, apperr.Upstream("Failed to start chunked upload", err)
	}
	return img.ID, nil
}

func lookupSession(form *chunkForm) (uint, error) {
	var session models.UploadSession
	err := database.DB.
		Where("upload_id = ? AND expires_at > ?", form.UploadID, time.Now()).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.NotFound("Upload session")
	}
	if err != nil {
		return 0, apperr.Upstream("Failed to load upload session", err)
	}
	if session.TotalChunks != form.TotalChunks {
		return 0, apperr.Validation("totalChunks does not match the upload session (%d)", session.TotalChunks)
	}
	return session.ImageID, nil
}

// FinalizeHandler checks that every chunk arrived and closes the session.
func FinalizeHandler(c *fiber.Ctx) error {
	var body struct {
		UploadID string `json:"uploadId"`
		ImageID  uint   `json:"imageId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}
	if body.UploadID == "" && body.ImageID == 0 {
		return response.BadRequest(c, "uploadId or imageId is required", nil)
	}

	ctx := c.UserContext()
	imageID := body.ImageID

	if body.UploadID != "" {
		var session models.UploadSession
		err := database.DB.Where("upload_id = ?", body.UploadID).First(&session).Error
		switch {
		case err == nil:
			if body.ImageID != 0 && body.ImageID != session.ImageID {
				return response.BadRequest(c, "imageId does not belong to this upload", nil)
			}
			imageID = session.ImageID
		case errors.Is(err, gorm.ErrRecordNotFound):
			if body.ImageID == 0 {
				return response.NotFound(c, "Upload session")
			}
		default:
			return response.FromError(c, err)
		}
	}

	var img models.Image
	if err := database.DB.Omit("inline_data").First(&img, imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Image")
		}
		return response.FromError(c, err)
	}

	if img.IsChunked {
		report, err := ChunkStatus(ctx, database.DB, &img)
		if err != nil {
			return response.FromError(c, err)
		}
		if report.Stored != report.Expected {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success":  false,
				"error":    fmt.Sprintf("Chunk count mismatch: expected %d, received %d", report.Expected, report.Stored),
				"code":     apperr.KindValidation,
				"expected": report.Expected,
				"actual":   report.Stored,
				"missing":  report.Missing,
			})
		}
		if len(report.Missing) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success":  false,
				"error":    fmt.Sprintf("Chunk %d is missing", report.Missing[0]),
				"code":     apperr.KindValidation,
				"expected": report.Expected,
				"actual":   report.Stored,
				"missing":  report.Missing,
			})
		}
	}

	if err := database.DB.Where("image_id = ?", img.ID).Delete(&models.UploadSession{}).Error; err != nil {
		return response.FromError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"id":      img.ID,
		"url":     InlineURL(img.ID),
		"message": "Upload complete",
	})
}
