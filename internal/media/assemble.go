package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/Kyz7/sitecms/internal/apperr"
	"github.com/Kyz7/sitecms/internal/models"
	"gorm.io/gorm"
)

// ChunkReport describes how much of a chunked image is stored.
type ChunkReport struct {
	Expected int   `json:"chunkCount"`
	Stored   int   `json:"storedChunks"`
	Missing  []int `json:"missing"`
	Complete bool  `json:"complete"`
}

func ChunkStatus(ctx context.Context, db *gorm.DB, img *models.Image) (*ChunkReport, error) {
	var indices []int
	err := db.WithContext(ctx).Model(&models.ImageChunk{}).
		Where("image_id = ?", img.ID).
		Order("chunk_index").
		Pluck("chunk_index", &indices).Error
	if err != nil {
		return nil, apperr.Upstream("Failed to read chunks", err)
	}

	present := make(map[int]bool, len(indices))
	for _, i := range indices {
		present[i] = true
	}
	missing := []int{}
	for i := 0; i < img.ChunkCount; i++ {
		if !present[i] {
			missing = append(missing, i)
		}
	}

	return &ChunkReport{
		Expected: img.ChunkCount,
		Stored:   len(indices),
		Missing:  missing,
		Complete: img.ChunkCount > 0 && len(missing) == 0 && len(indices) == img.ChunkCount,
	}, nil
}

// AssemblePayload returns the decoded bytes of an inline or chunked image.
// Incomplete or corrupt data is reported as a DataIntegrity error, never as a
// truncated payload.
func AssemblePayload(ctx context.Context, db *gorm.DB, img *models.Image) ([]byte, error) {
	if !img.IsChunked {
		if img.InlineData == "" {
			return nil, apperr.DataIntegrity(fmt.Sprintf("Image %d has no stored data", img.ID),
				map[string]any{"imageId": img.ID})
		}
		payload, err := base64.StdEncoding.DecodeString(img.InlineData)
		if err != nil {
			return nil, apperr.DataIntegrity(fmt.Sprintf("Image %d data is corrupt", img.ID),
				map[string]any{"imageId": img.ID, "reason": err.Error()})
		}
		if len(payload) == 0 {
			return nil, apperr.DataIntegrity(fmt.Sprintf("Image %d decoded to an empty payload", img.ID),
				map[string]any{"imageId": img.ID})
		}
		return payload, nil
	}

	if img.ChunkCount <= 0 {
		return nil, apperr.DataIntegrity(fmt.Sprintf("Chunked image %d has no chunk count", img.ID),
			map[string]any{"imageId": img.ID, "expected": img.ChunkCount})
	}

	var chunks []models.ImageChunk
	err := db.WithContext(ctx).
		Where("image_id = ?", img.ID).
		Order("chunk_index").
		Find(&chunks).Error
	if err != nil {
		return nil, apperr.Upstream("Failed to load image chunks", err)
	}

	if len(chunks) != img.ChunkCount {
		report, _ := ChunkStatus(ctx, db, img)
		details := map[string]any{
			"imageId":  img.ID,
			"expected": img.ChunkCount,
			"actual":   len(chunks),
		}
		if report != nil {
			details["missing"] = report.Missing
		}
		slog.Error("incomplete chunked image", "image_id", img.ID, "expected", img.ChunkCount, "actual", len(chunks))
		return nil, apperr.DataIntegrity(
			fmt.Sprintf("Incomplete chunked image %d: expected %d chunks, found %d", img.ID, img.ChunkCount, len(chunks)),
			details)
	}

	payload := make([]byte, 0, img.Size)
	for i, chunk := range chunks {
		if chunk.ChunkIndex != i {
			return nil, apperr.DataIntegrity(
				fmt.Sprintf("Chunked image %d is missing chunk %d", img.ID, i),
				map[string]any{"imageId": img.ID, "expected": img.ChunkCount, "actual": len(chunks), "missingIndex": i})
		}
		part, err := base64.StdEncoding.DecodeString(chunk.Data)
		if err != nil || len(part) == 0 {
			return nil, apperr.DataIntegrity(
				fmt.Sprintf("Chunk %d of image %d is corrupt", i, img.ID),
				map[string]any{"imageId": img.ID, "chunkIndex": i})
		}
		payload = append(payload, part...)
	}

	return payload, nil
}
