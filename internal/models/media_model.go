package models

import "time"

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// MediaBlob is a row in the modern `media` table: one per externally stored object.
type MediaBlob struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	URL         string    `gorm:"size:1000" json:"url"`
	ObjectKey   string    `gorm:"size:500;index" json:"objectKey"`
	Provider    string    `gorm:"size:20" json:"provider"`
	Type        string    `gorm:"size:10;index" json:"type"`
	ContentType string    `gorm:"size:100" json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	Title       *string   `gorm:"size:255" json:"title,omitempty"`
	OwnerUserID uint      `gorm:"index" json:"ownerUserId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (MediaBlob) TableName() string {
	return "media"
}

// Image is a row in the legacy `images` table. Small payloads live in
// InlineData; chunked payloads live in ImageChunk rows.
type Image struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Filename    string    `gorm:"size:255;index" json:"filename"`
	MimeType    string    `gorm:"size:100" json:"mimeType"`
	Size        int64     `json:"size"`
	Title       string    `gorm:"size:255" json:"title,omitempty"`
	IsChunked   bool      `gorm:"default:false" json:"isChunked"`
	ChunkCount  int       `json:"chunkCount"`
	InlineData  string    `gorm:"type:text" json:"-"`
	OwnerUserID uint      `gorm:"index" json:"ownerUserId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Image) TableName() string {
	return "images"
}

type ImageChunk struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ImageID    uint   `gorm:"not null;uniqueIndex:idx_image_chunk" json:"imageId"`
	ChunkIndex int    `gorm:"not null;uniqueIndex:idx_image_chunk" json:"chunkIndex"`
	Data       string `gorm:"type:text" json:"-"`
}

func (ImageChunk) TableName() string {
	return "image_chunks"
}

// UploadSession correlates the requests of one chunked upload.
type UploadSession struct {
	UploadID    string    `gorm:"primaryKey;size:64" json:"uploadId"`
	ImageID     uint      `gorm:"index" json:"imageId"`
	TotalChunks int       `json:"totalChunks"`
	FileName    string    `gorm:"size:255" json:"fileName"`
	ExpiresAt   time.Time `gorm:"index" json:"expiresAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (UploadSession) TableName() string {
	return "upload_sessions"
}
