package media

import "github.com/Kyz7/sitecms/internal/blob"

const (
	SourceBlob   = "blob"
	SourceInline = "inline"
)

var blobStore blob.Store

// UseStore sets the external blob provider. Nil disables direct uploads.
func UseStore(s blob.Store) {
	blobStore = s
}

func Store() blob.Store {
	return blobStore
}
