package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded file tied to one chat session. RemoteFileRef and
// RemoteFileURI are only set once the AI backend reports the file processed.
type Document struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Filename      string
	StoragePath   string
	RemoteFileRef string
	RemoteFileURI string
	MimeType      string
	FileSize      int64
	UploadedAt    time.Time
}
