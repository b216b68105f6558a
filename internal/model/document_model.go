package model

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Filename      string    `gorm:"type:text;not null"`
	StoragePath   string    `gorm:"type:text;not null"`
	RemoteFileRef string    `gorm:"type:text"`
	RemoteFileURI string    `gorm:"type:text"`
	MimeType      string    `gorm:"type:text"`
	FileSize      int64
	UploadedAt    time.Time `gorm:"autoCreateTime"`
}

func (Document) TableName() string {
	return "documents"
}
