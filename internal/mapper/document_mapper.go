package mapper

import (
	"docchat-be/internal/entity"
	"docchat-be/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}
	return &entity.Document{
		Id:            d.Id,
		ChatSessionId: d.ChatSessionId,
		Filename:      d.Filename,
		StoragePath:   d.StoragePath,
		RemoteFileRef: d.RemoteFileRef,
		RemoteFileURI: d.RemoteFileURI,
		MimeType:      d.MimeType,
		FileSize:      d.FileSize,
		UploadedAt:    d.UploadedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}
	return &model.Document{
		Id:            d.Id,
		ChatSessionId: d.ChatSessionId,
		Filename:      d.Filename,
		StoragePath:   d.StoragePath,
		RemoteFileRef: d.RemoteFileRef,
		RemoteFileURI: d.RemoteFileURI,
		MimeType:      d.MimeType,
		FileSize:      d.FileSize,
		UploadedAt:    d.UploadedAt,
	}
}
