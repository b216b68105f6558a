package contract

import (
	"context"

	"docchat-be/internal/entity"
	"docchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	Update(ctx context.Context, session *entity.ChatSession) error
	Delete(ctx context.Context, id uuid.UUID) error // Soft delete
	Touch(ctx context.Context, id uuid.UUID) error  // Bump updated_at only
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindOneUnscoped(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) // Includes soft-deleted
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
