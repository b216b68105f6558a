package service

import (
	"context"
	"strings"
	"time"

	"docchat-be/internal/apperr"
	"docchat-be/internal/entity"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/events"
	pktNats "docchat-be/pkg/nats"
	"docchat-be/pkg/storage"

	"github.com/google/uuid"
)

const defaultSessionTitle = "New Chat"

// SessionHistory is everything needed to resume a session: the row itself,
// its ordered messages, and its processed documents.
type SessionHistory struct {
	Session   *entity.ChatSession
	Messages  []*entity.ChatMessage
	Documents []*entity.Document
}

type ISessionService interface {
	Create(ctx context.Context, userId uuid.UUID) (*entity.ChatSession, error)
	List(ctx context.Context, userId uuid.UUID) ([]*entity.ChatSession, error)
	Load(ctx context.Context, userId, sessionId uuid.UUID) (*SessionHistory, error)
	Rename(ctx context.Context, userId, sessionId uuid.UUID, title string) (*entity.ChatSession, error)
	SoftDelete(ctx context.Context, userId, sessionId uuid.UUID) error
	LoadOrCreateDefault(ctx context.Context, userId uuid.UUID) (*SessionHistory, bool, error)

	AppendMessage(ctx context.Context, sessionId uuid.UUID, role, content string) (*entity.ChatMessage, error)
	ListDocuments(ctx context.Context, sessionId uuid.UUID) ([]*entity.Document, error)
	CreateDocument(ctx context.Context, userId uuid.UUID, document *entity.Document) error
}

type sessionService struct {
	uowFactory     unitofwork.RepositoryFactory
	store          *storage.LocalStore
	docCache       *memory.DocumentCache
	eventPublisher *pktNats.Publisher
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	store *storage.LocalStore,
	docCache *memory.DocumentCache,
	eventPublisher *pktNats.Publisher,
) ISessionService {
	return &sessionService{
		uowFactory:     uowFactory,
		store:          store,
		docCache:       docCache,
		eventPublisher: eventPublisher,
	}
}

func (s *sessionService) Create(ctx context.Context, userId uuid.UUID) (*entity.ChatSession, error) {
	now := time.Now()
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     defaultSessionTitle,
		CreatedAt: now,
		UpdatedAt: &now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, apperr.Persistence(err)
	}
	return session, nil
}

func (s *sessionService) List(ctx context.Context, userId uuid.UUID) ([]*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return sessions, nil
}

// getOwned resolves a session id against the caller. A session owned by
// someone else is Forbidden; a missing or soft-deleted one is NotFound.
func (s *sessionService) getOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOneUnscoped(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	if session == nil {
		return nil, apperr.NotFound("session not found")
	}
	if session.UserId != userId {
		return nil, apperr.Forbidden("session belongs to another user")
	}
	if session.IsDeleted {
		return nil, apperr.NotFound("session not found")
	}
	return session, nil
}

func (s *sessionService) Load(ctx context.Context, userId, sessionId uuid.UUID) (*SessionHistory, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := s.getOwned(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	documents, err := s.ListDocuments(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	return &SessionHistory{
		Session:   session,
		Messages:  messages,
		Documents: documents,
	}, nil
}

func (s *sessionService) Rename(ctx context.Context, userId, sessionId uuid.UUID, title string) (*entity.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validation("title cannot be empty")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := s.getOwned(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session.Title = title
	session.UpdatedAt = &now
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, apperr.Persistence(err)
	}
	return session, nil
}

// SoftDelete hides the session and removes its stored files. Message rows
// are kept; they stay reachable by id but drop out of every listing.
func (s *sessionService) SoftDelete(ctx context.Context, userId, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := s.getOwned(ctx, uow, userId, sessionId)
	if err != nil {
		return err
	}

	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return apperr.Persistence(err)
	}

	if err := s.store.RemoveSession(userId, sessionId); err != nil {
		// The row is already hidden; orphaned files are not worth failing
		// the user action over.
		_ = err
	}
	s.docCache.Invalidate(sessionId)

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, events.New(events.TypeSessionDeleted, map[string]interface{}{
			"user_id":    userId.String(),
			"session_id": sessionId.String(),
			"title":      session.Title,
		}))
	}
	return nil
}

// LoadOrCreateDefault resumes the most recently updated session, or creates
// a fresh one when the user has none. The bool reports whether a new
// session was created.
func (s *sessionService) LoadOrCreateDefault(ctx context.Context, userId uuid.UUID) (*SessionHistory, bool, error) {
	sessions, err := s.List(ctx, userId)
	if err != nil {
		return nil, false, err
	}

	if len(sessions) > 0 {
		history, err := s.Load(ctx, userId, sessions[0].Id)
		if err != nil {
			return nil, false, err
		}
		return history, false, nil
	}

	session, err := s.Create(ctx, userId)
	if err != nil {
		return nil, false, err
	}
	return &SessionHistory{Session: session}, true, nil
}

func (s *sessionService) AppendMessage(ctx context.Context, sessionId uuid.UUID, role, content string) (*entity.ChatMessage, error) {
	message := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          role,
		Content:       content,
		CreatedAt:     time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatMessageRepository().Create(ctx, message); err != nil {
		return nil, apperr.Persistence(err)
	}
	if err := uow.ChatSessionRepository().Touch(ctx, sessionId); err != nil {
		return nil, apperr.Persistence(err)
	}
	return message, nil
}

func (s *sessionService) ListDocuments(ctx context.Context, sessionId uuid.UUID) ([]*entity.Document, error) {
	if docs, found := s.docCache.Get(sessionId); found {
		return docs, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "uploaded_at"},
	)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	s.docCache.Set(sessionId, documents)
	return documents, nil
}

func (s *sessionService) CreateDocument(ctx context.Context, userId uuid.UUID, document *entity.Document) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, document); err != nil {
		return apperr.Persistence(err)
	}
	if err := uow.ChatSessionRepository().Touch(ctx, document.ChatSessionId); err != nil {
		return apperr.Persistence(err)
	}
	s.docCache.Invalidate(document.ChatSessionId)

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, events.New(events.TypeDocumentIngested, map[string]interface{}{
			"user_id":    userId.String(),
			"session_id": document.ChatSessionId.String(),
			"filename":   document.Filename,
		}))
	}
	return nil
}
