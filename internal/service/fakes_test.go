package service

import (
	"context"
	"sort"
	"time"

	"docchat-be/internal/entity"
	"docchat-be/internal/repository/contract"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repositories interpreting the same specifications the gorm
// implementations apply, so the services can be exercised without a
// database.

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*entity.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.users[user.Id] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	r.users[user.Id] = user
	return nil
}

func (r *fakeUserRepo) matches(user *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if user.Id != s.ID {
				return false
			}
		case specification.ByUsername:
			if user.Username != s.Username {
				return false
			}
		case specification.ByEmail:
			if user.Email != s.Email {
				return false
			}
		case specification.ByUsernameOrEmail:
			if user.Username != s.Identifier && user.Email != s.Identifier {
				return false
			}
		}
	}
	return true
}

func (r *fakeUserRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, user := range r.users {
		if r.matches(user, specs) {
			return user, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, user := range r.users {
		if r.matches(user, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	if user, ok := r.users[id]; ok {
		now := time.Now()
		user.LastLogin = &now
	}
	return nil
}

type fakeChatSessionRepo struct {
	sessions map[uuid.UUID]*entity.ChatSession
}

func newFakeChatSessionRepo() *fakeChatSessionRepo {
	return &fakeChatSessionRepo{sessions: map[uuid.UUID]*entity.ChatSession{}}
}

func (r *fakeChatSessionRepo) Create(_ context.Context, session *entity.ChatSession) error {
	r.sessions[session.Id] = session
	return nil
}

func (r *fakeChatSessionRepo) Update(_ context.Context, session *entity.ChatSession) error {
	r.sessions[session.Id] = session
	return nil
}

func (r *fakeChatSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if session, ok := r.sessions[id]; ok {
		now := time.Now()
		session.IsDeleted = true
		session.DeletedAt = &now
	}
	return nil
}

func (r *fakeChatSessionRepo) Touch(_ context.Context, id uuid.UUID) error {
	if session, ok := r.sessions[id]; ok {
		now := time.Now()
		session.UpdatedAt = &now
	}
	return nil
}

func matchSession(session *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if session.Id != s.ID {
				return false
			}
		case specification.OwnedBy:
			if session.UserId != s.UserID {
				return false
			}
		}
	}
	return true
}

func orderSessions(sessions []*entity.ChatSession, specs []specification.Specification) {
	for _, spec := range specs {
		if s, ok := spec.(specification.OrderBy); ok && s.Field == "updated_at" {
			sort.SliceStable(sessions, func(i, j int) bool {
				a, b := sessions[i].UpdatedAt, sessions[j].UpdatedAt
				if a == nil || b == nil {
					return false
				}
				if s.Desc {
					return a.After(*b)
				}
				return a.Before(*b)
			})
		}
	}
}

func (r *fakeChatSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	for _, session := range r.sessions {
		if !session.IsDeleted && matchSession(session, specs) {
			return session, nil
		}
	}
	return nil, nil
}

func (r *fakeChatSessionRepo) FindOneUnscoped(_ context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	for _, session := range r.sessions {
		if matchSession(session, specs) {
			return session, nil
		}
	}
	return nil, nil
}

func (r *fakeChatSessionRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	out := make([]*entity.ChatSession, 0)
	for _, session := range r.sessions {
		if !session.IsDeleted && matchSession(session, specs) {
			out = append(out, session)
		}
	}
	orderSessions(out, specs)
	return out, nil
}

func (r *fakeChatSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeChatMessageRepo struct {
	messages []*entity.ChatMessage
}

func (r *fakeChatMessageRepo) Create(_ context.Context, message *entity.ChatMessage) error {
	r.messages = append(r.messages, message)
	return nil
}

func (r *fakeChatMessageRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	out := make([]*entity.ChatMessage, 0)
	for _, message := range r.messages {
		keep := true
		for _, spec := range specs {
			if s, ok := spec.(specification.ByChatSessionID); ok && message.ChatSessionId != s.ChatSessionID {
				keep = false
			}
		}
		if keep {
			out = append(out, message)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeChatMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeDocumentRepo struct {
	documents map[uuid.UUID]*entity.Document
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{documents: map[uuid.UUID]*entity.Document{}}
}

func (r *fakeDocumentRepo) Create(_ context.Context, document *entity.Document) error {
	r.documents[document.Id] = document
	return nil
}

func (r *fakeDocumentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.documents, id)
	return nil
}

func (r *fakeDocumentRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	out := make([]*entity.Document, 0)
	for _, document := range r.documents {
		keep := true
		for _, spec := range specs {
			if s, ok := spec.(specification.ByChatSessionID); ok && document.ChatSessionId != s.ChatSessionID {
				keep = false
			}
		}
		if keep {
			out = append(out, document)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

type fakeUnitOfWork struct {
	users     *fakeUserRepo
	sessions  *fakeChatSessionRepo
	messages  *fakeChatMessageRepo
	documents *fakeDocumentRepo
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		users:     newFakeUserRepo(),
		sessions:  newFakeChatSessionRepo(),
		messages:  &fakeChatMessageRepo{},
		documents: newFakeDocumentRepo(),
	}
}

func (u *fakeUnitOfWork) Begin(context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error               { return nil }
func (u *fakeUnitOfWork) Rollback() error             { return nil }

func (u *fakeUnitOfWork) UserRepository() contract.UserRepository               { return u.users }
func (u *fakeUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository { return u.sessions }
func (u *fakeUnitOfWork) ChatMessageRepository() contract.ChatMessageRepository { return u.messages }
func (u *fakeUnitOfWork) DocumentRepository() contract.DocumentRepository       { return u.documents }

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeMailer struct {
	sentTo []string
}

func (m *fakeMailer) SendWelcome(to, _ string) error {
	m.sentTo = append(m.sentTo, to)
	return nil
}
