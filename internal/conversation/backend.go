package conversation

import (
	"context"
	"time"

	"docchat-be/internal/apperr"
	"docchat-be/pkg/gemini"

	"github.com/pkg/errors"
)

// HistoryTurn is one stored exchange replayed into a fresh chat context.
type HistoryTurn struct {
	Role string // dto.DisplayRoleUser or dto.DisplayRoleAssistant
	Text string
}

// FileRef points at a processed document held by the AI backend.
type FileRef struct {
	Name     string
	URI      string
	MimeType string
}

// ChatHandle is a stateful chat context bound to one connection. Not safe
// for concurrent use.
type ChatHandle interface {
	Send(ctx context.Context, text string) (string, error)
}

// Backend abstracts the generative AI provider behind the conversation
// machine so the machine can be exercised without network access.
type Backend interface {
	NewChat(history []HistoryTurn, files []FileRef) ChatHandle
	// UploadAndProcess pushes raw bytes and blocks until the backend has
	// finished processing them or ctx expires.
	UploadAndProcess(ctx context.Context, filename, mimeType string, data []byte) (*FileRef, error)
}

type geminiBackend struct {
	client      *gemini.Client
	pollBackoff time.Duration
}

func NewGeminiBackend(client *gemini.Client, pollBackoff time.Duration) Backend {
	return &geminiBackend{client: client, pollBackoff: pollBackoff}
}

type geminiChat struct {
	session *gemini.ChatSession
}

func (g *geminiChat) Send(ctx context.Context, text string) (string, error) {
	reply, err := g.session.SendMessage(ctx, text)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apperr.BackendTimeout("model response timed out")
		}
		return "", apperr.BackendFailure(err, "model request failed")
	}
	return reply, nil
}

func (b *geminiBackend) NewChat(history []HistoryTurn, files []FileRef) ChatHandle {
	turns := make([]gemini.Turn, 0, len(history))
	for _, h := range history {
		role := gemini.RoleUser
		if h.Role != "user" {
			role = gemini.RoleModel
		}
		turns = append(turns, gemini.Turn{Role: role, Text: h.Text})
	}

	refs := make([]*gemini.File, 0, len(files))
	for _, f := range files {
		refs = append(refs, &gemini.File{Name: f.Name, URI: f.URI, MimeType: f.MimeType})
	}

	return &geminiChat{session: b.client.CreateChat(turns, refs)}
}

func (b *geminiBackend) UploadAndProcess(ctx context.Context, filename, mimeType string, data []byte) (*FileRef, error) {
	file, err := b.client.UploadFile(ctx, filename, mimeType, data)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperr.BackendTimeout("document upload timed out")
		}
		return nil, apperr.BackendFailure(err, "document upload failed")
	}

	active, err := b.client.WaitForFileActive(ctx, file, b.pollBackoff)
	if err != nil {
		if errors.Is(err, gemini.ErrProcessingTimeout) {
			return nil, apperr.BackendTimeout("document processing timed out")
		}
		return nil, apperr.BackendFailure(err, "document processing failed")
	}

	return &FileRef{Name: active.Name, URI: active.URI, MimeType: active.MimeType}, nil
}
