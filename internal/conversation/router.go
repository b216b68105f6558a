package conversation

import (
	"context"
	"strings"

	"docchat-be/internal/apperr"
	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/pkg/citation"

	"github.com/pkg/errors"
)

// routeMessage is the document/chat router: an attached file is ingested
// first, then any accompanying text becomes a normal chat turn against the
// updated context.
func (m *Machine) routeMessage(ctx context.Context, evt *dto.MessageEvent) error {
	if m.state.Session == nil {
		if err := m.openDefaultSession(ctx, false); err != nil {
			return err
		}
	}

	if evt.File != nil {
		if err := m.ingestDocument(ctx, evt.File); err != nil {
			return err
		}
	}

	text := strings.TrimSpace(evt.Text)
	if text == "" {
		return nil
	}
	return m.handleChatTurn(ctx, text)
}

// handleChatTurn persists the user message, asks the model, and persists
// the citation-formatted reply. Backend failures surface as a notice and
// leave the session usable; the user message stays persisted.
func (m *Machine) handleChatTurn(ctx context.Context, text string) error {
	sessionId := m.state.Session.Id

	if _, err := m.deps.Sessions.AppendMessage(ctx, sessionId, entity.ChatMessageRoleUser, text); err != nil {
		m.emitErrorNotice(err)
		return nil
	}

	if m.state.Chat == nil {
		m.state.Chat = m.deps.Backend.NewChat(nil, nil)
	}

	reply, err := m.state.Chat.Send(ctx, text)
	if err != nil {
		m.deps.Log.Warn("conversation", "chat turn failed", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		m.emitErrorNotice(err)
		return nil
	}

	formatted := citation.FormatResponse(reply, m.citationSources())
	if _, err := m.deps.Sessions.AppendMessage(ctx, sessionId, entity.ChatMessageRoleAssistant, formatted); err != nil {
		m.emitErrorNotice(err)
		// Still show the reply; only its persistence failed.
	}

	m.emit(dto.AssistantDisplay(formatted))
	return nil
}

func (m *Machine) citationSources() []citation.SourceDocument {
	docs := make([]citation.SourceDocument, 0, len(m.state.Documents))
	for _, d := range m.state.Documents {
		docs = append(docs, citation.SourceDocument{
			Filename: d.Filename,
			RelPath:  d.StoragePath,
		})
	}
	return docs
}

// emitErrorNotice maps a classified error to a user-facing notice. The
// session and mode are never torn down for recoverable failures.
func (m *Machine) emitErrorNotice(err error) {
	switch {
	case errors.Is(err, apperr.ErrBackendTimeout):
		m.notice("⏳ The assistant took too long to respond. Please try again.")
	case errors.Is(err, apperr.ErrBackendFailure):
		m.notice("⚠️ The assistant is unavailable right now. Please try again in a moment.")
	case errors.Is(err, apperr.ErrValidation):
		m.notice("That input isn't valid: %s", err.Error())
	case errors.Is(err, apperr.ErrPersistence):
		m.notice("Something went wrong saving your data. Please try again.")
	default:
		m.notice("Something went wrong. Please try again.")
	}
}
