package conversation

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/pkg/citation"

	"github.com/google/uuid"
)

// summaryPromptTemplate is sent to the model after a successful ingestion.
// The prompt itself is never persisted or displayed; only the reply is.
const summaryPromptTemplate = `The document "%s" has just been uploaded. Provide a comprehensive summary using this format:

## Summary of %s

**Overview:** one short paragraph describing what the document is.

**Key points:** the most important points as a bullet list, with page citations in the (p. X) format.

**Suggested questions:** three questions a reader might ask about this document.`

// ingestDocument runs the full ingestion pipeline for one attachment:
// local persistence, backend upload, processing wait, metadata row, context
// rebuild, and the automatic summary. Any failure before the metadata row
// is written rolls the local file back and leaves the session exactly as it
// was.
func (m *Machine) ingestDocument(ctx context.Context, file *dto.FileAttachment) error {
	session := m.state.Session
	filename := filepath.Base(file.Filename)

	if len(file.Data) == 0 {
		m.notice("**%s** is empty and was not uploaded.", filename)
		return nil
	}
	if maxBytes := int64(m.deps.MaxFileSizeMB) << 20; maxBytes > 0 && int64(len(file.Data)) > maxBytes {
		m.notice("**%s** is too large. The limit is %d MB.", filename, m.deps.MaxFileSizeMB)
		return nil
	}

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	m.notice("📄 Processing **%s**...", filename)

	relPath, err := m.deps.Store.Save(m.state.UserId, session.Id, filename, file.Data)
	if err != nil {
		m.deps.Log.Error("conversation", "failed to store upload", map[string]interface{}{
			"session_id": session.Id.String(),
			"filename":   filename,
			"error":      err.Error(),
		})
		m.notice("**%s** could not be stored. Please try again.", filename)
		return nil
	}

	processCtx, cancel := context.WithTimeout(ctx, m.deps.ProcessTimeout)
	defer cancel()

	ref, err := m.deps.Backend.UploadAndProcess(processCtx, filename, mimeType, file.Data)
	if err != nil {
		_ = m.deps.Store.Remove(relPath)
		m.emitErrorNotice(err)
		return nil
	}

	doc := &entity.Document{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		Filename:      filename,
		StoragePath:   relPath,
		RemoteFileRef: ref.Name,
		RemoteFileURI: ref.URI,
		MimeType:      ref.MimeType,
		FileSize:      int64(len(file.Data)),
		UploadedAt:    time.Now(),
	}
	if err := m.deps.Sessions.CreateDocument(ctx, m.state.UserId, doc); err != nil {
		_ = m.deps.Store.Remove(relPath)
		m.emitErrorNotice(err)
		return nil
	}
	m.state.Documents = append(m.state.Documents, doc)

	// A fresh session takes the first document's name as its title.
	if session.Title == freshSessionTitle {
		if renamed, renameErr := m.deps.Sessions.Rename(ctx, m.state.UserId, session.Id, filename); renameErr == nil {
			m.state.Session = renamed
			session = renamed
		}
	}

	// Rebuild the chat context so the new file is grounded from here on.
	if history, loadErr := m.deps.Sessions.Load(ctx, m.state.UserId, session.Id); loadErr == nil {
		m.adoptHistory(history)
	}

	m.notice("✅ **%s** is ready. Ask anything about it.", filename)
	m.summarizeDocument(ctx, filename)
	return nil
}

// summarizeDocument asks the model for an opening summary of the newly
// ingested file. The reply is persisted as a normal assistant message so it
// replays with the session; a failure here only skips the summary.
func (m *Machine) summarizeDocument(ctx context.Context, filename string) {
	prompt := fmt.Sprintf(summaryPromptTemplate, filename, filename)

	reply, err := m.state.Chat.Send(ctx, prompt)
	if err != nil {
		m.deps.Log.Warn("conversation", "document summary failed", map[string]interface{}{
			"session_id": m.state.Session.Id.String(),
			"filename":   filename,
			"error":      err.Error(),
		})
		return
	}

	formatted := citation.FormatResponse(reply, m.citationSources())
	if _, err := m.deps.Sessions.AppendMessage(ctx, m.state.Session.Id, entity.ChatMessageRoleAssistant, formatted); err != nil {
		m.emitErrorNotice(err)
	}
	m.emit(dto.AssistantDisplay(formatted))
}
