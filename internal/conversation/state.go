package conversation

import (
	"docchat-be/internal/entity"

	"github.com/google/uuid"
)

// Mode is the single discriminator for how the next inbound event is
// interpreted. Exactly one mode is in effect at a time.
type Mode int

const (
	// ModeRegistration means the connection is walking the account
	// creation dialogue; no session exists yet.
	ModeRegistration Mode = iota

	// ModeActiveChat routes plain messages to the AI backend.
	ModeActiveChat

	// ModeManagement means the session management listing is on screen.
	// The active session stays loaded underneath it.
	ModeManagement

	// ModePendingRename consumes the next plain message as the new title
	// for RenameTarget instead of sending it to the model.
	ModePendingRename

	// ModeUnauthenticated means the account was just created on this
	// connection. The token it connected with carries no identity, so
	// every event is refused until the client reconnects after logging
	// in with the new credentials.
	ModeUnauthenticated
)

// State is the complete per-connection conversational state. It is owned
// by the connection's reader goroutine; events are handled one at a time,
// so no locking is needed.
type State struct {
	Mode     Mode
	UserId   uuid.UUID
	Username string

	// Registration draft, only meaningful in ModeRegistration.
	Draft *RegistrationDraft

	// Active session context. Cleared when entering registration, kept
	// across management and pending-rename detours.
	Session   *entity.ChatSession
	Chat      ChatHandle
	Documents []*entity.Document

	// Rename detour bookkeeping, only meaningful in ModePendingRename.
	RenameTarget uuid.UUID
	RenameFrom   string
}

func (s *State) enterRegistration(emailHint string) {
	s.Mode = ModeRegistration
	s.Draft = NewRegistrationDraft(emailHint)
	s.Session = nil
	s.Chat = nil
	s.Documents = nil
	s.RenameTarget = uuid.Nil
	s.RenameFrom = ""
}

func (s *State) enterUnauthenticated() {
	s.Mode = ModeUnauthenticated
	s.Draft = nil
	s.Session = nil
	s.Chat = nil
	s.Documents = nil
	s.RenameTarget = uuid.Nil
	s.RenameFrom = ""
}

func (s *State) enterChat(session *entity.ChatSession, chat ChatHandle, documents []*entity.Document) {
	s.Mode = ModeActiveChat
	s.Draft = nil
	s.Session = session
	s.Chat = chat
	s.Documents = documents
	s.RenameTarget = uuid.Nil
	s.RenameFrom = ""
}

func (s *State) enterManagement() {
	s.Mode = ModeManagement
	s.RenameTarget = uuid.Nil
	s.RenameFrom = ""
}

func (s *State) enterPendingRename(target uuid.UUID, currentTitle string) {
	s.Mode = ModePendingRename
	s.RenameTarget = target
	s.RenameFrom = currentTitle
}

// resumeChat leaves a management or rename detour without touching the
// loaded session context.
func (s *State) resumeChat() {
	s.Mode = ModeActiveChat
	s.RenameTarget = uuid.Nil
	s.RenameFrom = ""
}
