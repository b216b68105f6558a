package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docchat-be/internal/apperr"
	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/service"
	"docchat-be/pkg/storage"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// Session titles default to this until a rename or first upload.
	freshSessionTitle = "New Chat"

	// Replayed history messages are cut to this many runes for display; the
	// model context always gets the full text.
	historyDisplayLimit = 500

	// recentProfileCount is how many recent sessions appear on the chooser.
	recentProfileCount = 5
)

// summaryMarker identifies the internal summary prompt so it is never
// replayed as visible history.
const summaryMarker = "Provide a comprehensive summary using this format:"

// Emitter delivers display messages to the connected client.
type Emitter interface {
	Emit(display *dto.Display) error
}

// Deps are the collaborators a Machine needs. One Deps value is shared by
// every connection; per-connection state lives in the Machine itself.
type Deps struct {
	Accounts service.IAccountService
	Sessions service.ISessionService
	Backend  Backend
	Store    *storage.LocalStore
	Log      logger.ILogger

	MaxFileSizeMB     int
	ProcessTimeout    time.Duration
	PasswordMinLength int
}

// Machine interprets one connection's inbound events against its
// conversational state. It is driven by a single goroutine; events are
// handled strictly one at a time.
type Machine struct {
	deps    Deps
	emitter Emitter
	state   State

	// profileIndex maps chooser entry names back to session ids for the
	// connect event. Rebuilt every time Profiles runs.
	profileIndex map[string]uuid.UUID
}

func NewMachine(deps Deps, identity dto.Identity, emitter Emitter) *Machine {
	m := &Machine{
		deps:         deps,
		emitter:      emitter,
		profileIndex: make(map[string]uuid.UUID),
	}
	if identity.UserId != nil {
		m.state.UserId = *identity.UserId
		m.state.Username = identity.Username
	}
	if identity.RegistrationPending {
		m.state.enterRegistration(identity.EmailHint)
		if m.state.Draft != nil && deps.PasswordMinLength > 0 {
			m.state.Draft.PasswordMinLength = deps.PasswordMinLength
		}
	}
	return m
}

// Snapshot exposes the current state for tests and the transport layer.
func (m *Machine) Snapshot() *State {
	return &m.state
}

func (m *Machine) emit(display *dto.Display) {
	if err := m.emitter.Emit(display); err != nil {
		m.deps.Log.Warn("conversation", "failed to emit display message", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (m *Machine) notice(format string, args ...interface{}) {
	m.emit(dto.SystemDisplay(fmt.Sprintf(format, args...)))
}

// Profiles builds the session chooser: the most recent sessions by last
// activity, deduplicated by title, followed by the two pseudo-profiles.
func (m *Machine) Profiles(ctx context.Context) ([]dto.Profile, error) {
	if m.state.Mode == ModeRegistration || m.state.Mode == ModeUnauthenticated {
		return nil, nil
	}

	sessions, err := m.deps.Sessions.List(ctx, m.state.UserId)
	if err != nil {
		return nil, err
	}
	if len(sessions) > recentProfileCount {
		sessions = sessions[:recentProfileCount]
	}

	m.profileIndex = make(map[string]uuid.UUID, len(sessions))
	profiles := make([]dto.Profile, 0, len(sessions)+2)

	seen := make(map[string]int, len(sessions))
	for i, s := range sessions {
		name := s.Title
		seen[s.Title]++
		if n := seen[s.Title]; n > 1 {
			name = fmt.Sprintf("%s (%d)", s.Title, n)
		}

		desc := "Resume this chat"
		if s.UpdatedAt != nil {
			desc = fmt.Sprintf("Last active %s", s.UpdatedAt.Format("Jan 2, 15:04"))
		}

		m.profileIndex[name] = s.Id
		profiles = append(profiles, dto.Profile{
			Name:        name,
			Description: desc,
			Default:     i == 0,
		})
	}

	profiles = append(profiles,
		dto.Profile{Name: dto.ProfileNewChat, Description: "Start a fresh chat", Default: len(profiles) == 0},
		dto.Profile{Name: dto.ProfileManageChats, Description: "Load, rename or delete your chats"},
	)
	return profiles, nil
}

// HandleConnect establishes the connection's starting mode from the chosen
// profile, or opens the registration dialogue when no account exists yet.
func (m *Machine) HandleConnect(ctx context.Context, evt *dto.ConnectEvent) error {
	if m.state.Mode == ModeUnauthenticated {
		m.notice("Please log in again to continue.")
		return nil
	}
	if m.state.Mode == ModeRegistration {
		m.emit(dto.SystemDisplay(m.state.Draft.WelcomePrompt()))
		return nil
	}

	switch evt.Profile {
	case dto.ProfileNewChat:
		return m.startNewChat(ctx, true)

	case dto.ProfileManageChats:
		if err := m.openDefaultSession(ctx, false); err != nil {
			return err
		}
		return m.showManagement(ctx)

	case "":
		return m.openDefaultSession(ctx, true)

	default:
		if len(m.profileIndex) == 0 {
			if _, err := m.Profiles(ctx); err != nil {
				return err
			}
		}
		sessionId, ok := m.profileIndex[evt.Profile]
		if !ok {
			return m.openDefaultSession(ctx, true)
		}
		return m.openSession(ctx, sessionId, true)
	}
}

// HandleMessage routes one plain message by mode precedence: registration
// first, then a pending rename, then the document/chat router.
func (m *Machine) HandleMessage(ctx context.Context, evt *dto.MessageEvent) error {
	switch m.state.Mode {
	case ModeUnauthenticated:
		m.notice("Please log in again to continue.")
		return nil
	case ModeRegistration:
		return m.handleRegistrationInput(ctx, evt.Text)
	case ModePendingRename:
		return m.handleRenameInput(ctx, evt.Text)
	case ModeManagement:
		// A plain message while the listing is up resumes the chat.
		m.state.resumeChat()
	}
	return m.routeMessage(ctx, evt)
}

// HandleAction routes one clicked action button.
func (m *Machine) HandleAction(ctx context.Context, evt *dto.ActionEvent) error {
	if m.state.Mode == ModeUnauthenticated {
		m.notice("Please log in again to continue.")
		return nil
	}
	if m.state.Mode == ModeRegistration {
		m.notice("Please finish creating your account first.")
		return nil
	}

	switch evt.Kind {
	case dto.ActionNew:
		return m.startNewChat(ctx, true)
	case dto.ActionManage:
		return m.showManagement(ctx)
	case dto.ActionLoad:
		return m.actionLoad(ctx, evt.SessionId)
	case dto.ActionRename:
		m.state.enterPendingRename(evt.SessionId, evt.CurrentTitle)
		m.notice("Send the new title for **%s**:", evt.CurrentTitle)
		return nil
	case dto.ActionDelete:
		return m.actionDelete(ctx, evt.SessionId)
	default:
		m.notice("Unknown action.")
		return nil
	}
}

func (m *Machine) handleRegistrationInput(ctx context.Context, input string) error {
	prompts, done, err := m.state.Draft.Advance(ctx, input, m.deps.Accounts)
	if err != nil {
		m.deps.Log.Error("conversation", "registration step failed", map[string]interface{}{
			"error": err.Error(),
		})
		m.notice("Something went wrong. Please try again.")
		return nil
	}
	for _, p := range prompts {
		m.emit(dto.SystemDisplay(p))
	}
	if !done {
		return nil
	}

	draft := m.state.Draft
	user, err := m.deps.Accounts.Register(ctx, draft.Username, draft.Email, draft.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			for _, p := range draft.Restart() {
				m.emit(dto.SystemDisplay(p))
			}
			return nil
		}
		m.deps.Log.Error("conversation", "registration commit failed", map[string]interface{}{
			"username": draft.Username,
			"error":    err.Error(),
		})
		m.notice("We couldn't create your account right now. Please try again.")
		return nil
	}

	// The connect token carries no account, so the new identity is not
	// adopted here. The client has to log in again with the credentials
	// it just created.
	m.state.enterUnauthenticated()
	m.notice("✅ Account created, **%s**! Please log out and log in again with your new credentials.", user.Username)
	return nil
}

func (m *Machine) handleRenameInput(ctx context.Context, input string) error {
	target := m.state.RenameTarget
	session, err := m.deps.Sessions.Rename(ctx, m.state.UserId, target, input)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrValidation):
			m.notice("The title cannot be empty. Send the new title for **%s**:", m.state.RenameFrom)
			return nil
		case errors.Is(err, apperr.ErrNotFound):
			m.notice("That chat no longer exists.")
		case errors.Is(err, apperr.ErrForbidden):
			m.notice("You don't have access to that chat.")
		default:
			m.emitErrorNotice(err)
		}
		return m.showManagement(ctx)
	}

	m.notice("Renamed **%s** to **%s**.", m.state.RenameFrom, session.Title)
	if m.state.Session != nil && m.state.Session.Id == session.Id {
		m.state.Session.Title = session.Title
	}
	return m.showManagement(ctx)
}

func (m *Machine) actionLoad(ctx context.Context, sessionId uuid.UUID) error {
	err := m.openSession(ctx, sessionId, true)
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		m.notice("That chat no longer exists.")
		return m.showManagement(ctx)
	case errors.Is(err, apperr.ErrForbidden):
		m.notice("You don't have access to that chat.")
		return m.showManagement(ctx)
	default:
		return err
	}
}

func (m *Machine) actionDelete(ctx context.Context, sessionId uuid.UUID) error {
	if err := m.deps.Sessions.SoftDelete(ctx, m.state.UserId, sessionId); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			m.notice("That chat no longer exists.")
		case errors.Is(err, apperr.ErrForbidden):
			m.notice("You don't have access to that chat.")
		default:
			m.emitErrorNotice(err)
		}
		return m.showManagement(ctx)
	}

	m.notice("Chat deleted.")
	if m.state.Session != nil && m.state.Session.Id == sessionId {
		// The active session is gone; fall back to the most recent one.
		if err := m.openDefaultSession(ctx, false); err != nil {
			return err
		}
	}
	return m.showManagement(ctx)
}

func (m *Machine) startNewChat(ctx context.Context, announce bool) error {
	session, err := m.deps.Sessions.Create(ctx, m.state.UserId)
	if err != nil {
		m.emitErrorNotice(err)
		return err
	}

	m.state.enterChat(session, m.deps.Backend.NewChat(nil, nil), nil)
	if announce {
		m.notice("Started a new chat. Send a message or upload a document to begin.")
	} else {
		m.notice("Send a message or upload a document to begin.")
	}
	return nil
}

func (m *Machine) openDefaultSession(ctx context.Context, replay bool) error {
	history, created, err := m.deps.Sessions.LoadOrCreateDefault(ctx, m.state.UserId)
	if err != nil {
		m.emitErrorNotice(err)
		return err
	}
	m.adoptHistory(history)
	if created {
		m.notice("Welcome, **%s**! Send a message or upload a document to begin.", m.state.Username)
		return nil
	}
	if replay {
		m.replayHistory(history)
	}
	return nil
}

func (m *Machine) openSession(ctx context.Context, sessionId uuid.UUID, replay bool) error {
	history, err := m.deps.Sessions.Load(ctx, m.state.UserId, sessionId)
	if err != nil {
		return err
	}
	m.adoptHistory(history)
	if replay {
		m.notice("Resumed **%s**.", history.Session.Title)
		m.replayHistory(history)
	}
	return nil
}

// adoptHistory installs a loaded session as the active chat, rebuilding the
// backend context from stored messages and processed documents.
func (m *Machine) adoptHistory(history *service.SessionHistory) {
	turns := make([]HistoryTurn, 0, len(history.Messages))
	for _, msg := range history.Messages {
		if strings.Contains(msg.Content, summaryMarker) {
			continue
		}
		turns = append(turns, HistoryTurn{Role: msg.Role, Text: msg.Content})
	}

	files := make([]FileRef, 0, len(history.Documents))
	for _, doc := range history.Documents {
		if doc.RemoteFileURI == "" {
			continue
		}
		files = append(files, FileRef{
			Name:     doc.RemoteFileRef,
			URI:      doc.RemoteFileURI,
			MimeType: doc.MimeType,
		})
	}

	m.state.enterChat(history.Session, m.deps.Backend.NewChat(turns, files), history.Documents)
}

func (m *Machine) replayHistory(history *service.SessionHistory) {
	for _, msg := range history.Messages {
		if strings.Contains(msg.Content, summaryMarker) {
			continue
		}
		content := msg.Content
		if runes := []rune(content); len(runes) > historyDisplayLimit {
			content = string(runes[:historyDisplayLimit]) + "..."
		}
		m.emit(&dto.Display{Role: msg.Role, Content: content})
	}
}

// showManagement renders the session listing with per-session actions and
// leaves the connection in management mode.
func (m *Machine) showManagement(ctx context.Context) error {
	sessions, err := m.deps.Sessions.List(ctx, m.state.UserId)
	if err != nil {
		m.emitErrorNotice(err)
		return err
	}

	if len(sessions) == 0 {
		m.notice("You have no chats yet.")
		m.state.enterManagement()
		return nil
	}

	m.notice("**Your chats:**")
	for _, s := range sessions {
		line := fmt.Sprintf("**%s**", s.Title)
		if s.UpdatedAt != nil {
			line = fmt.Sprintf("**%s** - last active %s", s.Title, s.UpdatedAt.Format("Jan 2, 15:04"))
		}
		m.emit(&dto.Display{
			Role:    dto.DisplayRoleSystem,
			Content: line,
			Actions: []dto.ActionButton{
				{Kind: dto.ActionLoad, SessionId: s.Id, Label: "Load", Title: s.Title},
				{Kind: dto.ActionRename, SessionId: s.Id, Label: "Rename", Title: s.Title},
				{Kind: dto.ActionDelete, SessionId: s.Id, Label: "Delete", Title: s.Title},
			},
		})
	}
	m.state.enterManagement()
	return nil
}
