package dto

import "github.com/google/uuid"

// Identity is who the transport authenticated for this connection.
type Identity struct {
	UserId              *uuid.UUID
	Username            string
	RegistrationPending bool
	EmailHint           string // From the login form, pre-fills the registration email step
}

// Pseudo-profiles offered alongside recent sessions.
const (
	ProfileNewChat     = "new_chat"
	ProfileManageChats = "manage_chats"
)

// Profile is one entry on the session chooser surface.
type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

type ConnectEvent struct {
	Profile string `json:"profile"`
}

type FileAttachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

type MessageEvent struct {
	Text string          `json:"text"`
	File *FileAttachment `json:"file,omitempty"`
}

type ActionKind string

const (
	ActionLoad   ActionKind = "load_chat"
	ActionRename ActionKind = "rename_chat"
	ActionDelete ActionKind = "delete_chat"
	ActionNew    ActionKind = "new_chat"
	ActionManage ActionKind = "manage_chats"
)

type ActionEvent struct {
	Kind         ActionKind `json:"kind"`
	SessionId    uuid.UUID  `json:"session_id"`
	CurrentTitle string     `json:"current_title,omitempty"`
}

// ActionButton is a clickable action the transport renders on a display
// message; clicking it comes back as an ActionEvent.
type ActionButton struct {
	Kind      ActionKind `json:"kind"`
	SessionId uuid.UUID  `json:"session_id"`
	Label     string     `json:"label"`
	Title     string     `json:"title,omitempty"`
}

// Display roles.
const (
	DisplayRoleSystem    = "system"
	DisplayRoleUser      = "user"
	DisplayRoleAssistant = "assistant"
)

// Display is one message for the transport to render.
type Display struct {
	Role    string         `json:"role"`
	Content string         `json:"content"`
	Actions []ActionButton `json:"actions,omitempty"`
}

func SystemDisplay(content string) *Display {
	return &Display{Role: DisplayRoleSystem, Content: content}
}

func AssistantDisplay(content string) *Display {
	return &Display{Role: DisplayRoleAssistant, Content: content}
}
