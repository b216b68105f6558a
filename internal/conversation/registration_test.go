package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	takenUsernames map[string]bool
	takenEmails    map[string]bool
}

func (f *fakeChecker) IsUsernameTaken(_ context.Context, username string) (bool, error) {
	return f.takenUsernames[username], nil
}

func (f *fakeChecker) IsEmailTaken(_ context.Context, email string) (bool, error) {
	return f.takenEmails[email], nil
}

func newChecker() *fakeChecker {
	return &fakeChecker{
		takenUsernames: map[string]bool{},
		takenEmails:    map[string]bool{},
	}
}

func advance(t *testing.T, d *RegistrationDraft, checker AccountChecker, input string) ([]string, bool) {
	t.Helper()
	prompts, done, err := d.Advance(context.Background(), input, checker)
	require.NoError(t, err)
	return prompts, done
}

func TestRegistrationHappyPath(t *testing.T) {
	draft := NewRegistrationDraft("")
	checker := newChecker()

	prompts, done := advance(t, draft, checker, "alice")
	assert.False(t, done)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "email")

	prompts, done = advance(t, draft, checker, "a@x.com")
	assert.False(t, done)
	assert.Contains(t, prompts[0], "password")

	prompts, done = advance(t, draft, checker, "pass1234")
	assert.False(t, done)
	assert.Contains(t, prompts[0], "confirm")

	_, done = advance(t, draft, checker, "pass1234")
	assert.True(t, done)

	assert.Equal(t, "alice", draft.Username)
	assert.Equal(t, "a@x.com", draft.Email)
	assert.Equal(t, "pass1234", draft.Password)
}

func TestRegistrationMismatchClearsPassword(t *testing.T) {
	draft := NewRegistrationDraft("")
	checker := newChecker()

	advance(t, draft, checker, "alice")
	advance(t, draft, checker, "a@x.com")
	advance(t, draft, checker, "pass1234")

	prompts, done := advance(t, draft, checker, "different")
	assert.False(t, done)
	assert.Contains(t, prompts[0], "do not match")

	// The draft password is discarded and the dialogue is back at the
	// password step, so confirming the old value must not complete it.
	assert.Equal(t, StepPassword, draft.Step)
	assert.Empty(t, draft.Password)

	prompts, done = advance(t, draft, checker, "newpass99")
	assert.False(t, done)
	assert.Contains(t, prompts[0], "confirm")

	_, done = advance(t, draft, checker, "newpass99")
	assert.True(t, done)
	assert.Equal(t, "newpass99", draft.Password)
}

func TestRegistrationShortPassword(t *testing.T) {
	draft := NewRegistrationDraft("")
	checker := newChecker()

	advance(t, draft, checker, "alice")
	advance(t, draft, checker, "a@x.com")

	prompts, done := advance(t, draft, checker, "short")
	assert.False(t, done)
	assert.Contains(t, prompts[0], "at least 8")
	assert.Equal(t, StepPassword, draft.Step)
}

func TestRegistrationTakenUsername(t *testing.T) {
	draft := NewRegistrationDraft("")
	checker := newChecker()
	checker.takenUsernames["alice"] = true

	prompts, done := advance(t, draft, checker, "alice")
	assert.False(t, done)
	assert.Contains(t, prompts[0], "already taken")
	assert.Equal(t, StepUsername, draft.Step)

	prompts, _ = advance(t, draft, checker, "alice2")
	assert.Contains(t, prompts[0], "email")
}

func TestRegistrationInvalidEmail(t *testing.T) {
	draft := NewRegistrationDraft("")
	checker := newChecker()

	advance(t, draft, checker, "alice")

	prompts, done := advance(t, draft, checker, "not-an-email")
	assert.False(t, done)
	assert.Contains(t, strings.ToLower(prompts[0]), "valid email")
	assert.Equal(t, StepEmail, draft.Step)
}

func TestRegistrationTakenEmail(t *testing.T) {
	draft := NewRegistrationDraft("")
	checker := newChecker()
	checker.takenEmails["a@x.com"] = true

	advance(t, draft, checker, "alice")

	prompts, done := advance(t, draft, checker, "a@x.com")
	assert.False(t, done)
	assert.Contains(t, prompts[0], "already exists")
	assert.Equal(t, StepEmail, draft.Step)
}

func TestRegistrationEmailHint(t *testing.T) {
	draft := NewRegistrationDraft("hint@x.com")
	checker := newChecker()

	prompts, _ := advance(t, draft, checker, "alice")
	assert.Contains(t, prompts[0], "hint@x.com")

	_, done := advance(t, draft, checker, "yes")
	assert.False(t, done)
	assert.Equal(t, "hint@x.com", draft.Email)
	assert.Equal(t, StepPassword, draft.Step)
}

func TestRegistrationEmptyUsername(t *testing.T) {
	draft := NewRegistrationDraft("")
	checker := newChecker()

	prompts, done := advance(t, draft, checker, "   ")
	assert.False(t, done)
	assert.Contains(t, prompts[0], "cannot be empty")
	assert.Equal(t, StepUsername, draft.Step)
}

func TestRegistrationRestart(t *testing.T) {
	draft := NewRegistrationDraft("hint@x.com")
	checker := newChecker()

	advance(t, draft, checker, "alice")
	advance(t, draft, checker, "a@x.com")
	advance(t, draft, checker, "pass1234")
	_, done := advance(t, draft, checker, "pass1234")
	require.True(t, done)

	draft.Restart()

	assert.Equal(t, StepUsername, draft.Step)
	assert.Empty(t, draft.Username)
	assert.Empty(t, draft.Email)
	assert.Empty(t, draft.Password)
	assert.Equal(t, "hint@x.com", draft.EmailHint)
}
