package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegistrationStep is where the account creation dialogue currently is.
type RegistrationStep int

const (
	StepUsername RegistrationStep = iota
	StepEmail
	StepPassword
	StepConfirm
)

var validate = validator.New()

// AccountChecker is the slice of the account service the registration
// dialogue needs for pre-checks.
type AccountChecker interface {
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
}

// RegistrationDraft accumulates the account fields across the dialogue.
// Nothing is persisted until every step has passed; disconnecting mid-flow
// discards the draft entirely.
type RegistrationDraft struct {
	Step              RegistrationStep
	EmailHint         string
	PasswordMinLength int

	Username string
	Email    string
	Password string
}

func NewRegistrationDraft(emailHint string) *RegistrationDraft {
	return &RegistrationDraft{
		Step:              StepUsername,
		EmailHint:         strings.TrimSpace(emailHint),
		PasswordMinLength: 8,
	}
}

// WelcomePrompt opens the dialogue when a registration-pending connection
// arrives.
func (d *RegistrationDraft) WelcomePrompt() string {
	return "Welcome! Let's set up your account.\n\nPlease choose a username:"
}

func (d *RegistrationDraft) emailPrompt() string {
	if d.EmailHint != "" {
		return fmt.Sprintf("Now enter your email address (send \"yes\" to use %s):", d.EmailHint)
	}
	return "Now enter your email address:"
}

// Advance consumes one user input and moves the dialogue forward. It
// returns the prompts to display next and whether the draft is complete
// and ready to commit. Invalid input re-prompts the same step; a password
// confirmation mismatch steps back to the password step with the draft
// password cleared.
func (d *RegistrationDraft) Advance(ctx context.Context, input string, accounts AccountChecker) ([]string, bool, error) {
	switch d.Step {
	case StepUsername:
		return d.advanceUsername(ctx, strings.TrimSpace(input), accounts)
	case StepEmail:
		return d.advanceEmail(ctx, strings.TrimSpace(input), accounts)
	case StepPassword:
		return d.advancePassword(input)
	case StepConfirm:
		return d.advanceConfirm(input)
	default:
		return []string{d.WelcomePrompt()}, false, nil
	}
}

func (d *RegistrationDraft) advanceUsername(ctx context.Context, input string, accounts AccountChecker) ([]string, bool, error) {
	if input == "" {
		return []string{"Username cannot be empty. Please choose a username:"}, false, nil
	}

	taken, err := accounts.IsUsernameTaken(ctx, input)
	if err != nil {
		return nil, false, err
	}
	if taken {
		return []string{fmt.Sprintf("The username **%s** is already taken. Please choose another:", input)}, false, nil
	}

	d.Username = input
	d.Step = StepEmail
	return []string{d.emailPrompt()}, false, nil
}

func (d *RegistrationDraft) advanceEmail(ctx context.Context, input string, accounts AccountChecker) ([]string, bool, error) {
	if d.EmailHint != "" && strings.EqualFold(input, "yes") {
		input = d.EmailHint
	}

	if err := validate.Var(input, "required,email"); err != nil {
		return []string{"That doesn't look like a valid email address. Please try again:"}, false, nil
	}

	taken, err := accounts.IsEmailTaken(ctx, input)
	if err != nil {
		return nil, false, err
	}
	if taken {
		return []string{fmt.Sprintf("An account with **%s** already exists. Please enter a different email:", input)}, false, nil
	}

	d.Email = input
	d.Step = StepPassword
	return []string{fmt.Sprintf("Choose a password (at least %d characters):", d.PasswordMinLength)}, false, nil
}

func (d *RegistrationDraft) advancePassword(input string) ([]string, bool, error) {
	if len(input) < d.PasswordMinLength {
		return []string{fmt.Sprintf("Password must be at least %d characters. Please try again:", d.PasswordMinLength)}, false, nil
	}

	d.Password = input
	d.Step = StepConfirm
	return []string{"Please confirm your password:"}, false, nil
}

func (d *RegistrationDraft) advanceConfirm(input string) ([]string, bool, error) {
	if input != d.Password {
		// The typo could be in either entry, so both are discarded.
		d.Password = ""
		d.Step = StepPassword
		return []string{fmt.Sprintf("Passwords do not match. Choose a password (at least %d characters):", d.PasswordMinLength)}, false, nil
	}
	return nil, true, nil
}

// Restart sends the dialogue back to the first step after a commit
// conflict, keeping only the email hint.
func (d *RegistrationDraft) Restart() []string {
	d.Step = StepUsername
	d.Username = ""
	d.Email = ""
	d.Password = ""
	return []string{
		"That username or email was just taken by someone else. Let's start over.",
		"Please choose a username:",
	}
}
