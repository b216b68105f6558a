package dto

import "github.com/google/uuid"

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"` // Username or email
	Password   string `json:"password"`
	// Register requests a registration-pending token instead of a login;
	// the account is created conversationally after connect.
	Register bool `json:"register"`
}

type LoginResponse struct {
	Token               string     `json:"token"`
	UserId              *uuid.UUID `json:"user_id,omitempty"`
	Username            string     `json:"username,omitempty"`
	RegistrationPending bool       `json:"registration_pending"`
}
