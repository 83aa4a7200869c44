package domain

import (
	"strings"
	"time"
)

// Account statuses.
const (
	AccountActive   = "ACTIVE"
	AccountInactive = "INACTIVE"
)

// Account represents an AnVIL user or service account tracked by the app.
// Emails are case-folded to lowercase at write time; AnVIL treats them
// case-insensitively.
type Account struct {
	ID               int64
	UUID             string
	Email            string
	Status           string // AccountActive or AccountInactive
	IsServiceAccount bool
	CreatedAt        time.Time
	DeactivatedAt    *time.Time
}

// IsActive reports whether the account is active.
func (a *Account) IsActive() bool { return a.Status == AccountActive }

// CreateAccountRequest holds parameters for creating a new account.
type CreateAccountRequest struct {
	Email            string
	IsServiceAccount bool
}

// Validate checks that the request is well-formed and folds the email.
func (r *CreateAccountRequest) Validate() error {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		return ErrValidation("account email is required")
	}
	if !strings.Contains(r.Email, "@") {
		return ErrValidation("account email %q is not a valid email address", r.Email)
	}
	return nil
}
