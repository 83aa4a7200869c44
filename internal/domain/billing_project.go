package domain

import "time"

// BillingProject represents an AnVIL billing project tracked by the app.
type BillingProject struct {
	ID           int64
	Name         string
	HasAppAsUser bool // only projects where the app's service account is a user are audited
	CreatedAt    time.Time
}

// CreateBillingProjectRequest holds parameters for creating a new billing project.
type CreateBillingProjectRequest struct {
	Name         string
	HasAppAsUser bool
}

// Validate checks that the request is well-formed.
func (r *CreateBillingProjectRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("billing project name is required")
	}
	return nil
}
