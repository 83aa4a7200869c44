package api

import (
	"time"

	"anviltrack/internal/domain"
)

type billingProjectResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	HasAppAsUser bool      `json:"has_app_as_user"`
	CreatedAt    time.Time `json:"created_at"`
}

func billingProjectToAPI(p domain.BillingProject) billingProjectResponse {
	return billingProjectResponse{ID: p.ID, Name: p.Name, HasAppAsUser: p.HasAppAsUser, CreatedAt: p.CreatedAt}
}

type accountResponse struct {
	ID               int64      `json:"id"`
	UUID             string     `json:"uuid"`
	Email            string     `json:"email"`
	Status           string     `json:"status"`
	IsServiceAccount bool       `json:"is_service_account"`
	DeactivatedAt    *time.Time `json:"deactivated_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func accountToAPI(a domain.Account) accountResponse {
	return accountResponse{
		ID:               a.ID,
		UUID:             a.UUID,
		Email:            a.Email,
		Status:           a.Status,
		IsServiceAccount: a.IsServiceAccount,
		DeactivatedAt:    a.DeactivatedAt,
		CreatedAt:        a.CreatedAt,
	}
}

type groupResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	IsManagedByApp bool      `json:"is_managed_by_app"`
	CreatedAt      time.Time `json:"created_at"`
}

func groupToAPI(g domain.ManagedGroup) groupResponse {
	return groupResponse{ID: g.ID, Name: g.Name, Email: g.Email, IsManagedByApp: g.IsManagedByApp, CreatedAt: g.CreatedAt}
}

type accountMembershipResponse struct {
	ID      int64           `json:"id"`
	Role    string          `json:"role"`
	Account accountResponse `json:"account"`
}

type groupMembershipResponse struct {
	ID         int64         `json:"id"`
	Role       string        `json:"role"`
	ChildGroup groupResponse `json:"child_group"`
}

type workspaceResponse struct {
	ID              int64           `json:"id"`
	BillingProject  string          `json:"billing_project"`
	Name            string          `json:"name"`
	FullName        string          `json:"full_name"`
	IsLocked        bool            `json:"is_locked"`
	IsRequesterPays bool            `json:"is_requester_pays"`
	AuthDomains     []groupResponse `json:"auth_domains,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func workspaceToAPI(d domain.WorkspaceDetail) workspaceResponse {
	resp := workspaceResponse{
		ID:              d.Workspace.ID,
		BillingProject:  d.BillingProject.Name,
		Name:            d.Workspace.Name,
		FullName:        d.FullName(),
		IsLocked:        d.Workspace.IsLocked,
		IsRequesterPays: d.Workspace.IsRequesterPays,
		CreatedAt:       d.Workspace.CreatedAt,
	}
	for _, g := range d.AuthDomains {
		resp.AuthDomains = append(resp.AuthDomains, groupToAPI(g))
	}
	return resp
}

type sharingResponse struct {
	ID         int64         `json:"id"`
	Group      groupResponse `json:"group"`
	Access     string        `json:"access"`
	CanCompute bool          `json:"can_compute"`
	CanShare   bool          `json:"can_share"`
}

func sharingToAPI(d domain.WorkspaceSharingDetail) sharingResponse {
	return sharingResponse{
		ID:         d.Sharing.ID,
		Group:      groupToAPI(d.Group),
		Access:     d.Sharing.Access,
		CanCompute: d.Sharing.CanCompute,
		CanShare:   d.Sharing.CanShare(),
	}
}

type ignoredResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	AddedBy   string    `json:"added_by"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
