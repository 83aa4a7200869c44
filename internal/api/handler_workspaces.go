package api

import (
	"net/http"

	"anviltrack/internal/domain"
)

func (h *Handler) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	details, err := h.tracker.ListWorkspaces(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]workspaceResponse, 0, len(details))
	for _, d := range details {
		out = append(out, workspaceToAPI(d))
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BillingProjectID int64   `json:"billing_project_id"`
		Name             string  `json:"name"`
		AuthDomainIDs    []int64 `json:"auth_domain_ids"`
		IsLocked         bool    `json:"is_locked"`
		IsRequesterPays  bool    `json:"is_requester_pays"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	ws, err := h.tracker.CreateWorkspace(r.Context(), &domain.CreateWorkspaceRequest{
		BillingProjectID: req.BillingProjectID,
		Name:             req.Name,
		AuthDomainIDs:    req.AuthDomainIDs,
		IsLocked:         req.IsLocked,
		IsRequesterPays:  req.IsRequesterPays,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	detail, err := h.tracker.GetWorkspace(r.Context(), ws.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, workspaceToAPI(*detail))
}

func (h *Handler) getWorkspace(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	detail, err := h.tracker.GetWorkspace(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, workspaceToAPI(*detail))
}

func (h *Handler) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.tracker.DeleteWorkspace(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) listSharing(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	rows, err := h.tracker.ListWorkspaceSharing(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]sharingResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, sharingToAPI(row))
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) shareWorkspace(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req struct {
		GroupID    int64  `json:"group_id"`
		Access     string `json:"access"`
		CanCompute bool   `json:"can_compute"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	err = h.tracker.ShareWorkspace(r.Context(), &domain.ShareWorkspaceRequest{
		WorkspaceID: id,
		GroupID:     req.GroupID,
		Access:      req.Access,
		CanCompute:  req.CanCompute,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, nil)
}

func (h *Handler) unshareWorkspace(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	groupID, err := idParam(r, "groupID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.tracker.UnshareWorkspace(r.Context(), id, groupID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) listIgnoredSharings(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	rows, err := h.tracker.ListIgnoredWorkspaceSharings(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]ignoredResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, ignoredResponse{ID: row.ID, Email: row.Email, AddedBy: row.AddedBy, Note: row.Note, CreatedAt: row.CreatedAt})
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) ignoreSharing(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req struct {
		Email   string `json:"email"`
		AddedBy string `json:"added_by"`
		Note    string `json:"note"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	i, err := h.tracker.IgnoreWorkspaceSharing(r.Context(), &domain.IgnoreWorkspaceSharingRequest{
		WorkspaceID: id,
		Email:       req.Email,
		AddedBy:     req.AddedBy,
		Note:        req.Note,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, ignoredResponse{ID: i.ID, Email: i.Email, AddedBy: i.AddedBy, Note: i.Note, CreatedAt: i.CreatedAt})
}

func (h *Handler) deleteIgnoredSharing(w http.ResponseWriter, r *http.Request) {
	ignoredID, err := idParam(r, "ignoredID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.tracker.DeleteIgnoredWorkspaceSharing(r.Context(), ignoredID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}
