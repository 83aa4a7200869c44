package api

import (
	"net/http"

	"anviltrack/internal/domain"
)

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.tracker.ListManagedGroups(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupToAPI(g))
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		IsManagedByApp bool   `json:"is_managed_by_app"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	g, err := h.tracker.CreateManagedGroup(r.Context(), &domain.CreateManagedGroupRequest{
		Name:           req.Name,
		Email:          req.Email,
		IsManagedByApp: req.IsManagedByApp,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, groupToAPI(*g))
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	g, err := h.tracker.GetManagedGroup(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, groupToAPI(*g))
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.tracker.DeleteManagedGroup(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) fullGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := h.tracker.FullGraph(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, snap)
}

func (h *Handler) listGroupAccounts(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	rows, err := h.tracker.ListAccountMemberships(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]accountMembershipResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, accountMembershipResponse{
			ID:      row.Membership.ID,
			Role:    row.Membership.Role,
			Account: accountToAPI(row.Account),
		})
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) addGroupAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req struct {
		AccountID int64  `json:"account_id"`
		Role      string `json:"role"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	err = h.tracker.AddAccountToGroup(r.Context(), &domain.AddGroupAccountMembershipRequest{
		GroupID:   id,
		AccountID: req.AccountID,
		Role:      req.Role,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, nil)
}

func (h *Handler) removeGroupAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	accountID, err := idParam(r, "accountID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.tracker.RemoveAccountFromGroup(r.Context(), id, accountID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) listGroupChildren(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	rows, err := h.tracker.ListGroupMemberships(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]groupMembershipResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, groupMembershipResponse{
			ID:         row.Membership.ID,
			Role:       row.Membership.Role,
			ChildGroup: groupToAPI(row.ChildGroup),
		})
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) addGroupChild(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req struct {
		ChildGroupID int64  `json:"child_group_id"`
		Role         string `json:"role"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	err = h.tracker.AddGroupToGroup(r.Context(), &domain.AddGroupGroupMembershipRequest{
		ParentGroupID: id,
		ChildGroupID:  req.ChildGroupID,
		Role:          req.Role,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, nil)
}

func (h *Handler) removeGroupChild(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	childID, err := idParam(r, "childID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.tracker.RemoveGroupFromGroup(r.Context(), id, childID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) listIgnoredMemberships(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	rows, err := h.tracker.ListIgnoredGroupMemberships(r.Context(), id)
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

func (h *Handler) ignoreMembership(w http.ResponseWriter, r *http.Request) {
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
	i, err := h.tracker.IgnoreGroupMembership(r.Context(), &domain.IgnoreGroupMembershipRequest{
		GroupID: id,
		Email:   req.Email,
		AddedBy: req.AddedBy,
		Note:    req.Note,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, ignoredResponse{ID: i.ID, Email: i.Email, AddedBy: i.AddedBy, Note: i.Note, CreatedAt: i.CreatedAt})
}

func (h *Handler) deleteIgnoredMembership(w http.ResponseWriter, r *http.Request) {
	ignoredID, err := idParam(r, "ignoredID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.tracker.DeleteIgnoredGroupMembership(r.Context(), ignoredID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}
