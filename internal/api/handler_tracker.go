package api

import (
	"context"
	"net/http"

	"anviltrack/internal/domain"
)

// --- billing projects ---

func (h *Handler) listBillingProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.tracker.ListBillingProjects(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]billingProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, billingProjectToAPI(p))
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) createBillingProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		HasAppAsUser bool   `json:"has_app_as_user"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.tracker.CreateBillingProject(r.Context(), &domain.CreateBillingProjectRequest{
		Name:         req.Name,
		HasAppAsUser: req.HasAppAsUser,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, billingProjectToAPI(*p))
}

func (h *Handler) getBillingProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	p, err := h.tracker.GetBillingProject(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, billingProjectToAPI(*p))
}

func (h *Handler) deleteBillingProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.tracker.DeleteBillingProject(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

// --- accounts ---

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.tracker.ListAccounts(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountToAPI(a))
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email            string `json:"email"`
		IsServiceAccount bool   `json:"is_service_account"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	a, err := h.tracker.CreateAccount(r.Context(), &domain.CreateAccountRequest{
		Email:            req.Email,
		IsServiceAccount: req.IsServiceAccount,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, accountToAPI(*a))
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	a, err := h.tracker.GetAccount(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, accountToAPI(*a))
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.tracker.DeleteAccount(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) deactivateAccount(w http.ResponseWriter, r *http.Request) {
	h.setAccountStatus(w, r, h.tracker.DeactivateAccount)
}

func (h *Handler) reactivateAccount(w http.ResponseWriter, r *http.Request) {
	h.setAccountStatus(w, r, h.tracker.ReactivateAccount)
}

func (h *Handler) setAccountStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) error) {
	id, err := idParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := op(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	a, err := h.tracker.GetAccount(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, accountToAPI(*a))
}
