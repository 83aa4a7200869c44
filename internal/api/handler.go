// Package api provides the HTTP handlers for the tracker REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"anviltrack/internal/domain"
	"anviltrack/internal/service/audit"
	"anviltrack/internal/service/tracker"
)

// Handler serves the tracker and audit endpoints.
type Handler struct {
	tracker *tracker.Service
	runner  *audit.Runner
	client  domain.AnVILClient
	logger  *slog.Logger
}

func NewHandler(tracker *tracker.Service, runner *audit.Runner, client domain.AnVILClient, logger *slog.Logger) *Handler {
	return &Handler{tracker: tracker, runner: runner, client: client, logger: logger}
}

// Routes assembles the API route tree.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.health)
	r.Get("/status", h.remoteStatus)

	r.Route("/api", func(r chi.Router) {
		r.Route("/billing-projects", func(r chi.Router) {
			r.Get("/", h.listBillingProjects)
			r.Post("/", h.createBillingProject)
			r.Get("/{id}", h.getBillingProject)
			r.Delete("/{id}", h.deleteBillingProject)
		})
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.listAccounts)
			r.Post("/", h.createAccount)
			r.Get("/{id}", h.getAccount)
			r.Delete("/{id}", h.deleteAccount)
			r.Post("/{id}/deactivate", h.deactivateAccount)
			r.Post("/{id}/reactivate", h.reactivateAccount)
		})
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.listGroups)
			r.Post("/", h.createGroup)
			r.Get("/graph", h.fullGraph)
			r.Get("/{id}", h.getGroup)
			r.Delete("/{id}", h.deleteGroup)
			r.Get("/{id}/accounts", h.listGroupAccounts)
			r.Post("/{id}/accounts", h.addGroupAccount)
			r.Delete("/{id}/accounts/{accountID}", h.removeGroupAccount)
			r.Get("/{id}/groups", h.listGroupChildren)
			r.Post("/{id}/groups", h.addGroupChild)
			r.Delete("/{id}/groups/{childID}", h.removeGroupChild)
			r.Get("/{id}/ignored", h.listIgnoredMemberships)
			r.Post("/{id}/ignored", h.ignoreMembership)
			r.Delete("/{id}/ignored/{ignoredID}", h.deleteIgnoredMembership)
		})
		r.Route("/workspaces", func(r chi.Router) {
			r.Get("/", h.listWorkspaces)
			r.Post("/", h.createWorkspace)
			r.Get("/{id}", h.getWorkspace)
			r.Delete("/{id}", h.deleteWorkspace)
			r.Get("/{id}/sharing", h.listSharing)
			r.Post("/{id}/sharing", h.shareWorkspace)
			r.Delete("/{id}/sharing/{groupID}", h.unshareWorkspace)
			r.Get("/{id}/ignored", h.listIgnoredSharings)
			r.Post("/{id}/ignored", h.ignoreSharing)
			r.Delete("/{id}/ignored/{ignoredID}", h.deleteIgnoredSharing)
		})
		r.Route("/audits", func(r chi.Router) {
			r.Post("/run", h.runAllAudits)
			r.Post("/{type}/run", h.runAudit)
			r.Get("/{type}", h.latestAudit)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// remoteStatus probes the remote platform itself.
func (h *Handler) remoteStatus(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Status(r.Context()); err != nil {
		h.respond(w, http.StatusBadGateway, map[string]string{"status": "unreachable", "error": err.Error()})
		return
	}
	out := map[string]string{"status": "ok"}
	if email, err := h.client.Me(r.Context()); err == nil {
		out["registered_as"] = email
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	h.respond(w, status, map[string]string{"error": err.Error()})
}

// decode unmarshals a JSON request body into v.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondError(w, domain.ErrValidation("invalid request body: %v", err))
		return false
	}
	return true
}

// idParam parses the named integer URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation("invalid %s %q", name, raw)
	}
	return id, nil
}
