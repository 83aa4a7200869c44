package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"anviltrack/internal/domain"
	"anviltrack/internal/service/audit"
)

func (h *Handler) runAllAudits(w http.ResponseWriter, r *http.Request) {
	results, err := h.runner.RunAll(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, results)
}

func (h *Handler) runAudit(w http.ResponseWriter, r *http.Request) {
	export, err := h.runner.Run(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, export)
}

// latestAudit serves the cached report from the most recent run of the
// given audit type.
func (h *Handler) latestAudit(w http.ResponseWriter, r *http.Request) {
	auditType := chi.URLParam(r, "type")
	export, ok := h.runner.Latest(auditType)
	if !ok {
		validTypes := audit.Types()
		for _, t := range validTypes {
			if t == auditType {
				h.respondError(w, domain.ErrNotFound("no audit of type %q has run yet", auditType))
				return
			}
		}
		h.respondError(w, domain.ErrValidation("unknown audit type %q", auditType))
		return
	}
	h.respond(w, http.StatusOK, export)
}
