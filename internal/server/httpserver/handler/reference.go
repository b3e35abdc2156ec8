// Package handler provides HTTP request handlers for refstate.
package handler

import (
	"net/http"
	"time"

	refstatev1 "github.com/yndnr/refstate-go/api/v1"
	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/internal/core/service"
	"github.com/yndnr/refstate-go/pkg/refid"
)

// handleCreateReference handles POST {base}.
func (h *Handler) handleCreateReference(w http.ResponseWriter, r *http.Request) {
	var req refstatev1.CreateReferenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	// Build service request
	svcReq := &service.CreateReferenceRequest{
		DocumentIDs: req.DocumentIDs,
		Name:        req.Name,
		Salt:        req.Salt,
		KeyLength:   req.KeyLength,
	}
	if req.ExpireIn > 0 {
		svcReq.ExpireIn = time.Duration(req.ExpireIn) * time.Millisecond
	}
	if req.IDFormat != "" {
		format, err := refid.ParseFormat(req.IDFormat)
		if err != nil {
			h.handleServiceError(w, r, domain.ErrInvalidArgument.WithDetails(err.Error()))
			return
		}
		svcReq.IDFormat = format
	}

	// Call service
	resp, err := h.refs.CreateReference(r.Context(), svcReq)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, refstatev1.CreateReferenceResponse{
		ReferenceID: resp.ReferenceID,
		ExpiresAt:   resp.ExpiresAt,
	})
}

// handleGetReference handles GET {base}/{id}.
func (h *Handler) handleGetReference(w http.ResponseWriter, r *http.Request) {
	rec, err := h.refs.GetReference(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, refstatev1.ReferenceResponse{
		DocumentIDs: domain.CloneIDs(rec.DocumentIDs),
		Name:        rec.Name,
		CreatedAt:   rec.CreatedAt,
		ExpiresAt:   rec.ExpiresAt,
	})
}

// handleDeleteReference handles DELETE {base}/{id}.
func (h *Handler) handleDeleteReference(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.refs.DeleteReference(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, refstatev1.DeleteReferenceResponse{ReferenceID: id})
}
