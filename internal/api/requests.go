package api

import (
	"net/http"

	"meddrop/m/internal/store"
)

type createRequestPayload struct {
	MedicineID int64 `json:"medicineId"`
	Quantity   int64 `json:"quantity"`
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var payload createRequestPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}

	req, err := store.CreateRequest(r.Context(), h.db, userIDFromContext(r), payload.MedicineID, payload.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"request": req})
}

func (h *Handler) receivedRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := store.ListReceivedRequests(r.Context(), h.db, userIDFromContext(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (h *Handler) madeRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := store.ListMadeRequests(r.Context(), h.db, userIDFromContext(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (h *Handler) respondToRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", "invalid request id")
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}

	req, err := store.RespondToRequest(r.Context(), h.db, userIDFromContext(r), id, payload.Status)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"request": req})
}

func (h *Handler) cancelRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", "invalid request id")
		return
	}

	req, err := store.CancelRequest(r.Context(), h.db, userIDFromContext(r), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"request": req})
}
