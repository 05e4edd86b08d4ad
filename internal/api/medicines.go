package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"meddrop/m/internal/store"
)

type locationPayload struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type medicineRequest struct {
	Name       string           `json:"name"`
	ExpiryDate string           `json:"expiryDate"`
	Quantity   int64            `json:"quantity"`
	Notes      string           `json:"notes"`
	Location   *locationPayload `json:"location"`
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	var req medicineRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}

	errs := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "Name is required"
	}
	if req.ExpiryDate == "" {
		errs["expiryDate"] = "Expiry date is required"
	}
	if req.Quantity <= 0 {
		errs["quantity"] = "Quantity must be greater than 0"
	}
	if req.Location == nil || req.Location.Lat == nil || req.Location.Lng == nil {
		errs["location"] = "Pickup location is required"
	}
	if len(errs) > 0 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"code": "validation_failed", "errors": errs})
		return
	}

	userID := userIDFromContext(r)
	med, err := store.CreateMedicine(r.Context(), h.db, userID,
		req.Name, req.ExpiryDate, req.Quantity, req.Notes, *req.Location.Lat, *req.Location.Lng)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"medicine": med})
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	meds, err := store.ListMedicinesByOwner(r.Context(), h.db, userIDFromContext(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"medicines": meds})
}

func (h *Handler) listAvailableMedicines(w http.ResponseWriter, r *http.Request) {
	meds, err := store.ListAvailableMedicines(r.Context(), h.db, userIDFromContext(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"medicines": meds})
}

type medicineUpdateRequest struct {
	Name       *string          `json:"name"`
	ExpiryDate *string          `json:"expiryDate"`
	Quantity   *int64           `json:"quantity"`
	Notes      *string          `json:"notes"`
	Location   *locationPayload `json:"location"`
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", "invalid medicine id")
		return
	}
	var req medicineUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}

	upd := store.MedicineUpdate{
		Name:       req.Name,
		ExpiryDate: req.ExpiryDate,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
	}
	if req.Location != nil {
		upd.Lat = req.Location.Lat
		upd.Lng = req.Location.Lng
	}

	med, err := store.UpdateMedicine(r.Context(), h.db, id, userIDFromContext(r), upd)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"medicine": med})
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", "invalid medicine id")
		return
	}
	if err := store.DeleteMedicine(r.Context(), h.db, id, userIDFromContext(r)); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "medicine deleted"})
}

func (h *Handler) restockMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", "invalid medicine id")
		return
	}
	var payload struct {
		Quantity int64 `json:"quantity"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
		return
	}
	med, err := store.RestockMedicine(r.Context(), h.db, id, userIDFromContext(r), payload.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"medicine": med})
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
