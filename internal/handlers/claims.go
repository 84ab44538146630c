package handlers

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/tduong/medbill/internal/domain"
	"github.com/tduong/medbill/internal/storage"
)

type Claims struct {
	store storage.ClaimStore
}

func NewClaims(store storage.ClaimStore) *Claims {
	return &Claims{store: store}
}

func (h *Claims) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{claimID}", h.get)
	r.Get("/{claimID}/items", h.items)
	r.Put("/{claimID}", h.update)
	r.Delete("/{claimID}", h.delete)
	return r
}

func (h *Claims) list(w http.ResponseWriter, r *http.Request) {
	var f storage.ClaimFilter
	var err error
	if f.PatientID, err = queryID(r, "patient_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.ProviderID, err = queryID(r, "provider_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Status = r.URL.Query().Get("status"); f.Status != "" && !slices.Contains(domain.ClaimStatuses, f.Status) {
		writeError(w, r, domain.ErrValidation("status must be one of %v", domain.ClaimStatuses))
		return
	}
	claims, err := h.store.ListClaims(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

func (h *Claims) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "claimID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	claim, err := h.store.GetClaim(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (h *Claims) items(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "claimID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.store.GetClaim(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.store.ListClaimItems(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type claimCreateRequest struct {
	PatientID   int64              `json:"patient_id"`
	ProviderID  int64              `json:"provider_id"`
	Date        string             `json:"claim_date"`
	TotalCharge float64            `json:"total_charge"`
	Status      string             `json:"status"`
	Items       []domain.ClaimItem `json:"items"`
}

func (h *Claims) create(w http.ResponseWriter, r *http.Request) {
	var req claimCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.PatientID <= 0 || req.ProviderID <= 0 {
		writeError(w, r, domain.ErrValidation("patient_id and provider_id are required"))
		return
	}
	if req.Date == "" {
		writeError(w, r, domain.ErrValidation("claim_date is required"))
		return
	}
	if len(req.Items) == 0 {
		writeError(w, r, domain.ErrValidation("a claim needs at least one line item"))
		return
	}
	if req.Status == "" {
		req.Status = "Submitted"
	}
	if !slices.Contains(domain.ClaimStatuses, req.Status) {
		writeError(w, r, domain.ErrValidation("status must be one of %v", domain.ClaimStatuses))
		return
	}
	// Derive the total from line items when the caller leaves it out.
	if req.TotalCharge == 0 {
		for _, item := range req.Items {
			req.TotalCharge += item.ChargeAmount
		}
	}

	claim := domain.Claim{
		PatientID:   req.PatientID,
		ProviderID:  req.ProviderID,
		Date:        req.Date,
		TotalCharge: req.TotalCharge,
		Status:      req.Status,
	}
	if err := h.store.CreateClaim(r.Context(), &claim, req.Items); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, claim)
}

type claimUpdateRequest struct {
	Status        *string  `json:"status"`
	InsurancePaid *float64 `json:"insurance_paid"`
	PatientPaid   *float64 `json:"patient_paid"`
}

func (h *Claims) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "claimID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req claimUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Status != nil && !slices.Contains(domain.ClaimStatuses, *req.Status) {
		writeError(w, r, domain.ErrValidation("status must be one of %v", domain.ClaimStatuses))
		return
	}
	claim, err := h.store.UpdateClaim(r.Context(), id, storage.ClaimUpdate{
		Status:        req.Status,
		InsurancePaid: req.InsurancePaid,
		PatientPaid:   req.PatientPaid,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (h *Claims) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "claimID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteClaim(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
