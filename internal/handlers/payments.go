package handlers

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/tduong/medbill/internal/domain"
	"github.com/tduong/medbill/internal/storage"
)

type Payments struct {
	store storage.PaymentStore
}

func NewPayments(store storage.PaymentStore) *Payments {
	return &Payments{store: store}
}

func (h *Payments) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{paymentID}", h.get)
	r.Put("/{paymentID}", h.update)
	r.Delete("/{paymentID}", h.delete)
	return r
}

func (h *Payments) list(w http.ResponseWriter, r *http.Request) {
	claimID, err := queryID(r, "claim_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := h.store.ListPayments(r.Context(), claimID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *Payments) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "paymentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.store.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Payments) create(w http.ResponseWriter, r *http.Request) {
	var p domain.Payment
	if err := decodeBody(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if p.ClaimID <= 0 {
		writeError(w, r, domain.ErrValidation("claim_id is required"))
		return
	}
	if p.Date == "" {
		writeError(w, r, domain.ErrValidation("payment_date is required"))
		return
	}
	if p.Amount <= 0 {
		writeError(w, r, domain.ErrValidation("amount must be positive"))
		return
	}
	if !slices.Contains(domain.PaymentSources, p.Source) {
		writeError(w, r, domain.ErrValidation("payment_source must be one of %v", domain.PaymentSources))
		return
	}
	if err := h.store.CreatePayment(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type paymentUpdateRequest struct {
	Date            *string  `json:"payment_date"`
	Amount          *float64 `json:"amount"`
	Source          *string  `json:"payment_source"`
	ReferenceNumber *string  `json:"reference_number"`
}

func (h *Payments) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "paymentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req paymentUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Amount != nil && *req.Amount <= 0 {
		writeError(w, r, domain.ErrValidation("amount must be positive"))
		return
	}
	if req.Source != nil && !slices.Contains(domain.PaymentSources, *req.Source) {
		writeError(w, r, domain.ErrValidation("payment_source must be one of %v", domain.PaymentSources))
		return
	}
	p, err := h.store.UpdatePayment(r.Context(), id, storage.PaymentUpdate{
		Date:            req.Date,
		Amount:          req.Amount,
		Source:          req.Source,
		ReferenceNumber: req.ReferenceNumber,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Payments) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "paymentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeletePayment(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
