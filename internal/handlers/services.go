package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tduong/medbill/internal/domain"
	"github.com/tduong/medbill/internal/storage"
)

type Services struct {
	store storage.ServiceStore
}

func NewServices(store storage.ServiceStore) *Services {
	return &Services{store: store}
}

func (h *Services) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{serviceID}", h.get)
	r.Put("/{serviceID}", h.update)
	r.Delete("/{serviceID}", h.delete)
	return r
}

func (h *Services) list(w http.ResponseWriter, r *http.Request) {
	services, err := h.store.ListServices(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *Services) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "serviceID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	svc, err := h.store.GetService(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *Services) create(w http.ResponseWriter, r *http.Request) {
	var svc domain.Service
	if err := decodeBody(r, &svc); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateService(&svc); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.CreateService(r.Context(), &svc); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (h *Services) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "serviceID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var svc domain.Service
	if err := decodeBody(r, &svc); err != nil {
		writeError(w, r, err)
		return
	}
	svc.ID = id
	if err := validateService(&svc); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdateService(r.Context(), &svc); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *Services) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "serviceID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteService(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateService(s *domain.Service) error {
	if s.CPTCode == "" {
		return domain.ErrValidation("cpt_code is required")
	}
	if s.StandardCharge < 0 {
		return domain.ErrValidation("standard_charge must not be negative")
	}
	return nil
}
