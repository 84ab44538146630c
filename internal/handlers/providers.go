package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tduong/medbill/internal/domain"
	"github.com/tduong/medbill/internal/storage"
)

type Providers struct {
	store storage.ProviderStore
}

func NewProviders(store storage.ProviderStore) *Providers {
	return &Providers{store: store}
}

func (h *Providers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{providerID}", h.get)
	r.Put("/{providerID}", h.update)
	r.Delete("/{providerID}", h.delete)
	return r
}

func (h *Providers) list(w http.ResponseWriter, r *http.Request) {
	providers, err := h.store.ListProviders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

func (h *Providers) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "providerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	provider, err := h.store.GetProvider(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, provider)
}

func (h *Providers) create(w http.ResponseWriter, r *http.Request) {
	var p domain.Provider
	if err := decodeBody(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if p.Name == "" || p.NPI == "" {
		writeError(w, r, domain.ErrValidation("provider_name and npi_number are required"))
		return
	}
	if err := h.store.CreateProvider(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Providers) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "providerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p domain.Provider
	if err := decodeBody(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	p.ID = id
	if p.Name == "" || p.NPI == "" {
		writeError(w, r, domain.ErrValidation("provider_name and npi_number are required"))
		return
	}
	if err := h.store.UpdateProvider(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Providers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "providerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteProvider(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
