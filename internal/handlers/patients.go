package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tduong/medbill/internal/domain"
	"github.com/tduong/medbill/internal/storage"
)

type Patients struct {
	store storage.PatientStore
}

func NewPatients(store storage.PatientStore) *Patients {
	return &Patients{store: store}
}

func (h *Patients) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{patientID}", h.get)
	r.Put("/{patientID}", h.update)
	r.Delete("/{patientID}", h.delete)
	return r
}

func (h *Patients) list(w http.ResponseWriter, r *http.Request) {
	patients, err := h.store.ListPatients(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

func (h *Patients) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	patient, err := h.store.GetPatient(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (h *Patients) create(w http.ResponseWriter, r *http.Request) {
	var p domain.Patient
	if err := decodeBody(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validatePatient(&p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.CreatePatient(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Patients) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var p domain.Patient
	if err := decodeBody(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	p.ID = id
	if err := validatePatient(&p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdatePatient(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Patients) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "patientID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeletePatient(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validatePatient(p *domain.Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return domain.ErrValidation("first_name and last_name are required")
	}
	if p.DateOfBirth == "" {
		return domain.ErrValidation("date_of_birth is required")
	}
	return nil
}
