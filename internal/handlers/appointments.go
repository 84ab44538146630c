package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tduong/medbill/internal/domain"
	"github.com/tduong/medbill/internal/storage"
)

type Appointments struct {
	store storage.AppointmentStore
}

func NewAppointments(store storage.AppointmentStore) *Appointments {
	return &Appointments{store: store}
}

func (h *Appointments) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{appointmentID}", h.get)
	r.Put("/{appointmentID}", h.update)
	r.Delete("/{appointmentID}", h.delete)
	return r
}

// queryID parses an optional integer query parameter; absent means 0.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

func (h *Appointments) list(w http.ResponseWriter, r *http.Request) {
	var f storage.AppointmentFilter
	var err error
	if f.PatientID, err = queryID(r, "patient_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.ProviderID, err = queryID(r, "provider_id"); err != nil {
		writeError(w, r, err)
		return
	}
	appointments, err := h.store.ListAppointments(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appointments)
}

func (h *Appointments) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "appointmentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.store.GetAppointment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Appointments) create(w http.ResponseWriter, r *http.Request) {
	var a domain.Appointment
	if err := decodeBody(r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateAppointment(&a); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.CreateAppointment(r.Context(), &a); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Appointments) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "appointmentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var a domain.Appointment
	if err := decodeBody(r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	a.ID = id
	if err := validateAppointment(&a); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpdateAppointment(r.Context(), &a); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Appointments) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "appointmentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteAppointment(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validateAppointment(a *domain.Appointment) error {
	if a.PatientID <= 0 || a.ProviderID <= 0 {
		return domain.ErrValidation("patient_id and provider_id are required")
	}
	if a.Date == "" {
		return domain.ErrValidation("appointment_date is required")
	}
	return nil
}
