package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/tduong/medbill/internal/audit"
	"github.com/tduong/medbill/internal/storage"
)

// Mount attaches the full API surface to the router.
func Mount(r chi.Router, store storage.Store, auditor Auditor, registry *audit.Registry, endpoint audit.Endpoint) {
	health := NewHealth(store)
	r.Get("/", health.HandleRoot)
	r.Get("/health", health.HandleHealth)

	r.Mount("/api/patients", NewPatients(store).Routes())
	r.Mount("/api/providers", NewProviders(store).Routes())
	r.Mount("/api/services", NewServices(store).Routes())
	r.Mount("/api/appointments", NewAppointments(store).Routes())
	r.Mount("/api/claims", NewClaims(store).Routes())
	r.Mount("/api/payments", NewPayments(store).Routes())

	auditHandler := NewAudit(auditor, store, registry, endpoint)
	r.Mount("/api/audit", auditHandler.Routes())
	r.Post("/api/generate", auditHandler.HandleGenerate)

	legacy := NewLegacy()
	r.Post("/legacy/process-claim", legacy.HandleProcessClaim)
	r.Post("/legacy/check-eligibility", legacy.HandleCheckEligibility)
}
