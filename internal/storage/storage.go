// Package storage defines the persistence interfaces consumed by the HTTP
// handlers and the audit dispatcher.
package storage

import (
	"context"

	"github.com/tduong/medbill/internal/domain"
)

// ClaimFilter narrows claim listings. Zero values mean no filtering.
type ClaimFilter struct {
	PatientID  int64
	ProviderID int64
	Status     string
}

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	PatientID  int64
	ProviderID int64
}

// ClaimUpdate carries a partial claim update; nil fields are left
// untouched.
type ClaimUpdate struct {
	Status        *string
	InsurancePaid *float64
	PatientPaid   *float64
}

// PaymentUpdate carries a partial payment update; nil fields are left
// untouched.
type PaymentUpdate struct {
	Date            *string
	Amount          *float64
	Source          *string
	ReferenceNumber *string
}

// PatientStore manages patient records.
type PatientStore interface {
	ListPatients(ctx context.Context) ([]domain.Patient, error)
	GetPatient(ctx context.Context, id int64) (*domain.Patient, error)
	CreatePatient(ctx context.Context, p *domain.Patient) error
	UpdatePatient(ctx context.Context, p *domain.Patient) error
	DeletePatient(ctx context.Context, id int64) error
}

// ProviderStore manages provider records.
type ProviderStore interface {
	ListProviders(ctx context.Context) ([]domain.Provider, error)
	GetProvider(ctx context.Context, id int64) (*domain.Provider, error)
	CreateProvider(ctx context.Context, p *domain.Provider) error
	UpdateProvider(ctx context.Context, p *domain.Provider) error
	DeleteProvider(ctx context.Context, id int64) error
}

// ServiceStore manages the CPT service catalog.
type ServiceStore interface {
	ListServices(ctx context.Context) ([]domain.Service, error)
	GetService(ctx context.Context, id int64) (*domain.Service, error)
	CreateService(ctx context.Context, s *domain.Service) error
	UpdateService(ctx context.Context, s *domain.Service) error
	DeleteService(ctx context.Context, id int64) error
}

// AppointmentStore manages appointments.
type AppointmentStore interface {
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]domain.Appointment, error)
	GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error)
	CreateAppointment(ctx context.Context, a *domain.Appointment) error
	UpdateAppointment(ctx context.Context, a *domain.Appointment) error
	DeleteAppointment(ctx context.Context, id int64) error
}

// ClaimStore manages claims and their line items. SetClaimFraudScore
// persists an audit's fraud score onto the claim; it is called by the
// audit HTTP handler, never by the dispatcher itself.
type ClaimStore interface {
	ListClaims(ctx context.Context, f ClaimFilter) ([]domain.Claim, error)
	GetClaim(ctx context.Context, id int64) (*domain.Claim, error)
	ListClaimItems(ctx context.Context, claimID int64) ([]domain.ClaimItem, error)
	CreateClaim(ctx context.Context, c *domain.Claim, items []domain.ClaimItem) error
	UpdateClaim(ctx context.Context, id int64, u ClaimUpdate) (*domain.Claim, error)
	DeleteClaim(ctx context.Context, id int64) error
	SetClaimFraudScore(ctx context.Context, id int64, score float64) error
}

// PaymentStore manages payments. Creating, re-amounting, or deleting a
// payment adjusts the owning claim's paid totals.
type PaymentStore interface {
	ListPayments(ctx context.Context, claimID int64) ([]domain.Payment, error)
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	CreatePayment(ctx context.Context, p *domain.Payment) error
	UpdatePayment(ctx context.Context, id int64, u PaymentUpdate) (*domain.Payment, error)
	DeletePayment(ctx context.Context, id int64) error
}

// BundleStore assembles the read-only claim bundle for the audit core.
type BundleStore interface {
	ClaimBundle(ctx context.Context, claimID int64) (*domain.ClaimBundle, error)
}

// Store is the full persistence surface.
type Store interface {
	PatientStore
	ProviderStore
	ServiceStore
	AppointmentStore
	ClaimStore
	PaymentStore
	BundleStore

	Ping(ctx context.Context) error
	Close() error
}
