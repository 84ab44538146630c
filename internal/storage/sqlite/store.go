// Package sqlite implements storage.Store on SQLite via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tduong/medbill/internal/domain"
	"github.com/tduong/medbill/internal/storage"
)

// Store is the SQLite implementation of storage.Store.
type Store struct {
	db *sqlx.DB

	// memConn keeps one connection open for the lifetime of an in-memory
	// store. A shared-cache memory database is destroyed when its last
	// connection closes, so without the pin the schema and data would
	// vanish whenever the pool drops its idle connections.
	memConn *sql.Conn
}

var _ storage.Store = (*Store)(nil)

var memStoreCounter atomic.Int64

// New opens (or creates) the database at path and initializes the schema.
// Use ":memory:" or a file: URI with mode=memory for ephemeral stores.
func New(path string) (*Store, error) {
	// A bare ":memory:" DSN gives every pool connection its own empty
	// database. Rewrite it to a named shared-cache URI so all connections
	// see the same one.
	memory := strings.Contains(path, "mode=memory")
	if path == ":memory:" {
		path = fmt.Sprintf("file:medbillmem%d?mode=memory&cache=shared", memStoreCounter.Add(1))
		memory = true
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var memConn *sql.Conn
	if memory {
		memConn, err = db.Conn(context.Background())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to pin memory connection: %w", err)
		}
	}

	s := &Store{db: db, memConn: memConn}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON;"); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := s.initSchema(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS patients (
			patient_id INTEGER PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			date_of_birth TEXT NOT NULL,
			address TEXT DEFAULT '',
			phone_number TEXT DEFAULT '',
			insurance_provider TEXT DEFAULT '',
			insurance_policy_number TEXT DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS providers (
			provider_id INTEGER PRIMARY KEY,
			provider_name TEXT NOT NULL,
			npi_number TEXT UNIQUE NOT NULL,
			specialty TEXT DEFAULT '',
			address TEXT DEFAULT '',
			phone_number TEXT DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS services (
			service_id INTEGER PRIMARY KEY,
			cpt_code TEXT UNIQUE NOT NULL,
			description TEXT NOT NULL,
			standard_charge REAL NOT NULL CHECK (standard_charge >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			appointment_id INTEGER PRIMARY KEY,
			patient_id INTEGER NOT NULL,
			provider_id INTEGER NOT NULL,
			appointment_date TEXT NOT NULL,
			reason_for_visit TEXT DEFAULT '',
			FOREIGN KEY (patient_id) REFERENCES patients (patient_id),
			FOREIGN KEY (provider_id) REFERENCES providers (provider_id)
		)`,
		`CREATE TABLE IF NOT EXISTS claims (
			claim_id INTEGER PRIMARY KEY,
			patient_id INTEGER NOT NULL,
			provider_id INTEGER NOT NULL,
			claim_date TEXT NOT NULL,
			total_charge REAL NOT NULL CHECK (total_charge >= 0),
			insurance_paid REAL DEFAULT 0 CHECK (insurance_paid >= 0),
			patient_paid REAL DEFAULT 0 CHECK (patient_paid >= 0),
			status TEXT NOT NULL CHECK (status IN ('Submitted', 'Paid', 'Denied', 'Pending', 'Partial')),
			fraud_score REAL,
			FOREIGN KEY (patient_id) REFERENCES patients (patient_id),
			FOREIGN KEY (provider_id) REFERENCES providers (provider_id)
		)`,
		`CREATE TABLE IF NOT EXISTS claim_items (
			claim_item_id INTEGER PRIMARY KEY,
			claim_id INTEGER NOT NULL,
			service_id INTEGER NOT NULL,
			charge_amount REAL NOT NULL CHECK (charge_amount >= 0),
			FOREIGN KEY (claim_id) REFERENCES claims (claim_id) ON DELETE CASCADE,
			FOREIGN KEY (service_id) REFERENCES services (service_id)
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			payment_id INTEGER PRIMARY KEY,
			claim_id INTEGER NOT NULL,
			payment_date TEXT NOT NULL,
			amount REAL NOT NULL CHECK (amount > 0),
			payment_source TEXT NOT NULL CHECK (payment_source IN ('Insurance', 'Patient')),
			reference_number TEXT DEFAULT '',
			FOREIGN KEY (claim_id) REFERENCES claims (claim_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_patient ON appointments(patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_provider ON appointments(provider_id)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_patient ON claims(patient_id)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_provider ON claims(provider_id)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status)`,
		`CREATE INDEX IF NOT EXISTS idx_claim_items_claim ON claim_items(claim_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_claim ON payments(claim_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w", err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database. For in-memory stores this also releases the
// pinned connection, discarding the data.
func (s *Store) Close() error {
	if s.memConn != nil {
		s.memConn.Close()
	}
	return s.db.Close()
}

// Patients

func (s *Store) ListPatients(ctx context.Context) ([]domain.Patient, error) {
	patients := []domain.Patient{}
	err := s.db.SelectContext(ctx, &patients,
		`SELECT * FROM patients ORDER BY patient_id`)
	return patients, err
}

func (s *Store) GetPatient(ctx context.Context, id int64) (*domain.Patient, error) {
	var p domain.Patient
	err := s.db.GetContext(ctx, &p,
		`SELECT * FROM patients WHERE patient_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("patient", "patient %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePatient(ctx context.Context, p *domain.Patient) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO patients (first_name, last_name, date_of_birth, address, phone_number, insurance_provider, insurance_policy_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.FirstName, p.LastName, p.DateOfBirth, p.Address, p.PhoneNumber,
		p.InsuranceProvider, p.InsurancePolicyNumber)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdatePatient(ctx context.Context, p *domain.Patient) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE patients SET first_name = ?, last_name = ?, date_of_birth = ?, address = ?,
		 phone_number = ?, insurance_provider = ?, insurance_policy_number = ?
		 WHERE patient_id = ?`,
		p.FirstName, p.LastName, p.DateOfBirth, p.Address, p.PhoneNumber,
		p.InsuranceProvider, p.InsurancePolicyNumber, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "patient", p.ID)
}

func (s *Store) DeletePatient(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patients WHERE patient_id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "patient", id)
}

// Providers

func (s *Store) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	providers := []domain.Provider{}
	err := s.db.SelectContext(ctx, &providers,
		`SELECT * FROM providers ORDER BY provider_id`)
	return providers, err
}

func (s *Store) GetProvider(ctx context.Context, id int64) (*domain.Provider, error) {
	var p domain.Provider
	err := s.db.GetContext(ctx, &p,
		`SELECT * FROM providers WHERE provider_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("provider", "provider %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProvider(ctx context.Context, p *domain.Provider) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO providers (provider_name, npi_number, specialty, address, phone_number)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.NPI, p.Specialty, p.Address, p.PhoneNumber)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateProvider(ctx context.Context, p *domain.Provider) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE providers SET provider_name = ?, npi_number = ?, specialty = ?, address = ?, phone_number = ?
		 WHERE provider_id = ?`,
		p.Name, p.NPI, p.Specialty, p.Address, p.PhoneNumber, p.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "provider", p.ID)
}

func (s *Store) DeleteProvider(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM providers WHERE provider_id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "provider", id)
}

// Services

func (s *Store) ListServices(ctx context.Context) ([]domain.Service, error) {
	services := []domain.Service{}
	err := s.db.SelectContext(ctx, &services,
		`SELECT * FROM services ORDER BY cpt_code`)
	return services, err
}

func (s *Store) GetService(ctx context.Context, id int64) (*domain.Service, error) {
	var svc domain.Service
	err := s.db.GetContext(ctx, &svc,
		`SELECT * FROM services WHERE service_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("service", "service %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (s *Store) CreateService(ctx context.Context, svc *domain.Service) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO services (cpt_code, description, standard_charge) VALUES (?, ?, ?)`,
		svc.CPTCode, svc.Description, svc.StandardCharge)
	if err != nil {
		return err
	}
	svc.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateService(ctx context.Context, svc *domain.Service) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE services SET cpt_code = ?, description = ?, standard_charge = ? WHERE service_id = ?`,
		svc.CPTCode, svc.Description, svc.StandardCharge, svc.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "service", svc.ID)
}

func (s *Store) DeleteService(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE service_id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "service", id)
}

// Appointments

func (s *Store) ListAppointments(ctx context.Context, f storage.AppointmentFilter) ([]domain.Appointment, error) {
	query := `SELECT * FROM appointments`
	var conditions []string
	var args []any
	if f.PatientID != 0 {
		conditions = append(conditions, "patient_id = ?")
		args = append(args, f.PatientID)
	}
	if f.ProviderID != 0 {
		conditions = append(conditions, "provider_id = ?")
		args = append(args, f.ProviderID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY appointment_date"

	appointments := []domain.Appointment{}
	err := s.db.SelectContext(ctx, &appointments, query, args...)
	return appointments, err
}

func (s *Store) GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	var a domain.Appointment
	err := s.db.GetContext(ctx, &a,
		`SELECT * FROM appointments WHERE appointment_id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("appointment", "appointment %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateAppointment(ctx context.Context, a *domain.Appointment) error {
	if _, err := s.GetPatient(ctx, a.PatientID); err != nil {
		return err
	}
	if _, err := s.GetProvider(ctx, a.ProviderID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO appointments (patient_id, provider_id, appointment_date, reason_for_visit)
		 VALUES (?, ?, ?, ?)`,
		a.PatientID, a.ProviderID, a.Date, a.ReasonForVisit)
	if err != nil {
		return err
	}
	a.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UpdateAppointment(ctx context.Context, a *domain.Appointment) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET patient_id = ?, provider_id = ?, appointment_date = ?, reason_for_visit = ?
		 WHERE appointment_id = ?`,
		a.PatientID, a.ProviderID, a.Date, a.ReasonForVisit, a.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "appointment", a.ID)
}

func (s *Store) DeleteAppointment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM appointments WHERE appointment_id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, "appointment", id)
}

// requireRow converts a zero-rows-affected result into a not_found error.
func requireRow(res sql.Result, resource string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound(resource, "%s %d not found", resource, id)
	}
	return nil
}
