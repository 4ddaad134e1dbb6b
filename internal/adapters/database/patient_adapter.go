package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/entities"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/domain/repositories"
	"github.com/zatekoja/Trialeligibilityscreening/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/Trialeligibilityscreening/backend/pkg/errors"
)

// patientColumns is the full select list. Every optional clinical field is
// nullable in the schema; NULL round-trips to a nil pointer so "not
// documented" survives storage.
var patientColumns = []interface{}{
	"id", "age_years", "sex", "diagnoses", "hba1c_percent", "bmi", "egfr",
	"uacr_mg_g", "smoking_status", "pregnant", "medications",
	"metformin_stable_months", "recent_mi_or_stroke_months", "type1_diabetes",
	"severe_renal_impairment", "dialysis", "kidney_transplant", "eating_disorder",
}

// isUniqueViolation reports whether err is a Postgres unique_violation,
// surfaced on duplicate primary keys during seeding and re-imports.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// PatientAdapter implements PatientRepository
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new patient record
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	query, args, err := a.db.Insert("patients").Rows(patientRecord(patient)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("patient already exists: " + patient.ID)
		}
		return apperrors.NewInternalError("failed to create patient", err)
	}

	return nil
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient, err := scanPatient(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}

	return patient, nil
}

// GetByIDs retrieves multiple patients by their IDs
func (a *PatientAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	if len(ids) == 0 {
		return []*entities.Patient{}, nil
	}

	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryPatients(ctx, query, args...)
}

// Update updates a patient record
func (a *PatientAdapter) Update(ctx context.Context, patient *entities.Patient) error {
	record := patientRecord(patient)
	delete(record, "id")

	query, args, err := a.db.Update("patients").
		Set(record).
		Where(goqu.Ex{"id": patient.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", patient.ID))
	}

	return nil
}

// Delete deletes a patient record
func (a *PatientAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("patients").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %s not found", id))
	}

	return nil
}

// List retrieves patients with filters
func (a *PatientAdapter) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	ds := a.db.Select(patientColumns...).From("patients")

	if filter.Sex != "" {
		ds = ds.Where(goqu.Ex{"sex": filter.Sex})
	}
	if filter.MinAge != nil {
		ds = ds.Where(goqu.I("age_years").Gte(*filter.MinAge))
	}
	if filter.MaxAge != nil {
		ds = ds.Where(goqu.I("age_years").Lte(*filter.MaxAge))
	}
	if filter.Diagnosis != "" {
		ds = ds.Where(goqu.L("? = ANY(diagnoses)", filter.Diagnosis))
	}

	ds = ds.Order(goqu.I("id").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryPatients(ctx, query, args...)
}

func (a *PatientAdapter) queryPatients(ctx context.Context, query string, args ...interface{}) ([]*entities.Patient, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query patients", err)
	}
	defer rows.Close()

	var patients []*entities.Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient", err)
		}
		patients = append(patients, patient)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating patients", err)
	}

	return patients, nil
}

func patientRecord(patient *entities.Patient) goqu.Record {
	return goqu.Record{
		"id":                         patient.ID,
		"age_years":                  nullableInt(patient.AgeYears),
		"sex":                        nullableSex(patient.Sex),
		"diagnoses":                  pq.Array(patient.Diagnoses),
		"hba1c_percent":              nullableFloat(patient.HbA1cPercent),
		"bmi":                        nullableFloat(patient.BMI),
		"egfr":                       nullableFloat(patient.EGFR),
		"uacr_mg_g":                  nullableFloat(patient.UACRMgG),
		"smoking_status":             nullableString(patient.SmokingStatus),
		"pregnant":                   nullableBool(patient.Pregnant),
		"medications":                pq.Array(patient.Medications),
		"metformin_stable_months":    nullableFloat(patient.MetforminStableMonths),
		"recent_mi_or_stroke_months": nullableFloat(patient.RecentMIOrStrokeMonths),
		"type1_diabetes":             nullableBool(patient.Type1Diabetes),
		"severe_renal_impairment":    nullableBool(patient.SevereRenalImpairment),
		"dialysis":                   nullableBool(patient.Dialysis),
		"kidney_transplant":          nullableBool(patient.KidneyTransplant),
		"eating_disorder":            nullableBool(patient.EatingDisorder),
	}
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*entities.Patient, error) {
	patient := &entities.Patient{}
	var (
		age                 sql.NullInt64
		sex, smoking        sql.NullString
		hba1c, bmi, egfr    sql.NullFloat64
		uacr, metformin, mi sql.NullFloat64
		pregnant, type1     sql.NullBool
		renal, dialysis     sql.NullBool
		transplant, eating  sql.NullBool
	)

	err := row.Scan(
		&patient.ID,
		&age,
		&sex,
		pq.Array(&patient.Diagnoses),
		&hba1c,
		&bmi,
		&egfr,
		&uacr,
		&smoking,
		&pregnant,
		pq.Array(&patient.Medications),
		&metformin,
		&mi,
		&type1,
		&renal,
		&dialysis,
		&transplant,
		&eating,
	)
	if err != nil {
		return nil, err
	}

	patient.AgeYears = intPtrFromNull(age)
	patient.Sex = sexPtrFromNull(sex)
	patient.HbA1cPercent = floatPtrFromNull(hba1c)
	patient.BMI = floatPtrFromNull(bmi)
	patient.EGFR = floatPtrFromNull(egfr)
	patient.UACRMgG = floatPtrFromNull(uacr)
	patient.SmokingStatus = stringPtrFromNull(smoking)
	patient.Pregnant = boolPtrFromNull(pregnant)
	patient.MetforminStableMonths = floatPtrFromNull(metformin)
	patient.RecentMIOrStrokeMonths = floatPtrFromNull(mi)
	patient.Type1Diabetes = boolPtrFromNull(type1)
	patient.SevereRenalImpairment = boolPtrFromNull(renal)
	patient.Dialysis = boolPtrFromNull(dialysis)
	patient.KidneyTransplant = boolPtrFromNull(transplant)
	patient.EatingDisorder = boolPtrFromNull(eating)

	return patient, nil
}

func nullableInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullableFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullableString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullableSex(p *entities.Sex) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*p), Valid: true}
}

func nullableBool(p *bool) sql.NullBool {
	if p == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *p, Valid: true}
}

func intPtrFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtrFromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func stringPtrFromNull(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}

func sexPtrFromNull(n sql.NullString) *entities.Sex {
	if !n.Valid {
		return nil
	}
	v := entities.Sex(n.String)
	return &v
}

func boolPtrFromNull(n sql.NullBool) *bool {
	if !n.Valid {
		return nil
	}
	v := n.Bool
	return &v
}
