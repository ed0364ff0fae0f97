package repository

import (
	"context"

	"github.com/cloudrad-dev/schedule-manager/backend/internal/domain"
)

func (r *Repository) GetPatientByID(id int64) (*domain.Patient, error) {
	query := `
		SELECT full_name, medical_rec_no, created_at
		FROM patients WHERE id = $1
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	patient := &domain.Patient{
		ID: id,
	}

	dst := []any{&patient.FullName, &patient.MedicalRecNo, &patient.CreatedAt}
	if err := r.q.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return patient, nil
}

func (r *Repository) ListPatients(search string) ([]*domain.Patient, error) {
	query := `
		SELECT id, full_name, medical_rec_no, created_at
		FROM patients
		WHERE ($1 = '' OR full_name ILIKE '%' || $1 || '%' OR medical_rec_no ILIKE '%' || $1 || '%')
		ORDER BY full_name
	`

	ctx, cancel := r.queryCtx(context.Background())
	defer cancel()

	rows, err := r.q.QueryContext(ctx, query, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := make([]*domain.Patient, 0)
	for rows.Next() {
		patient := &domain.Patient{}
		dst := []any{&patient.ID, &patient.FullName, &patient.MedicalRecNo, &patient.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return patients, nil
}
