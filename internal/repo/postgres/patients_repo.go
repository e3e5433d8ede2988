package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/oftalmo/records/internal/domain/patient"
	"github.com/oftalmo/records/internal/observability"
)

type PatientsRepo struct {
	db   DBTX
	prom *observability.Prom
}

func NewPatientsRepo(db DBTX, prom *observability.Prom) *PatientsRepo {
	return &PatientsRepo{db: db, prom: prom}
}

const patientColumns = `id, rut, first_names, last_names, birth_date, age, phone, email, created_at, updated_at`

func scanPatient(row pgx.Row, extra ...any) (patient.Patient, error) {
	var p patient.Patient
	dest := append([]any{
		&p.ID, &p.RUT, &p.FirstNames, &p.LastNames, &p.BirthDate, &p.Age,
		&p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		return patient.Patient{}, err
	}
	return p, nil
}

func (r *PatientsRepo) Create(ctx context.Context, p patient.Patient) (patient.Patient, error) {
	err := r.prom.ObserveDB("patients.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO patients (`+patientColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			p.ID, p.RUT, p.FirstNames, p.LastNames, p.BirthDate, p.Age, p.Phone, p.Email, p.CreatedAt, p.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return patient.Patient{}, patient.ErrRUTTaken
		}
		return patient.Patient{}, err
	}

	return p, nil
}

func (r *PatientsRepo) GetByID(ctx context.Context, id string) (patient.Patient, error) {
	var p patient.Patient

	err := r.prom.ObserveDB("patients.get_by_id", func() error {
		var err error
		p, err = scanPatient(r.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return patient.Patient{}, patient.ErrNotFound
		}
		return patient.Patient{}, err
	}
	return p, nil
}

// escapeLike makes user input literal inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Search matches query case-insensitively against RUT and names, newest first.
func (r *PatientsRepo) Search(ctx context.Context, f patient.SearchFilter) ([]patient.Patient, int, error) {
	query := `SELECT ` + patientColumns + `, COUNT(*) OVER() AS total FROM patients`
	countQuery := `SELECT COUNT(*) FROM patients`

	var where string
	var args []any

	if q := strings.TrimSpace(f.Query); q != "" {
		where = ` WHERE rut ILIKE $1 OR first_names ILIKE $1 OR last_names ILIKE $1`
		args = append(args, "%"+escapeLike(q)+"%")
	}

	query += where + ` ORDER BY created_at DESC, id DESC`
	if len(args) == 0 {
		query += ` LIMIT $1 OFFSET $2`
	} else {
		query += ` LIMIT $2 OFFSET $3`
	}

	output := make([]patient.Patient, 0, f.Limit)
	total := 0

	err := r.prom.ObserveDB("patients.search", func() error {
		rows, err := r.db.Query(ctx, query, append(args, f.Limit, f.Offset())...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			p, err := scanPatient(rows, &t)
			if err != nil {
				return err
			}
			total = t
			output = append(output, p)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	// past the last page the window count is unavailable
	if len(output) == 0 && f.Offset() > 0 {
		err = r.prom.ObserveDB("patients.count", func() error {
			return r.db.QueryRow(ctx, countQuery+where, args...).Scan(&total)
		})
		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *PatientsRepo) Update(ctx context.Context, p patient.Patient) (patient.Patient, error) {
	var out patient.Patient

	err := r.prom.ObserveDB("patients.update", func() error {
		var err error
		out, err = scanPatient(r.db.QueryRow(ctx,
			`UPDATE patients
			 SET rut = $2, first_names = $3, last_names = $4, birth_date = $5, age = $6,
			     phone = $7, email = $8, updated_at = $9
			 WHERE id = $1
			 RETURNING `+patientColumns,
			p.ID, p.RUT, p.FirstNames, p.LastNames, p.BirthDate, p.Age, p.Phone, p.Email, p.UpdatedAt,
		))
		return err
	})

	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, pgx.ErrNoRows):
		return patient.Patient{}, patient.ErrNotFound
	case IsUniqueViolation(err):
		return patient.Patient{}, patient.ErrRUTTaken
	default:
		return patient.Patient{}, err
	}
}

// Delete removes the patient together with its clinical records and their
// history and exam rows.
func (r *PatientsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.prom.ObserveDB("patients.delete", func() error {
		tag, err := r.db.Exec(ctx,
			`WITH r AS (
				DELETE FROM clinical_records WHERE patient_id = $1
				RETURNING medical_history_id, ophthalmic_exam_id
			), h AS (
				DELETE FROM medical_histories WHERE id IN (SELECT medical_history_id FROM r)
			), e AS (
				DELETE FROM ophthalmic_exams WHERE id IN (SELECT ophthalmic_exam_id FROM r)
			)
			DELETE FROM patients WHERE id = $1`,
			id,
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return patient.ErrNotFound
	}
	return nil
}
