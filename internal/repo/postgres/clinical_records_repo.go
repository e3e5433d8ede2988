package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oftalmo/records/internal/domain/clinical"
	"github.com/oftalmo/records/internal/domain/user"
	"github.com/oftalmo/records/internal/observability"
)

type ClinicalRecordsRepo struct {
	db   DBTX
	prom *observability.Prom
	now  func() time.Time
}

func NewClinicalRecordsRepo(db DBTX, prom *observability.Prom) *ClinicalRecordsRepo {
	return &ClinicalRecordsRepo{db: db, prom: prom, now: time.Now}
}

const recordSelect = `SELECT
	cr.id, cr.patient_id, cr.created_at, cr.updated_at,
	mh.id, mh.pregnancy, mh.lactation, mh.hypertension, mh.diabetes, mh.other, mh.created_at, mh.updated_at,
	oe.id, oe.od_sphere, oe.od_cylinder, oe.od_axis, oe.od_pd,
	oe.oi_sphere, oe.oi_cylinder, oe.oi_axis, oe.oi_pd, oe.comments, oe.created_at, oe.updated_at,
	u.id, u.username, u.name, u.role
FROM clinical_records cr
JOIN medical_histories mh ON mh.id = cr.medical_history_id
JOIN ophthalmic_exams oe ON oe.id = cr.ophthalmic_exam_id
JOIN users u ON u.id = cr.created_by`

func scanRecord(row pgx.Row) (clinical.ClinicalRecord, error) {
	var rec clinical.ClinicalRecord
	var role string
	mh := &rec.MedicalHistory
	oe := &rec.OphthalmicExam

	err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.CreatedAt, &rec.UpdatedAt,
		&mh.ID, &mh.Pregnancy, &mh.Lactation, &mh.Hypertension, &mh.Diabetes, &mh.Other, &mh.CreatedAt, &mh.UpdatedAt,
		&oe.ID, &oe.ODSphere, &oe.ODCylinder, &oe.ODAxis, &oe.ODPupillaryDistance,
		&oe.OISphere, &oe.OICylinder, &oe.OIAxis, &oe.OIPupillaryDistance, &oe.Comments, &oe.CreatedAt, &oe.UpdatedAt,
		&rec.CreatedBy.ID, &rec.CreatedBy.Username, &rec.CreatedBy.Name, &role,
	)
	if err != nil {
		return clinical.ClinicalRecord{}, err
	}

	rec.CreatedBy.Role = user.Role(role)
	return rec, nil
}

// Create inserts history, exam and record in one transaction.
func (r *ClinicalRecordsRepo) Create(ctx context.Context, in clinical.NewRecord) (clinical.ClinicalRecord, error) {
	now := r.now().UTC()
	historyID, examID, recordID := uuid.NewString(), uuid.NewString(), uuid.NewString()
	h, e := in.MedicalHistory, in.OphthalmicExam

	err := r.prom.ObserveDB("clinical_records.create", func() error {
		tx, err := r.db.Begin(ctx)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO medical_histories (id, pregnancy, lactation, hypertension, diabetes, other, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$7)`,
			historyID, h.Pregnancy, h.Lactation, h.Hypertension, h.Diabetes, h.Other, now,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO ophthalmic_exams (id, od_sphere, od_cylinder, od_axis, od_pd, oi_sphere, oi_cylinder, oi_axis, oi_pd, comments, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)`,
			examID, e.ODSphere, e.ODCylinder, e.ODAxis, e.ODPupillaryDistance,
			e.OISphere, e.OICylinder, e.OIAxis, e.OIPupillaryDistance, e.Comments, now,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO clinical_records (id, patient_id, medical_history_id, ophthalmic_exam_id, created_by, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$6)`,
			recordID, in.PatientID, historyID, examID, in.CreatedBy, now,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		if IsForeignKeyViolation(err) {
			return clinical.ClinicalRecord{}, clinical.ErrPatientNotFound
		}
		return clinical.ClinicalRecord{}, err
	}

	return r.GetByID(ctx, recordID)
}

func (r *ClinicalRecordsRepo) GetByID(ctx context.Context, id string) (clinical.ClinicalRecord, error) {
	var rec clinical.ClinicalRecord

	err := r.prom.ObserveDB("clinical_records.get_by_id", func() error {
		var err error
		rec, err = scanRecord(r.db.QueryRow(ctx, recordSelect+` WHERE cr.id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return clinical.ClinicalRecord{}, clinical.ErrNotFound
		}
		return clinical.ClinicalRecord{}, err
	}
	return rec, nil
}

// ListByPatient returns the patient's records newest first.
func (r *ClinicalRecordsRepo) ListByPatient(ctx context.Context, patientID string) ([]clinical.ClinicalRecord, error) {
	out := make([]clinical.ClinicalRecord, 0)

	err := r.prom.ObserveDB("clinical_records.list_by_patient", func() error {
		rows, err := r.db.Query(ctx, recordSelect+` WHERE cr.patient_id = $1 ORDER BY cr.created_at DESC, cr.id DESC`, patientID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Update replaces the history and/or exam blocks present in req.
func (r *ClinicalRecordsRepo) Update(ctx context.Context, id string, req clinical.UpdateRecordRequest) (clinical.ClinicalRecord, error) {
	now := r.now().UTC()

	err := r.prom.ObserveDB("clinical_records.update", func() error {
		tx, err := r.db.Begin(ctx)
		if err != nil {
			return err
		}

		var historyID, examID string
		err = tx.QueryRow(ctx,
			`UPDATE clinical_records SET updated_at = $2 WHERE id = $1
			 RETURNING medical_history_id, ophthalmic_exam_id`,
			id, now,
		).Scan(&historyID, &examID)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}

		if h := req.MedicalHistory; h != nil {
			_, err = tx.Exec(ctx,
				`UPDATE medical_histories
				 SET pregnancy = $2, lactation = $3, hypertension = $4, diabetes = $5, other = $6, updated_at = $7
				 WHERE id = $1`,
				historyID, h.Pregnancy, h.Lactation, h.Hypertension, h.Diabetes, h.Other, now,
			)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if e := req.OphthalmicExam; e != nil {
			_, err = tx.Exec(ctx,
				`UPDATE ophthalmic_exams
				 SET od_sphere = $2, od_cylinder = $3, od_axis = $4, od_pd = $5,
				     oi_sphere = $6, oi_cylinder = $7, oi_axis = $8, oi_pd = $9, comments = $10, updated_at = $11
				 WHERE id = $1`,
				examID, e.ODSphere, e.ODCylinder, e.ODAxis, e.ODPupillaryDistance,
				e.OISphere, e.OICylinder, e.OIAxis, e.OIPupillaryDistance, e.Comments, now,
			)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return clinical.ClinicalRecord{}, clinical.ErrNotFound
		}
		return clinical.ClinicalRecord{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *ClinicalRecordsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.prom.ObserveDB("clinical_records.delete", func() error {
		tag, err := r.db.Exec(ctx,
			`WITH r AS (
				DELETE FROM clinical_records WHERE id = $1
				RETURNING medical_history_id, ophthalmic_exam_id
			), h AS (
				DELETE FROM medical_histories WHERE id IN (SELECT medical_history_id FROM r)
			)
			DELETE FROM ophthalmic_exams WHERE id IN (SELECT ophthalmic_exam_id FROM r)`,
			id,
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return clinical.ErrNotFound
	}
	return nil
}
