package clinical

import (
	"strings"
	"time"

	"github.com/oftalmo/records/internal/apperr"
	"github.com/oftalmo/records/internal/domain/user"
	"github.com/oftalmo/records/internal/ophthalmic"
)

var (
	ErrNotFound        = apperr.NotFound("Clinical record not found")
	ErrPatientNotFound = apperr.NotFound("Patient not found")
	ErrNothingToSave   = apperr.Validation(apperr.CodeInvalidInput, "No fields to update")
)

type MedicalHistory struct {
	ID           string    `json:"id"`
	Pregnancy    bool      `json:"pregnancy"`
	Lactation    bool      `json:"lactation"`
	Hypertension bool      `json:"hypertension"`
	Diabetes     bool      `json:"diabetes"`
	Other        string    `json:"other,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type OphthalmicExam struct {
	ID string `json:"id"`
	ophthalmic.Exam
	Comments  string    `json:"comments,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Author is the public projection of the user who created a record.
type Author struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Role     user.Role `json:"role"`
}

type ClinicalRecord struct {
	ID             string         `json:"id"`
	PatientID      string         `json:"patientId"`
	MedicalHistory MedicalHistory `json:"medicalHistory"`
	OphthalmicExam OphthalmicExam `json:"ophthalmicExam"`
	CreatedBy      Author         `json:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type MedicalHistoryInput struct {
	Pregnancy    bool   `json:"pregnancy"`
	Lactation    bool   `json:"lactation"`
	Hypertension bool   `json:"hypertension"`
	Diabetes     bool   `json:"diabetes"`
	Other        string `json:"other" binding:"omitempty,max=2000"`
}

type OphthalmicExamInput struct {
	ophthalmic.Exam
	Comments string `json:"comments" binding:"omitempty,max=4000"`
}

type CreateRecordRequest struct {
	MedicalHistory MedicalHistoryInput `json:"medicalHistory"`
	OphthalmicExam OphthalmicExamInput `json:"ophthalmicExam"`
}

// Each block present in the request replaces the stored block as a whole.
type UpdateRecordRequest struct {
	MedicalHistory *MedicalHistoryInput `json:"medicalHistory"`
	OphthalmicExam *OphthalmicExamInput `json:"ophthalmicExam"`
}

func (r UpdateRecordRequest) Empty() bool {
	return r.MedicalHistory == nil && r.OphthalmicExam == nil
}

// NewRecord is what the repository persists on create.
type NewRecord struct {
	PatientID      string
	CreatedBy      string
	MedicalHistory MedicalHistoryInput
	OphthalmicExam OphthalmicExamInput
}

// ExamError carries the per-field messages of an out of range exam.
type ExamError struct {
	Fields map[string]string
}

func (e *ExamError) Error() string {
	return "invalid ophthalmic values: " + ophthalmic.Summary(e.Fields)
}

// CheckExam returns an *ExamError when any present measurement is out of range.
func CheckExam(in OphthalmicExamInput) error {
	errs := ophthalmic.ValidateExam(in.Exam)
	if len(errs) == 0 {
		return nil
	}
	return &ExamError{Fields: errs}
}

func (in MedicalHistoryInput) Normalize() MedicalHistoryInput {
	in.Other = strings.TrimSpace(in.Other)
	return in
}

func (in OphthalmicExamInput) Normalize() OphthalmicExamInput {
	in.Comments = strings.TrimSpace(in.Comments)
	return in
}
