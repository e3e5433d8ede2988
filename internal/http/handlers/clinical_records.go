package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oftalmo/records/internal/apperr"
	"github.com/oftalmo/records/internal/domain/clinical"
	"github.com/oftalmo/records/internal/domain/patient"
	"github.com/oftalmo/records/internal/http/middlewares"
	"github.com/oftalmo/records/internal/ophthalmic"
	"github.com/oftalmo/records/internal/utils"
)

type RecordStore interface {
	Create(ctx context.Context, in clinical.NewRecord) (clinical.ClinicalRecord, error)
	GetByID(ctx context.Context, id string) (clinical.ClinicalRecord, error)
	ListByPatient(ctx context.Context, patientID string) ([]clinical.ClinicalRecord, error)
	Update(ctx context.Context, id string, req clinical.UpdateRecordRequest) (clinical.ClinicalRecord, error)
	Delete(ctx context.Context, id string) error
}

type PatientGetter interface {
	GetByID(ctx context.Context, id string) (patient.Patient, error)
}

type ClinicalRecordsHandler struct {
	records  RecordStore
	patients PatientGetter
}

func NewClinicalRecordsHandler(records RecordStore, patients PatientGetter) *ClinicalRecordsHandler {
	return &ClinicalRecordsHandler{records: records, patients: patients}
}

// respondExamError answers VAL_004 with the per-field messages as details.
func respondExamError(ctx *gin.Context, err error) bool {
	var examErr *clinical.ExamError
	if !errors.As(err, &examErr) {
		return false
	}

	appErr := apperr.Validation(apperr.CodeOutOfRange, "Invalid ophthalmic values: "+ophthalmic.Summary(examErr.Fields))
	RespondAppError(ctx, appErr.WithDetails(examErr.Fields))
	return true
}

func (h *ClinicalRecordsHandler) ListByPatient(ctx *gin.Context) {
	patientID := ctx.Param("id")
	if !utils.IsUUID(patientID) {
		RespondNotFound(ctx, "Patient not found")
		return
	}

	if _, err := h.patients.GetByID(ctx.Request.Context(), patientID); err != nil {
		RespondAppError(ctx, err)
		return
	}

	items, err := h.records.ListByPatient(ctx.Request.Context(), patientID)
	if err != nil {
		RespondInternal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":  items,
		"count": len(items),
	})
}

func (h *ClinicalRecordsHandler) Create(ctx *gin.Context) {
	patientID := ctx.Param("id")
	if !utils.IsUUID(patientID) {
		RespondNotFound(ctx, "Patient not found")
		return
	}

	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, apperr.CodeAuthRequired, "Authentication required")
		return
	}

	var req clinical.CreateRecordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if err := clinical.CheckExam(req.OphthalmicExam); err != nil {
		respondExamError(ctx, err)
		return
	}

	rec, err := h.records.Create(ctx.Request.Context(), clinical.NewRecord{
		PatientID:      patientID,
		CreatedBy:      userID,
		MedicalHistory: req.MedicalHistory.Normalize(),
		OphthalmicExam: req.OphthalmicExam.Normalize(),
	})
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, rec)
}

func (h *ClinicalRecordsHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Clinical record not found")
		return
	}

	rec, err := h.records.GetByID(ctx.Request.Context(), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, rec)
}

func (h *ClinicalRecordsHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Clinical record not found")
		return
	}

	var req clinical.UpdateRecordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if req.Empty() {
		RespondAppError(ctx, clinical.ErrNothingToSave)
		return
	}

	if req.MedicalHistory != nil {
		hist := req.MedicalHistory.Normalize()
		req.MedicalHistory = &hist
	}

	if req.OphthalmicExam != nil {
		if err := clinical.CheckExam(*req.OphthalmicExam); err != nil {
			respondExamError(ctx, err)
			return
		}
		e := req.OphthalmicExam.Normalize()
		req.OphthalmicExam = &e
	}

	rec, err := h.records.Update(ctx.Request.Context(), id, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

func (h *ClinicalRecordsHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Clinical record not found")
		return
	}

	if err := h.records.Delete(ctx.Request.Context(), id); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
