package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oftalmo/records/internal/apperr"
	"github.com/oftalmo/records/internal/domain/patient"
	"github.com/oftalmo/records/internal/rut"
	"github.com/oftalmo/records/internal/utils"
)

type PatientStore interface {
	Create(ctx context.Context, p patient.Patient) (patient.Patient, error)
	GetByID(ctx context.Context, id string) (patient.Patient, error)
	Search(ctx context.Context, f patient.SearchFilter) ([]patient.Patient, int, error)
	Update(ctx context.Context, p patient.Patient) (patient.Patient, error)
	Delete(ctx context.Context, id string) error
}

type PatientsHandler struct {
	repo PatientStore
	now  func() time.Time
}

func NewPatientsHandler(repo PatientStore) *PatientsHandler {
	return &PatientsHandler{repo: repo, now: time.Now}
}

func (h *PatientsHandler) CreatePatient(ctx *gin.Context) {
	var req patient.CreatePatientRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if missing := patient.MissingFields(req); len(missing) > 0 {
		RespondBadRequest(ctx, apperr.CodeInvalidInput,
			"Missing required fields: "+strings.Join(missing, ", "),
			gin.H{"fields": missing})
		return
	}

	if !rut.Validate(req.RUT) {
		RespondBadRequest(ctx, apperr.CodeInvalidRUT, "Invalid RUT format or check digit", gin.H{"field": "rut"})
		return
	}

	now := h.now()
	birth, err := patient.ParseBirthDate(req.BirthDate, now)
	if err != nil {
		RespondBadRequest(ctx, apperr.CodeInvalidInput, "Invalid birth date", gin.H{"field": "birthDate", "reason": err.Error()})
		return
	}

	p := patient.NewFromCreateRequest(req, rut.Format(req.RUT), birth, now)

	created, err := h.repo.Create(ctx.Request.Context(), p)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *PatientsHandler) ListPatients(ctx *gin.Context) {
	page, limit, err := utils.ParsePagination(ctx.Query("page"), ctx.Query("limit"))
	if err != nil {
		RespondBadRequest(ctx, apperr.CodeInvalidInput, err.Error(), nil)
		return
	}

	filter := patient.SearchFilter{
		Query: strings.TrimSpace(ctx.Query("search")),
		Page:  page,
		Limit: limit,
	}

	items, total, err := h.repo.Search(ctx.Request.Context(), filter)
	if err != nil {
		RespondInternal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, patient.NewSearchResult(items, total, filter))
}

func (h *PatientsHandler) GetPatientByID(ctx *gin.Context) {
	id := ctx.Param("id")

	// a malformed id cannot exist
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Patient not found")
		return
	}

	p, err := h.repo.GetByID(ctx.Request.Context(), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

func (h *PatientsHandler) UpdatePatient(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Patient not found")
		return
	}

	var req patient.UpdatePatientRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if req.Empty() {
		RespondAppError(ctx, patient.ErrNothingToSave)
		return
	}

	now := h.now()

	var birth *time.Time
	if req.BirthDate != nil {
		b, err := patient.ParseBirthDate(*req.BirthDate, now)
		if err != nil {
			RespondBadRequest(ctx, apperr.CodeInvalidInput, "Invalid birth date", gin.H{"field": "birthDate", "reason": err.Error()})
			return
		}
		birth = &b
	}

	if req.RUT != nil {
		canonical := rut.Format(*req.RUT)
		req.RUT = &canonical
	}

	current, err := h.repo.GetByID(ctx.Request.Context(), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	patient.ApplyUpdate(&current, req, birth, now)

	if missing := current.BlankFields(); len(missing) > 0 {
		RespondBadRequest(ctx, apperr.CodeInvalidInput,
			"Missing required fields: "+strings.Join(missing, ", "),
			gin.H{"fields": missing})
		return
	}

	updated, err := h.repo.Update(ctx.Request.Context(), current)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *PatientsHandler) DeletePatient(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Patient not found")
		return
	}

	err := h.repo.Delete(ctx.Request.Context(), id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
