package patient

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oftalmo/records/internal/apperr"
)

type Patient struct {
	ID         string    `json:"id"`
	RUT        string    `json:"rut"`
	FirstNames string    `json:"firstNames"`
	LastNames  string    `json:"lastNames"`
	BirthDate  time.Time `json:"birthDate"`
	Age        int       `json:"age"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

var (
	ErrNotFound      = apperr.NotFound("Patient not found")
	ErrRUTTaken      = apperr.New(apperr.KindConflict, apperr.CodeDuplicateRUT, "A patient with this RUT already exists")
	ErrBadBirthDate  = errors.New("birth date must be a date (YYYY-MM-DD) not in the future")
	ErrNothingToSave = apperr.Validation(apperr.CodeInvalidInput, "No fields to update")
)

// Required fields are checked by MissingFields so the client gets the full list at once.
type CreatePatientRequest struct {
	RUT        string `json:"rut"`
	FirstNames string `json:"firstNames" binding:"omitempty,max=120"`
	LastNames  string `json:"lastNames" binding:"omitempty,max=120"`
	BirthDate  string `json:"birthDate"`
	Phone      string `json:"phone" binding:"omitempty,max=30"`
	Email      string `json:"email" binding:"omitempty,email,max=254"`
}

// partial update, nil means "leave as is"
type UpdatePatientRequest struct {
	RUT        *string `json:"rut" binding:"omitempty,rut"`
	FirstNames *string `json:"firstNames" binding:"omitempty,min=1,max=120"`
	LastNames  *string `json:"lastNames" binding:"omitempty,min=1,max=120"`
	BirthDate  *string `json:"birthDate"`
	Phone      *string `json:"phone" binding:"omitempty,min=1,max=30"`
	Email      *string `json:"email" binding:"omitempty,email,max=254"`
}

type SearchFilter struct {
	Query string
	Page  int
	Limit int
}

func (f SearchFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type SearchResult struct {
	Data       []Patient `json:"data"`
	TotalCount int       `json:"totalCount"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}

func NewSearchResult(data []Patient, total int, f SearchFilter) SearchResult {
	if data == nil {
		data = []Patient{}
	}

	pages := 0
	if f.Limit > 0 {
		pages = (total + f.Limit - 1) / f.Limit
	}

	return SearchResult{
		Data:       data,
		TotalCount: total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: pages,
	}
}

// MissingFields returns the human labels of required fields that are absent or blank.
func MissingFields(req CreatePatientRequest) []string {
	var missing []string

	check := func(v, label string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, label)
		}
	}

	check(req.RUT, "RUT")
	check(req.FirstNames, "first names")
	check(req.LastNames, "last names")
	check(req.BirthDate, "birth date")
	check(req.Phone, "phone")
	check(req.Email, "email")

	return missing
}

// ParseBirthDate accepts "2006-01-02" or a full RFC3339 timestamp and rejects future dates.
func ParseBirthDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, ErrBadBirthDate
		}
	}

	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if t.After(now.UTC()) {
		return time.Time{}, ErrBadBirthDate
	}
	return t, nil
}

// AgeAt is the number of whole years between birth and now.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()

	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}

	if age < 0 {
		return 0
	}
	return age
}

// ApplyUpdate copies the non-nil fields of req onto p. RUT and birth date must
// already be normalized by the caller.
func ApplyUpdate(p *Patient, req UpdatePatientRequest, birth *time.Time, now time.Time) {
	if req.RUT != nil {
		p.RUT = *req.RUT
	}
	if req.FirstNames != nil {
		p.FirstNames = strings.TrimSpace(*req.FirstNames)
	}
	if req.LastNames != nil {
		p.LastNames = strings.TrimSpace(*req.LastNames)
	}
	if birth != nil {
		p.BirthDate = *birth
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		p.Email = strings.TrimSpace(*req.Email)
	}

	p.Age = AgeAt(p.BirthDate, now)
	p.UpdatedAt = now
}

func (r UpdatePatientRequest) Empty() bool {
	return r.RUT == nil && r.FirstNames == nil && r.LastNames == nil &&
		r.BirthDate == nil && r.Phone == nil && r.Email == nil
}

// NewFromCreateRequest builds a patient from an already validated request.
// canonicalRUT and birth are the normalized RUT and parsed birth date.
func NewFromCreateRequest(req CreatePatientRequest, canonicalRUT string, birth, now time.Time) Patient {
	now = now.UTC()
	return Patient{
		ID:         uuid.NewString(),
		RUT:        canonicalRUT,
		FirstNames: strings.TrimSpace(req.FirstNames),
		LastNames:  strings.TrimSpace(req.LastNames),
		BirthDate:  birth,
		Age:        AgeAt(birth, now),
		Phone:      strings.TrimSpace(req.Phone),
		Email:      strings.TrimSpace(req.Email),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// BlankFields lists required fields that are empty on a stored patient.
func (p Patient) BlankFields() []string {
	birth := ""
	if !p.BirthDate.IsZero() {
		birth = p.BirthDate.Format(time.DateOnly)
	}

	return MissingFields(CreatePatientRequest{
		RUT:        p.RUT,
		FirstNames: p.FirstNames,
		LastNames:  p.LastNames,
		BirthDate:  birth,
		Phone:      p.Phone,
		Email:      p.Email,
	})
}
