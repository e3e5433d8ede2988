package clinical

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/oftalmo/records/internal/ophthalmic"
)

func f(v float64) *float64 { return &v }

func TestCheckExam(t *testing.T) {
	if err := CheckExam(OphthalmicExamInput{}); err != nil {
		t.Fatalf("empty exam should be valid, got %v", err)
	}

	ok := OphthalmicExamInput{Exam: ophthalmic.Exam{ODSphere: f(-1.25), ODAxis: f(90), OIPupillaryDistance: f(62)}}
	if err := CheckExam(ok); err != nil {
		t.Fatalf("valid exam rejected: %v", err)
	}

	bad := OphthalmicExamInput{Exam: ophthalmic.Exam{ODCylinder: f(-12), OIAxis: f(45.5)}}
	err := CheckExam(bad)

	var examErr *ExamError
	if !errors.As(err, &examErr) {
		t.Fatalf("expected *ExamError, got %T", err)
	}
	if len(examErr.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %v", examErr.Fields)
	}
	if _, ok := examErr.Fields[ophthalmic.FieldOIAxis]; !ok {
		t.Fatal("missing oiAxis error")
	}
	if !strings.Contains(err.Error(), "Cylinder OD") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestExamInputJSONIsFlat(t *testing.T) {
	var in CreateRecordRequest
	body := `{"medicalHistory":{"diabetes":true,"other":" asma "},"ophthalmicExam":{"odSphere":-2.5,"oiAxis":180,"comments":"control 6m"}}`

	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatal(err)
	}

	if in.OphthalmicExam.ODSphere == nil || *in.OphthalmicExam.ODSphere != -2.5 {
		t.Fatal("odSphere not decoded into embedded exam")
	}
	if in.OphthalmicExam.ODCylinder != nil {
		t.Fatal("absent field should stay nil")
	}
	if in.OphthalmicExam.Comments != "control 6m" {
		t.Fatalf("comments = %q", in.OphthalmicExam.Comments)
	}
	if got := in.MedicalHistory.Normalize().Other; got != "asma" {
		t.Fatalf("Normalize() other = %q", got)
	}
	if !in.MedicalHistory.Diabetes || in.MedicalHistory.Pregnancy {
		t.Fatal("history flags decoded wrong")
	}
}

func TestUpdateRequestEmpty(t *testing.T) {
	if !(UpdateRecordRequest{}).Empty() {
		t.Fatal("zero update should be empty")
	}
	if (UpdateRecordRequest{MedicalHistory: &MedicalHistoryInput{}}).Empty() {
		t.Fatal("history block present should not be empty")
	}
}
