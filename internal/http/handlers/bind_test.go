package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oftalmo/records/internal/domain/patient"
	"github.com/oftalmo/records/internal/http/handlers"
	"github.com/oftalmo/records/internal/http/middlewares"
)

type bindDetails struct {
	JSON   string                `json:"json"`
	Field  string                `json:"field"`
	Fields []handlers.FieldError `json:"fields"`
}

func bindRouter() *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.PUT("/patients", func(ctx *gin.Context) {
		var req patient.UpdatePatientRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusOK)
	})
	return r
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	w := do(t, bindRouter(), http.MethodPut, "/patients", `{"email":"not-an-email"}`, "")

	resp := expectError(t, w, http.StatusBadRequest, "VAL_003")

	var details bindDetails
	if err := json.Unmarshal(resp.Error.Details, &details); err != nil {
		t.Fatal(err)
	}
	if len(details.Fields) != 1 || details.Fields[0].Field != "email" || details.Fields[0].Rule != "email" {
		t.Fatalf("unexpected fields %+v", details.Fields)
	}
}

func TestBindJSON_RutRuleAnswersVAL001(t *testing.T) {
	r := bindRouter()

	w := do(t, r, http.MethodPut, "/patients", `{"rut":"12.345.678-9"}`, "")
	resp := expectError(t, w, http.StatusBadRequest, "VAL_001")

	var details bindDetails
	_ = json.Unmarshal(resp.Error.Details, &details)
	if len(details.Fields) != 1 || details.Fields[0].Field != "rut" {
		t.Fatalf("unexpected fields %+v", details.Fields)
	}

	w = do(t, r, http.MethodPut, "/patients", `{"rut":"12.345.678-5"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("valid rut rejected: %d %s", w.Code, w.Body.String())
	}
}

func TestBindJSON_SyntaxAndTypeErrors(t *testing.T) {
	r := bindRouter()

	w := do(t, r, http.MethodPut, "/patients", `{"rut": ]}`, "")
	resp := expectError(t, w, http.StatusBadRequest, "VAL_003")
	var details bindDetails
	_ = json.Unmarshal(resp.Error.Details, &details)
	if details.JSON == "" {
		t.Fatalf("expected json error kind, got %s", resp.Error.Details)
	}

	w = do(t, r, http.MethodPut, "/patients", `{"phone":12}`, "")
	resp = expectError(t, w, http.StatusBadRequest, "VAL_003")
	details = bindDetails{}
	_ = json.Unmarshal(resp.Error.Details, &details)
	if details.JSON != "invalid_json_type" || details.Field != "phone" {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestBindJSON_TruncatedBodyKeepsDecoderDetailsPrivate(t *testing.T) {
	r := bindRouter()

	w := do(t, r, http.MethodPut, "/patients", `{"rut":`, "")
	resp := expectError(t, w, http.StatusBadRequest, "VAL_003")
	var details bindDetails
	_ = json.Unmarshal(resp.Error.Details, &details)
	if details.JSON != "truncated_body" {
		t.Fatalf("unexpected details %s", resp.Error.Details)
	}
}
