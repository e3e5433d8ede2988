package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oftalmo/records/internal/auth"
	"github.com/oftalmo/records/internal/domain/user"
	"github.com/oftalmo/records/internal/http/middlewares"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "handlers-test-secret-handlers-test"

var tokens = auth.NewManager(testSecret, time.Hour)

type errorResponse struct {
	Error struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		RequestID string          `json:"requestId"`
		Details   json.RawMessage `json:"details"`
	} `json:"error"`
}

// newRouter mirrors the production chain: request id, then auth on every route.
func newRouter() (*gin.Engine, *gin.RouterGroup, *middlewares.AuthMiddleware) {
	am := middlewares.NewAuthMiddleware(tokens)
	r := gin.New()
	r.Use(middlewares.RequestID())
	api := r.Group("/api", am.RequireAuth())
	return r, api, am
}

func bearer(t *testing.T, role user.Role) string {
	t.Helper()
	tok, err := tokens.MintToken("7c9e6679-7425-40de-944b-e07fc1f90ae7", "dra.soto", role)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func do(t *testing.T, r http.Handler, method, path, body string, role user.Role) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if role != "" {
		req.Header.Set("Authorization", bearer(t, role))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return resp
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) errorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d, body=%s", w.Code, status, w.Body.String())
	}
	resp := decodeErr(t, w)
	if resp.Error.Code != code {
		t.Fatalf("code = %q, want %q (message %q)", resp.Error.Code, code, resp.Error.Message)
	}
	if resp.Error.RequestID == "" {
		t.Fatal("error envelope must carry requestId")
	}
	return resp
}
