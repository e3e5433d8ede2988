package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oftalmo/records/internal/actorctx"
	"github.com/oftalmo/records/internal/auth"
	"github.com/oftalmo/records/internal/domain/user"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestLoggerAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "dev")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if line["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id missing or wrong: %v", line)
	}

	buf.Reset()
	log.Info("no span")
	if bytes.Contains(buf.Bytes(), []byte("trace_id")) {
		t.Fatal("trace_id should only be added with an active span")
	}
}

func TestLoggerLevelByEnv(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(&buf, "prod").Debug("hidden")
	if buf.Len() != 0 {
		t.Fatal("debug must be off outside dev")
	}
}

func TestLoggerAddsActorAndRedacts(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "dev")

	ctx := actorctx.WithIdentity(context.Background(), auth.Identity{UserID: "u-1", Role: user.RoleAdmin})
	log.InfoContext(ctx, "login", "username", "dra.soto", "password", "hunter2", "Authorization", "Bearer abc")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if line["actor_id"] != "u-1" || line["actor_role"] != "ADMIN" {
		t.Fatalf("actor attrs missing: %v", line)
	}
	if line["password"] != redacted || line["Authorization"] != redacted {
		t.Fatalf("credentials leaked: %v", line)
	}
	if line["username"] != "dra.soto" {
		t.Fatalf("plain attrs must pass through: %v", line)
	}
}

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "svc", "test", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestObserveDB(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	if err := p.ObserveDB("patients.get", func() error { return nil }); err != nil {
		t.Fatal(err)
	}

	dup := &pgconn.PgError{Code: "23505"}
	if err := p.ObserveDB("patients.create", func() error { return dup }); !errors.Is(err, dup) {
		t.Fatalf("error must pass through, got %v", err)
	}

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("patients.create", "unique_violation")); got != 1 {
		t.Fatalf("unique_violation count = %v", got)
	}

	var nilProm *Prom
	called := false
	_ = nilProm.ObserveDB("x", func() error { called = true; return nil })
	if !called {
		t.Fatal("nil Prom must still run fn")
	}
}

func TestClassifyDBErr(t *testing.T) {
	tests := map[string]error{
		"foreign_key_violation": &pgconn.PgError{Code: "23503"},
		"pg_42P01":              &pgconn.PgError{Code: "42P01"},
		"timeout":               context.DeadlineExceeded,
		"unknown":               errors.New("boom"),
	}
	for want, err := range tests {
		if got := classifyDBErr(err); got != want {
			t.Fatalf("classifyDBErr(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestObserveLogin(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())
	p.ObserveLogin("success")
	p.ObserveLogin("success")
	p.ObserveValidationFailure("VAL_001")

	if got := testutil.ToFloat64(p.AuthLogins.WithLabelValues("success")); got != 2 {
		t.Fatalf("login success = %v", got)
	}
	if got := testutil.ToFloat64(p.ValidationFailures.WithLabelValues("VAL_001")); got != 1 {
		t.Fatalf("VAL_001 = %v", got)
	}
}
