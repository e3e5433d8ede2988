package db

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/oftalmo/records/internal/domain/user"
	"github.com/oftalmo/records/internal/repo/memory"
)

type fakeHasher struct {
	calls int
	err   error
}

func (h *fakeHasher) HashPassword(plain string) (string, error) {
	h.calls++
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + plain, nil
}

func TestEnsureUser(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsersRepo()
	hasher := &fakeHasher{}
	seed := SeedUser{Username: "admin", Password: "s3cret", Name: "Admin", Role: user.RoleAdmin}

	created, err := EnsureUser(ctx, users, hasher, seed)
	if err != nil || !created {
		t.Fatalf("first EnsureUser() = %v, %v", created, err)
	}

	u, err := users.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if u.PasswordHash != "hashed:s3cret" || u.Role != user.RoleAdmin || u.ID == "" {
		t.Fatalf("unexpected seeded user %+v", u)
	}

	created, err = EnsureUser(ctx, users, hasher, seed)
	if err != nil || created {
		t.Fatalf("second EnsureUser() = %v, %v", created, err)
	}
	if hasher.calls != 1 {
		t.Fatalf("existing user must not be re-hashed, calls=%d", hasher.calls)
	}
}

func TestEnsureUserNoopAndErrors(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsersRepo()

	created, err := EnsureUser(ctx, users, &fakeHasher{}, SeedUser{})
	if err != nil || created {
		t.Fatalf("empty seed should be a no-op, got %v %v", created, err)
	}

	_, err = EnsureUser(ctx, users, &fakeHasher{}, SeedUser{Username: "x", Password: "y", Role: "ROOT"})
	if !errors.Is(err, user.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	boom := errors.New("boom")
	_, err = EnsureUser(ctx, users, &fakeHasher{err: boom}, SeedUser{Username: "x", Password: "y", Role: user.RoleUser})
	if !errors.Is(err, boom) {
		t.Fatalf("hasher error should propagate, got %v", err)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"users", "patients", "clinical_records"}
	if len(files) != len(want) {
		t.Fatalf("expected %d migrations, got %v", len(want), files)
	}
	for i, f := range files {
		if !strings.Contains(f, want[i]) {
			t.Fatalf("migration %d = %s, want %s", i, f, want[i])
		}

		body, err := fs.ReadFile(migrations, f)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(body), "-- +goose Up") || !strings.Contains(string(body), "-- +goose Down") {
			t.Fatalf("%s lacks goose annotations", f)
		}
	}
}

func TestMigrateDBUsesEmbeddedDir(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	if err := migrateDB(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if gotDir != "migrations" {
		t.Fatalf("dir = %q", gotDir)
	}

	gooseUp = func(context.Context, *sql.DB, string) error { return errors.New("dirty") }
	if err := migrateDB(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "dirty") {
		t.Fatalf("expected wrapped goose error, got %v", err)
	}
}
