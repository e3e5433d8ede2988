package actorctx

import (
	"context"
	"testing"

	"github.com/oftalmo/records/internal/auth"
	"github.com/oftalmo/records/internal/domain/user"
)

func TestIdentityRoundTrip(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Fatalf("empty context should carry no identity")
	}

	want := auth.Identity{UserID: "u1", Username: "tammi", Role: user.RoleAdmin}
	ctx := WithIdentity(context.Background(), want)

	got, ok := IdentityFrom(ctx)
	if !ok || got != want {
		t.Fatalf("IdentityFrom = %+v, %v", got, ok)
	}

	if id, ok := UserIDFrom(ctx); !ok || id != "u1" {
		t.Fatalf("UserIDFrom = %q, %v", id, ok)
	}
}

func TestIdentityWithoutUserIDIsIgnored(t *testing.T) {
	ctx := WithIdentity(context.Background(), auth.Identity{Username: "ghost"})

	if _, ok := IdentityFrom(ctx); ok {
		t.Fatalf("identity without user id should not count")
	}
}
