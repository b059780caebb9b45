package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/storage"
)

// newTestStore migrates a fresh schema in the database named by
// STEPSQUAD_TEST_DATABASE_URL. The database is wiped.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("STEPSQUAD_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STEPSQUAD_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	store, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if _, err := store.pool.Exec(ctx, "DROP SCHEMA public CASCADE; CREATE SCHEMA public"); err != nil {
		t.Fatalf("Failed to reset schema: %v", err)
	}
	migrator := NewMigrator(dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := migrator.Up(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return store
}

func codePtr(s string) *string { return &s }

func createGroup(t *testing.T, store *Store, name, ownerID string, code *string) *models.Group {
	t.Helper()

	group := &models.Group{
		Name:        name,
		CreatedByID: ownerID,
		IsPublic:    code == nil,
		JoinCode:    code,
		PeriodType:  models.PeriodWeekly,
	}
	owner := &models.Membership{UserID: ownerID, Role: models.RoleOwner}
	if err := store.CreateGroup(context.Background(), group, owner); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestPostgresStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	private := createGroup(t, store, "Morning Walkers", "alice", codePtr("ABCD1234"))
	public := createGroup(t, store, "Open_Trail 100%", "bob", nil)

	t.Run("CreateGroup fills derived fields", func(t *testing.T) {
		if private.ID == "" || private.CreatedAt.IsZero() {
			t.Errorf("Expected ID and CreatedAt to be set, got %+v", private)
		}
		if private.MemberCount != 1 {
			t.Errorf("MemberCount = %d, want 1", private.MemberCount)
		}
		if private.JoinCode == nil || *private.JoinCode != "ABCD1234" {
			t.Errorf("JoinCode = %v, want ABCD1234", private.JoinCode)
		}
		if public.JoinCode != nil {
			t.Errorf("Public group JoinCode = %v, want nil", *public.JoinCode)
		}
	})

	t.Run("duplicate join code", func(t *testing.T) {
		group := &models.Group{Name: "Copy", CreatedByID: "carol", JoinCode: codePtr("ABCD1234"), PeriodType: models.PeriodDaily}
		err := store.CreateGroup(ctx, group, &models.Membership{UserID: "carol", Role: models.RoleOwner})
		if !errors.Is(err, storage.ErrJoinCodeTaken) {
			t.Fatalf("Expected ErrJoinCodeTaken, got %v", err)
		}
		groups, err := store.ListUserGroups(ctx, "carol")
		if err != nil {
			t.Fatalf("ListUserGroups failed: %v", err)
		}
		if len(groups) != 0 {
			t.Errorf("Expected no partial group for carol, got %d", len(groups))
		}
	})

	t.Run("memberships", func(t *testing.T) {
		if err := store.AddMember(ctx, &models.Membership{GroupID: private.ID, UserID: "bob", Role: models.RoleMember}); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
		err := store.AddMember(ctx, &models.Membership{GroupID: private.ID, UserID: "bob", Role: models.RoleMember})
		if !errors.Is(err, storage.ErrAlreadyMember) {
			t.Errorf("Expected ErrAlreadyMember, got %v", err)
		}
		err = store.AddMember(ctx, &models.Membership{GroupID: "missing", UserID: "bob", Role: models.RoleMember})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing group, got %v", err)
		}

		if err := store.UpdateMemberRole(ctx, private.ID, "bob", models.RoleAdmin); err != nil {
			t.Fatalf("UpdateMemberRole failed: %v", err)
		}
		m, err := store.GetMembership(ctx, private.ID, "bob")
		if err != nil {
			t.Fatalf("GetMembership failed: %v", err)
		}
		if m.Role != models.RoleAdmin {
			t.Errorf("Role = %s, want admin", m.Role)
		}

		members, err := store.ListMembers(ctx, private.ID)
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(members) != 2 || members[0].UserID != "alice" {
			t.Errorf("Unexpected members %+v", members)
		}

		if err := store.RemoveMember(ctx, private.ID, "bob"); err != nil {
			t.Fatalf("RemoveMember failed: %v", err)
		}
		if err := store.RemoveMember(ctx, private.ID, "bob"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second remove, got %v", err)
		}
	})

	t.Run("search escapes wildcards", func(t *testing.T) {
		groups, err := store.SearchPublicGroups(ctx, "open_trail 100%", 10)
		if err != nil {
			t.Fatalf("SearchPublicGroups failed: %v", err)
		}
		if len(groups) != 1 || groups[0].ID != public.ID {
			t.Errorf("Expected only the public group, got %d groups", len(groups))
		}

		groups, err = store.SearchPublicGroups(ctx, "Morning", 10)
		if err != nil {
			t.Fatalf("SearchPublicGroups failed: %v", err)
		}
		if len(groups) != 0 {
			t.Errorf("Private groups must not be searchable, got %d", len(groups))
		}
	})

	t.Run("step totals", func(t *testing.T) {
		if err := store.CreateUser(ctx, &models.User{ID: "alice", DisplayName: "Alice"}); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }
		for _, e := range []models.StepEntry{
			{UserID: "alice", Date: day(10), Steps: 1000, DistanceMeters: 800},
			{UserID: "alice", Date: day(11), Steps: 500},
			{UserID: "alice", Date: day(11), Steps: 2000},
			{UserID: "alice", Date: day(20), Steps: 9999},
		} {
			if err := store.RecordSteps(ctx, e); err != nil {
				t.Fatalf("RecordSteps failed: %v", err)
			}
		}

		totals, err := store.GetStepTotals(ctx, private.ID, models.DateRange{Start: day(10), End: day(16)})
		if err != nil {
			t.Fatalf("GetStepTotals failed: %v", err)
		}
		if len(totals) != 1 {
			t.Fatalf("Expected 1 total, got %d", len(totals))
		}
		if totals[0].DisplayName != "Alice" || totals[0].TotalSteps != 3000 || totals[0].TotalDistanceMeters != 800 {
			t.Errorf("Unexpected total %+v", totals[0])
		}
	})

	t.Run("users", func(t *testing.T) {
		if err := store.CreateUser(ctx, &models.User{ID: "bob", DisplayName: "Bob", AvatarURL: "https://example.com/b.png"}); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		users, err := store.GetUsers(ctx, []string{"alice", "bob", "ghost"})
		if err != nil {
			t.Fatalf("GetUsers failed: %v", err)
		}
		if len(users) != 2 || users["bob"].AvatarURL == "" {
			t.Errorf("Unexpected users %+v", users)
		}
		if _, err := store.GetUser(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete cascades", func(t *testing.T) {
		if err := store.DeleteGroup(ctx, private.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetMembership(ctx, private.ID, "alice"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected membership to be gone, got %v", err)
		}
		if err := store.DeleteGroup(ctx, private.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNullableCode(t *testing.T) {
	if nullableCode(nil) != nil {
		t.Error("nil code should stay nil")
	}
	if nullableCode(codePtr("")) != nil {
		t.Error("empty code should become NULL")
	}
	if got := nullableCode(codePtr("X")); got == nil || *got != "X" {
		t.Errorf("nullableCode(X) = %v", got)
	}
}
