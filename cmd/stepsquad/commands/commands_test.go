package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/stepsquad/internal/auth"
	"github.com/mmynk/stepsquad/internal/models"
	"github.com/mmynk/stepsquad/internal/storage/sqlite"
)

// setupEnv points the CLI at a temp SQLite database.
func setupEnv(t *testing.T) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LEADERBOARD_TIMEZONE", "UTC")
	return dbPath
}

func run(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	setupEnv(t)

	out, err := run("token", "alice", "--name", "Alice", "--ttl", "1h")
	if err != nil {
		t.Fatalf("token failed: %v", err)
	}

	claims, err := auth.NewJWTManager("cli-test-secret", time.Hour).Validate(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("minted token does not validate: %v", err)
	}
	if claims.UserID != "alice" || claims.DisplayName != "Alice" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestUserAndStepsCommands(t *testing.T) {
	dbPath := setupEnv(t)

	if _, err := run("user", "add", "alice", "Alice Walker", "--avatar", "https://example.com/a.png"); err != nil {
		t.Fatalf("user add failed: %v", err)
	}
	if _, err := run("steps", "record", "alice", "2025-03-10", "1234", "--distance", "900"); err != nil {
		t.Fatalf("steps record failed: %v", err)
	}
	if _, err := run("steps", "record", "alice", "2025-03-11", "66"); err != nil {
		t.Fatalf("steps record failed: %v", err)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	user, err := store.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.DisplayName != "Alice Walker" || user.AvatarURL != "https://example.com/a.png" {
		t.Errorf("Unexpected user: %+v", user)
	}

	group := &models.Group{Name: "Walkers", CreatedByID: "alice", IsPublic: true, PeriodType: models.PeriodWeekly}
	if err := store.CreateGroup(ctx, group, &models.Membership{UserID: "alice", Role: models.RoleOwner}); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	window := models.DateRange{
		Start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC),
	}
	totals, err := store.GetStepTotals(ctx, group.ID, window)
	if err != nil {
		t.Fatalf("GetStepTotals failed: %v", err)
	}
	if len(totals) != 1 || totals[0].TotalSteps != 1300 || totals[0].TotalDistanceMeters != 900 {
		t.Errorf("Unexpected totals: %+v", totals)
	}
}

func TestStepsRecordRejectsBadInput(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad date", []string{"steps", "record", "alice", "10/03/2025", "100"}},
		{"bad steps", []string{"steps", "record", "alice", "2025-03-10", "many"}},
		{"missing args", []string{"steps", "record", "alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(tt.args...); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestMigrateRequiresPostgres(t *testing.T) {
	setupEnv(t)

	_, err := run("migrate", "up")
	if err == nil || !strings.Contains(err.Error(), "STORE_DRIVER=postgres") {
		t.Errorf("Expected postgres driver error, got %v", err)
	}
}

func TestUnknownDriver(t *testing.T) {
	setupEnv(t)
	t.Setenv("STORE_DRIVER", "mysql")

	if _, err := run("user", "add", "alice", "Alice"); err == nil {
		t.Error("Expected config error for unknown driver")
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]pinger
		want   int
	}{
		{"healthy", map[string]pinger{"store": fakePinger{}}, http.StatusOK},
		{"store down", map[string]pinger{"store": fakePinger{errors.New("down")}}, http.StatusServiceUnavailable},
		{"redis down", map[string]pinger{"store": fakePinger{}, "redis": fakePinger{errors.New("down")}}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			healthHandler(tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
