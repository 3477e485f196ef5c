package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/yamanavi/mountainquiz/internal/database"
	"github.com/yamanavi/mountainquiz/internal/migrations"
	"github.com/yamanavi/mountainquiz/internal/mountain"
)

func testStore(t *testing.T) (*SQLiteStore, *sql.DB) {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return NewSQLiteStore(db), db
}

func intp(v int) *int { return &v }

func TestSubmissionLifecycle(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	sub := mountain.Submission{
		ID:        "sub-1",
		Name:      "裏山",
		NameKana:  "うらやま",
		Elevation: intp(812),
		Location:  "長野県",
		AddedBy:   "tester",
	}
	if err := store.CreateSubmission(ctx, sub); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetSubmission(ctx, "sub-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "裏山" || got.Approved {
		t.Fatalf("submission = %+v", got)
	}
	if got.Elevation == nil || *got.Elevation != 812 {
		t.Fatalf("elevation = %v", got.Elevation)
	}

	// Pending submissions are invisible to the approved listing.
	approved, err := store.ListApproved(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(approved) != 0 {
		t.Fatalf("approved = %+v", approved)
	}

	if err := store.SetSubmissionStatus(ctx, "sub-1", StatusApproved); err != nil {
		t.Fatal(err)
	}
	approved, err = store.ListApproved(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(approved) != 1 || !approved[0].Approved {
		t.Fatalf("approved = %+v", approved)
	}

	if err := store.SetSubmissionStatus(ctx, "missing", StatusRejected); !errors.Is(err, mountain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindMatchesIDThenName(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if err := store.CreateSubmission(ctx, mountain.Submission{ID: "abc", Name: "テスト山"}); err != nil {
		t.Fatal(err)
	}

	byID, err := store.Find(ctx, "abc")
	if err != nil || byID.ID != "abc" {
		t.Fatalf("by id: (%+v, %v)", byID, err)
	}
	byName, err := store.Find(ctx, "テスト山")
	if err != nil || byName.ID != "abc" {
		t.Fatalf("by name: (%+v, %v)", byName, err)
	}
	if _, err := store.Find(ctx, "nope"); !errors.Is(err, mountain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertBestScoreStrictlyGreater(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	rec := mountain.ScoreRecord{UserID: "u1", DisplayName: "Alice", Score: 5000, TotalTimeMs: 30000}
	updated, err := store.UpsertBestScore(ctx, rec)
	if err != nil || !updated {
		t.Fatalf("first insert: (%v, %v)", updated, err)
	}

	// An equal score must not replace the stored one.
	updated, err = store.UpsertBestScore(ctx, rec)
	if err != nil || updated {
		t.Fatalf("equal score: (%v, %v)", updated, err)
	}

	// A lower score must not either.
	rec.Score = 4000
	updated, err = store.UpsertBestScore(ctx, rec)
	if err != nil || updated {
		t.Fatalf("lower score: (%v, %v)", updated, err)
	}

	rec.Score = 6000
	rec.TotalTimeMs = 25000
	updated, err = store.UpsertBestScore(ctx, rec)
	if err != nil || !updated {
		t.Fatalf("higher score: (%v, %v)", updated, err)
	}

	best, err := store.BestScore(ctx, "u1")
	if err != nil || best.Score != 6000 || best.TotalTimeMs != 25000 {
		t.Fatalf("best = (%+v, %v)", best, err)
	}
}

func TestUpsertBestScoreAdoptsAnonymousRecord(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	// An anonymous run stored under the player's display name.
	if _, err := store.UpsertBestScore(ctx, mountain.ScoreRecord{
		UserID: "anon-xyz", DisplayName: "Bob", Score: 7000, TotalTimeMs: 20000,
	}); err != nil {
		t.Fatal(err)
	}

	// The authenticated run beats it: the row moves to the real user id.
	updated, err := store.UpsertBestScore(ctx, mountain.ScoreRecord{
		UserID: "u2", DisplayName: "Bob", Score: 8000, TotalTimeMs: 18000,
	})
	if err != nil || !updated {
		t.Fatalf("adoption: (%v, %v)", updated, err)
	}

	if _, err := store.BestScore(ctx, "anon-xyz"); !errors.Is(err, mountain.ErrNotFound) {
		t.Fatalf("anonymous row should be gone, got %v", err)
	}
	best, err := store.BestScore(ctx, "u2")
	if err != nil || best.Score != 8000 {
		t.Fatalf("best = (%+v, %v)", best, err)
	}

	top, err := store.TopScores(ctx, 10)
	if err != nil || len(top) != 1 {
		t.Fatalf("top = (%+v, %v)", top, err)
	}

	// A weaker authenticated run must not displace the adopted record.
	updated, err = store.UpsertBestScore(ctx, mountain.ScoreRecord{
		UserID: "u2", DisplayName: "Bob", Score: 7500, TotalTimeMs: 15000,
	})
	if err != nil || updated {
		t.Fatalf("weaker run: (%v, %v)", updated, err)
	}
}

func TestTopScoresOrdering(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	for _, rec := range []mountain.ScoreRecord{
		{UserID: "a", DisplayName: "A", Score: 3000, TotalTimeMs: 10000},
		{UserID: "b", DisplayName: "B", Score: 9000, TotalTimeMs: 12000},
		{UserID: "c", DisplayName: "C", Score: 9000, TotalTimeMs: 11000},
	} {
		if _, err := store.UpsertBestScore(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	top, err := store.TopScores(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 {
		t.Fatalf("top = %+v", top)
	}
	// Equal scores tie-break on the faster run.
	if top[0].UserID != "c" || top[1].UserID != "b" {
		t.Fatalf("order = %q, %q", top[0].UserID, top[1].UserID)
	}
}

func TestAdminSessionExpiry(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	if err := store.CreateAdmin(ctx, "admin", "hash"); err != nil {
		t.Fatal(err)
	}
	id, _, err := store.AdminByUsername(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.CreateAdminSession(ctx, "live", id, time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateAdminSession(ctx, "stale", id, time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	sess, err := store.AdminFromSession(ctx, "live")
	if err != nil || sess.Username != "admin" {
		t.Fatalf("live session: (%+v, %v)", sess, err)
	}
	if _, err := store.AdminFromSession(ctx, "stale"); !errors.Is(err, errNoAdminSession) {
		t.Fatalf("expected expired session rejection, got %v", err)
	}
	if _, err := store.AdminFromSession(ctx, "unknown"); !errors.Is(err, errNoAdminSession) {
		t.Fatalf("expected unknown session rejection, got %v", err)
	}

	if err := store.DeleteAdminSession(ctx, "live"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AdminFromSession(ctx, "live"); !errors.Is(err, errNoAdminSession) {
		t.Fatalf("expected deleted session rejection, got %v", err)
	}
}
