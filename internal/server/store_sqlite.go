package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yamanavi/mountainquiz/internal/mountain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const submissionColumns = `id, name, name_kana, elevation, location, description, photo_url, added_by, status, created_at`

func scanSubmission(row interface{ Scan(...any) error }) (mountain.Submission, error) {
	var sub mountain.Submission
	var elevation sql.NullInt64
	var status string
	err := row.Scan(&sub.ID, &sub.Name, &sub.NameKana, &elevation, &sub.Location,
		&sub.Description, &sub.PhotoURL, &sub.AddedBy, &status, &sub.CreatedAt)
	if err != nil {
		return sub, err
	}
	if elevation.Valid {
		e := int(elevation.Int64)
		sub.Elevation = &e
	}
	sub.Approved = status == StatusApproved
	return sub, nil
}

func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub mountain.Submission) error {
	var elevation sql.NullInt64
	if sub.Elevation != nil {
		elevation = sql.NullInt64{Int64: int64(*sub.Elevation), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, name, name_kana, elevation, location, description, photo_url, added_by, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.Name, sub.NameKana, elevation, sub.Location, sub.Description,
		sub.PhotoURL, sub.AddedBy, StatusPending)
	return err
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (mountain.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+submissionColumns+` FROM submissions WHERE id = ?
	`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return mountain.Submission{}, mountain.ErrNotFound
	}
	return sub, err
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, status string, limit int) ([]mountain.Submission, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE status = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func (s *SQLiteStore) SetSubmissionStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET status = ?, reviewed_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mountain.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListApproved(ctx context.Context, limit int) ([]mountain.Submission, error) {
	return s.ListSubmissions(ctx, StatusApproved, limit)
}

// Find matches any-status submissions by exact id, then by exact name, so
// the moderation flow and by-id lookup can both reach pending entries.
func (s *SQLiteStore) Find(ctx context.Context, idOrName string) (mountain.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE id = ? OR name = ?
		ORDER BY CASE WHEN id = ? THEN 0 ELSE 1 END
		LIMIT 1
	`, idOrName, idOrName, idOrName)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return mountain.Submission{}, mountain.ErrNotFound
	}
	return sub, err
}

func collectSubmissions(rows *sql.Rows) ([]mountain.Submission, error) {
	var subs []mountain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLiteStore) BestScore(ctx context.Context, userID string) (mountain.ScoreRecord, error) {
	var rec mountain.ScoreRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, display_name, score, total_time_ms
		FROM quiz_scores WHERE user_id = ?
	`, userID).Scan(&rec.UserID, &rec.DisplayName, &rec.Score, &rec.TotalTimeMs)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, mountain.ErrNotFound
	}
	return rec, err
}

// UpsertBestScore stores rec when it strictly beats the existing entry. An
// earlier anonymous entry under the same display name is adopted: its row is
// rewritten to the authenticated user id so the player keeps their record.
func (s *SQLiteStore) UpsertBestScore(ctx context.Context, rec mountain.ScoreRecord) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var existingID string
	var existingScore int
	err = tx.QueryRowContext(ctx, `
		SELECT user_id, score FROM quiz_scores WHERE user_id = ?
	`, rec.UserID).Scan(&existingID, &existingScore)
	if errors.Is(err, sql.ErrNoRows) {
		// No direct row; an anonymous record under the same display name is
		// treated as the same player's.
		err = tx.QueryRowContext(ctx, `
			SELECT user_id, score FROM quiz_scores
			WHERE display_name = ? AND user_id LIKE 'anon-%'
		`, rec.DisplayName).Scan(&existingID, &existingScore)
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO quiz_scores (user_id, display_name, score, total_time_ms)
			VALUES (?, ?, ?, ?)
		`, rec.UserID, rec.DisplayName, rec.Score, rec.TotalTimeMs)
		if err != nil {
			return false, err
		}
		return true, tx.Commit()
	case err != nil:
		return false, err
	}

	if rec.Score <= existingScore {
		return false, nil
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE quiz_scores
		SET user_id = ?, display_name = ?, score = ?, total_time_ms = ?,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE user_id = ?
	`, rec.UserID, rec.DisplayName, rec.Score, rec.TotalTimeMs, existingID)
	if err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (s *SQLiteStore) TopScores(ctx context.Context, limit int) ([]mountain.ScoreRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, display_name, score, total_time_ms
		FROM quiz_scores
		ORDER BY score DESC, total_time_ms ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []mountain.ScoreRecord
	for rows.Next() {
		var rec mountain.ScoreRecord
		if err := rows.Scan(&rec.UserID, &rec.DisplayName, &rec.Score, &rec.TotalTimeMs); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) AdminByUsername(ctx context.Context, username string) (int64, string, error) {
	var id int64
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE username = ?
	`, username).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", mountain.ErrNotFound
	}
	return id, hash, err
}

func (s *SQLiteStore) CreateAdmin(ctx context.Context, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (username, password_hash) VALUES (?, ?)
	`, username, passwordHash)
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count)
	return count, err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, token string, adminID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (token, admin_id, expires_at) VALUES (?, ?, ?)
	`, token, adminID, expiresAt.UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, token string) (adminSession, error) {
	var sess adminSession
	var expiresAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.username, s.expires_at
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.token = ?
	`, token).Scan(&sess.AdminID, &sess.Username, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	if err != nil {
		return adminSession{}, err
	}
	exp, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil || time.Now().After(exp) {
		s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE token = ?`, token)
		return adminSession{}, errNoAdminSession
	}
	return sess, nil
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE token = ?`, token)
	return err
}
