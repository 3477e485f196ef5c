package server

import (
	"context"
	"time"

	"github.com/yamanavi/mountainquiz/internal/mountain"
)

// SubmissionStatus values for the moderation workflow.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type adminSession struct {
	AdminID  int64
	Username string
}

// Store is the persistence boundary of the HTTP layer. Lookups that find
// nothing return mountain.ErrNotFound.
type Store interface {
	CreateSubmission(ctx context.Context, sub mountain.Submission) error
	GetSubmission(ctx context.Context, id string) (mountain.Submission, error)
	ListSubmissions(ctx context.Context, status string, limit int) ([]mountain.Submission, error)
	SetSubmissionStatus(ctx context.Context, id, status string) error

	// ListApproved and Find satisfy the search aggregator's submission
	// source: Find matches by exact id first, then by exact name.
	ListApproved(ctx context.Context, limit int) ([]mountain.Submission, error)
	Find(ctx context.Context, idOrName string) (mountain.Submission, error)

	BestScore(ctx context.Context, userID string) (mountain.ScoreRecord, error)
	UpsertBestScore(ctx context.Context, rec mountain.ScoreRecord) (updated bool, err error)
	TopScores(ctx context.Context, limit int) ([]mountain.ScoreRecord, error)

	AdminByUsername(ctx context.Context, username string) (id int64, passwordHash string, err error)
	CreateAdmin(ctx context.Context, username, passwordHash string) error
	CountAdmins(ctx context.Context) (int, error)
	CreateAdminSession(ctx context.Context, token string, adminID int64, expiresAt time.Time) error
	AdminFromSession(ctx context.Context, token string) (adminSession, error)
	DeleteAdminSession(ctx context.Context, token string) error
}
