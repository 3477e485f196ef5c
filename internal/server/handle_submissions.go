package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yamanavi/mountainquiz/internal/mountain"
)

// SubmissionRequest is the request body for POST /api/submissions.
type SubmissionRequest struct {
	Name        string `json:"name"`
	NameKana    string `json:"nameKana"`
	Elevation   *int   `json:"elevation"`
	Location    string `json:"location"`
	Description string `json:"description"`
	PhotoURL    string `json:"photoUrl"`
	AddedBy     string `json:"addedBy"`
}

// SubmissionResponse acknowledges a stored submission.
type SubmissionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func handleCreateSubmission(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmissionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if req.Elevation != nil && (*req.Elevation < mountain.MinElevation || *req.Elevation > mountain.MaxElevation) {
			writeError(w, http.StatusBadRequest, "elevation out of range")
			return
		}

		sub := mountain.Submission{
			ID:          uuid.NewString(),
			Name:        req.Name,
			NameKana:    strings.TrimSpace(req.NameKana),
			Elevation:   req.Elevation,
			Location:    strings.TrimSpace(req.Location),
			Description: strings.TrimSpace(req.Description),
			PhotoURL:    strings.TrimSpace(req.PhotoURL),
			AddedBy:     strings.TrimSpace(req.AddedBy),
		}
		if err := store.CreateSubmission(r.Context(), sub); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, SubmissionResponse{ID: sub.ID, Status: StatusPending})
	}
}
