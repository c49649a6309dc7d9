package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lastcall-app/lastcall/internal/middleware"
	"github.com/lastcall-app/lastcall/internal/submission"
	"github.com/lastcall-app/lastcall/internal/validate"
	"github.com/lastcall-app/lastcall/internal/venue"
)

// SubmissionHandlers holds dependencies for submission HTTP handlers.
type SubmissionHandlers struct {
	submissionRepo submission.Repository
	venueRepo      venue.Repository
}

// NewSubmissionHandlers creates a new SubmissionHandlers instance.
func NewSubmissionHandlers(submissionRepo submission.Repository, venueRepo venue.Repository) *SubmissionHandlers {
	return &SubmissionHandlers{
		submissionRepo: submissionRepo,
		venueRepo:      venueRepo,
	}
}

// CreateSubmissionRequest is the payload for POST /submissions: the
// proposed venue's attributes.
type CreateSubmissionRequest struct {
	Name           string               `json:"name"`
	Description    string               `json:"description,omitempty"`
	Neighborhood   string               `json:"neighborhood,omitempty"`
	MusicGenres    []venue.MusicGenre   `json:"music_genres,omitempty"`
	HasPatio       bool                 `json:"has_patio"`
	HasRooftop     bool                 `json:"has_rooftop"`
	HasDancefloor  bool                 `json:"has_dancefloor"`
	ServesFood     bool                 `json:"serves_food"`
	CapacitySize   venue.CapacitySize   `json:"capacity_size,omitempty"`
	CoverFrequency venue.CoverFrequency `json:"cover_frequency,omitempty"`
	CoverAmount    float64              `json:"cover_amount,omitempty"`
	TypicalVibe    string               `json:"typical_vibe,omitempty"`
	LiveMusicDays  []string             `json:"live_music_days,omitempty"`
}

// RejectSubmissionRequest is the payload for POST /submissions/{id}/reject.
type RejectSubmissionRequest struct {
	Note string `json:"note,omitempty"`
}

// SubmissionListResponse is the payload for GET /submissions.
type SubmissionListResponse struct {
	Submissions []*submission.Submission `json:"submissions"`
	Count       int                      `json:"count"`
}

// CreateSubmission handles POST /submissions - proposes a venue for review.
func (h *SubmissionHandlers) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid request body")
		return
	}

	name, err := validate.VenueName(req.Name)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid venue name: "+err.Error())
		return
	}

	neighborhood := req.Neighborhood
	if neighborhood != "" {
		neighborhood, err = validate.Neighborhood(neighborhood)
		if err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid neighborhood: "+err.Error())
			return
		}
	}

	description, err := validate.Description(req.Description)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid description: "+err.Error())
		return
	}

	sub := &submission.Submission{
		SubmitterID: userID,
		Venue: venue.Venue{
			Name:           name,
			Description:    description,
			Neighborhood:   neighborhood,
			MusicGenres:    req.MusicGenres,
			HasPatio:       req.HasPatio,
			HasRooftop:     req.HasRooftop,
			HasDancefloor:  req.HasDancefloor,
			ServesFood:     req.ServesFood,
			CapacitySize:   req.CapacitySize,
			CoverFrequency: req.CoverFrequency,
			CoverAmount:    req.CoverAmount,
			TypicalVibe:    req.TypicalVibe,
			LiveMusicDays:  req.LiveMusicDays,
		},
	}

	if err := h.submissionRepo.Create(sub); err != nil {
		var attrErr *venue.InvalidAttributeError
		if errors.As(err, &attrErr) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidAttribute)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidAttribute, attrErr.Error())
			return
		}
		slog.ErrorContext(r.Context(), "failed to create submission", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to create submission")
		return
	}

	writeJSON(w, http.StatusCreated, sub)
}

// ListSubmissions handles GET /submissions. With ?status= it lists the
// review queue in that state (oldest first); with ?mine=true it lists the
// caller's own submissions (newest first). Default is the pending queue.
func (h *SubmissionHandlers) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	query := r.URL.Query()

	var (
		submissions []*submission.Submission
		err         error
	)
	if mine := query.Get("mine"); mine == "true" || mine == "1" {
		submissions, err = h.submissionRepo.ListByUser(userID)
	} else {
		status := submission.StatusPending
		if raw := query.Get("status"); raw != "" {
			status = submission.Status(raw)
			if !status.Valid() {
				ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
				WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "status must be pending, approved, or rejected")
				return
			}
		}
		submissions, err = h.submissionRepo.ListByStatus(status)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list submissions", "error", err, "user_id", userID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to list submissions")
		return
	}
	if submissions == nil {
		submissions = []*submission.Submission{}
	}

	writeJSON(w, http.StatusOK, SubmissionListResponse{Submissions: submissions, Count: len(submissions)})
}

// GetSubmission handles GET /submissions/{id}.
func (h *SubmissionHandlers) GetSubmission(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	id, action, ok := parseSubmissionPath(r.URL.Path)
	if !ok || action != "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Submission ID is required")
		return
	}

	sub, err := h.submissionRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, submission.ErrSubmissionNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Submission not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get submission", "error", err, "submission_id", id)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to get submission")
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

// ApproveSubmission handles POST /submissions/{id}/approve - accepts a
// pending submission and creates the venue in the catalog.
func (h *SubmissionHandlers) ApproveSubmission(w http.ResponseWriter, r *http.Request) {
	reviewerID := middleware.GetUserID(r.Context())
	if reviewerID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	id, action, ok := parseSubmissionPath(r.URL.Path)
	if !ok || action != "approve" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Submission ID is required")
		return
	}

	sub, err := h.submissionRepo.GetByID(id)
	if err != nil {
		h.writeReviewLookupError(w, r, err, id)
		return
	}

	// Submitters cannot review their own submissions.
	if sub.SubmitterID == reviewerID {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeForbidden)
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "You cannot review your own submission")
		return
	}

	approved, err := h.submissionRepo.Approve(id, reviewerID)
	if err != nil {
		h.writeReviewError(w, r, err, id)
		return
	}

	// Approval promotes the proposed attributes into the catalog verbatim.
	v := approved.Venue
	if err := h.venueRepo.Create(&v); err != nil {
		slog.ErrorContext(r.Context(), "failed to create venue from approved submission", "error", err, "submission_id", id)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to create venue from submission")
		return
	}
	approved.Venue = v

	writeJSON(w, http.StatusOK, approved)
}

// RejectSubmission handles POST /submissions/{id}/reject.
func (h *SubmissionHandlers) RejectSubmission(w http.ResponseWriter, r *http.Request) {
	reviewerID := middleware.GetUserID(r.Context())
	if reviewerID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	id, action, ok := parseSubmissionPath(r.URL.Path)
	if !ok || action != "reject" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Submission ID is required")
		return
	}

	var req RejectSubmissionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid request body")
			return
		}
	}

	note, err := validate.ReviewNote(req.Note)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "Invalid review note: "+err.Error())
		return
	}

	sub, err := h.submissionRepo.GetByID(id)
	if err != nil {
		h.writeReviewLookupError(w, r, err, id)
		return
	}

	if sub.SubmitterID == reviewerID {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeForbidden)
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "You cannot review your own submission")
		return
	}

	rejected, err := h.submissionRepo.Reject(id, reviewerID, note)
	if err != nil {
		h.writeReviewError(w, r, err, id)
		return
	}

	writeJSON(w, http.StatusOK, rejected)
}

// writeReviewLookupError maps GetByID failures during review.
func (h *SubmissionHandlers) writeReviewLookupError(w http.ResponseWriter, r *http.Request, err error, id string) {
	if errors.Is(err, submission.ErrSubmissionNotFound) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Submission not found")
		return
	}
	slog.ErrorContext(r.Context(), "failed to get submission for review", "error", err, "submission_id", id)
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
	WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to review submission")
}

// writeReviewError maps Approve/Reject failures.
func (h *SubmissionHandlers) writeReviewError(w http.ResponseWriter, r *http.Request, err error, id string) {
	switch {
	case errors.Is(err, submission.ErrSubmissionNotFound):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Submission not found")
	case errors.Is(err, submission.ErrNotPending):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotPending)
		WriteError(w, ctx, http.StatusConflict, ErrCodeNotPending, "Submission has already been reviewed")
	default:
		slog.ErrorContext(r.Context(), "failed to review submission", "error", err, "submission_id", id)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to review submission")
	}
}

// parseSubmissionPath splits /submissions/{id} or /submissions/{id}/{action}
// into its ID and optional action segment.
func parseSubmissionPath(path string) (id, action string, ok bool) {
	rest := strings.TrimPrefix(path, "/submissions/")
	if rest == path || rest == "" {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	switch len(parts) {
	case 1:
		return parts[0], "", parts[0] != ""
	case 2:
		return parts[0], parts[1], parts[0] != "" && parts[1] != ""
	default:
		return "", "", false
	}
}
