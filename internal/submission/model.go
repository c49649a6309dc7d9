// Package submission provides the community venue submission workflow:
// users propose venues, reviewers approve them into the catalog or
// reject them with a note.
package submission

import (
	"errors"
	"time"

	"github.com/lastcall-app/lastcall/internal/venue"
)

// Status is the review state of a submission.
type Status string

// Review states. A submission starts pending; approve and reject are
// terminal.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known review state.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Common errors for submission operations.
var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNotPending         = errors.New("submission is not pending review")
)

// Submission is a user-proposed venue awaiting community review.
// The proposed venue attributes are embedded; on approval they become a
// catalog venue verbatim.
type Submission struct {
	ID          string      `json:"id"`
	SubmitterID string      `json:"submitter_id"`
	Venue       venue.Venue `json:"venue"`
	Status      Status      `json:"status"`

	// ReviewerID and ReviewNote are set when the submission leaves pending.
	ReviewerID string `json:"reviewer_id,omitempty"`
	ReviewNote string `json:"review_note,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}
