package deliverable

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/juror/core"
)

// Deliverable is a gradable submission of a project.
// JuryIDs is never serialized: jurors stay anonymous to the team and to supervisors.
type Deliverable struct {
	ID                string    `json:"id"`
	ProjectID         string    `json:"project_id"`
	Title             string    `json:"title"`
	DueAt             time.Time `json:"due_at"` // UTC
	JurySize          int       `json:"jury_size"`
	EditWindowMinutes int       `json:"edit_window_minutes"`
	Link              string    `json:"link"`
	JuryIDs           []string  `json:"-"`
	CreatedAt         time.Time `json:"created_at"` // UTC
}

// EditDeadline is the last instant grades can be submitted or changed.
func (d Deliverable) EditDeadline() time.Time {
	return d.DueAt.Add(time.Duration(d.EditWindowMinutes) * time.Minute)
}

func (d Deliverable) CanEdit(now time.Time) bool { return !now.After(d.EditDeadline()) }
func (d Deliverable) IsDue(now time.Time) bool   { return !now.Before(d.DueAt) }
func (d Deliverable) JuryAssigned() bool         { return len(d.JuryIDs) > 0 }
func (d Deliverable) RequestedJurySize() int     { return d.JurySize }

func (d Deliverable) HasJuror(userID string) bool {
	for _, id := range d.JuryIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// NewDeliverable contains information needed to create a new Deliverable.
type NewDeliverable struct {
	Title             string    `json:"title" validate:"notblank,max=120"`
	DueAt             time.Time `json:"due_at" validate:"required"`
	JurySize          int       `json:"jury_size" validate:"min=3,max=50"`
	EditWindowMinutes int       `json:"edit_window_minutes" validate:"min=1"`
	Link              string    `json:"link" validate:"omitempty,url"`
}

func (nd *NewDeliverable) Validate(validate *validator.Validate) error {
	nd.Title = core.CleanString(nd.Title)
	nd.Link = core.CleanString(nd.Link)
	nd.DueAt = nd.DueAt.UTC().Truncate(time.Millisecond)
	return validate.Struct(nd)
}
