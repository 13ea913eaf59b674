package grade

import (
	"time"

	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/project"
)

// Grade is the value one juror gave to one deliverable.
type Grade struct {
	ID            string    `json:"id"`
	DeliverableID string    `json:"deliverable_id"`
	EvaluatorID   string    `json:"evaluator_id"`
	Value         float64   `json:"value"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// Status is where a deliverable stands in its grading lifecycle.
type Status string

const (
	StatusPending Status = "pending" // not due yet
	StatusGrading Status = "grading" // jurors can submit
	StatusClosed  Status = "closed"  // edit window over
)

func StatusAt(d deliverable.Deliverable, now time.Time) Status {
	switch {
	case !d.IsDue(now):
		return StatusPending
	case d.CanEdit(now):
		return StatusGrading
	default:
		return StatusClosed
	}
}

// Summary is the owner and supervisor view of a deliverable.
// It never tells who the jurors are or who gave which value.
type Summary struct {
	DeliverableID     string    `json:"deliverable_id"`
	ProjectID         string    `json:"project_id"`
	Title             string    `json:"title"`
	Link              string    `json:"link"`
	DueAt             time.Time `json:"due_at"`
	EditDeadline      time.Time `json:"edit_deadline"`
	JurySize          int       `json:"jury_size"`
	JuryCount         int       `json:"jury_count"`
	GradeCount        int       `json:"grade_count"`
	Values            []float64 `json:"values"` // ascending
	Final             *float64  `json:"final"`
	FinalNote         string    `json:"final_note,omitempty"`
	Status            Status    `json:"status"`
	EditWindowMinutes int       `json:"edit_window_minutes"`
}

// JurorTask is the juror's own view of a deliverable they grade.
type JurorTask struct {
	DeliverableID string    `json:"deliverable_id"`
	ProjectTitle  string    `json:"project_title"`
	Title         string    `json:"title"`
	Link          string    `json:"link"`
	DueAt         time.Time `json:"due_at"`
	EditDeadline  time.Time `json:"edit_deadline"`
	CanEdit       bool      `json:"can_edit"`
	Status        Status    `json:"status"`
	MyGrade       *Grade    `json:"my_grade"`
}

// ProjectReport groups the summaries of a project's deliverables.
type ProjectReport struct {
	Project      project.Project `json:"project"`
	Deliverables []Summary       `json:"deliverables"`
}
