package grade

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/user"
)

var ErrNotFound = core.NewError(core.KindNotFound, "grade not found")

type Repository interface {
	// UpsertGrade stores g keyed by (DeliverableID, EvaluatorID) in one atomic step.
	// An existing record keeps its ID and CreatedAt; only Value and UpdatedAt change.
	UpsertGrade(ctx context.Context, g Grade) (Grade, error)
	GetGrade(ctx context.Context, deliverableID, evaluatorID string) (Grade, error)
	QueryGradesByDeliverable(ctx context.Context, deliverableID string) ([]Grade, error)
	QueryAllGrades(ctx context.Context) ([]Grade, error)
}

// Ledger records the grades of jurors.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// SubmitOrUpdate creates or overwrites the evaluator's grade of d.
// The checks run in order: jury membership, edit window, value.
func (l *Ledger) SubmitOrUpdate(ctx context.Context, d deliverable.Deliverable, evaluator user.User, raw string, now time.Time) (Grade, error) {
	if !d.HasJuror(evaluator.ID) {
		return Grade{}, core.ErrNotJuror
	}
	if !d.CanEdit(now) {
		return Grade{}, core.ErrEditWindowClosed
	}
	v, err := ParseValue(raw)
	if err != nil {
		return Grade{}, err
	}
	v = Normalize(v)
	if err := ValidateValue(v); err != nil {
		return Grade{}, err
	}
	return l.repo.UpsertGrade(ctx, Grade{
		ID:            uuid.New().String(),
		DeliverableID: d.ID,
		EvaluatorID:   evaluator.ID,
		Value:         v,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}
