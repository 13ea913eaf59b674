package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/juror/core/grade"
)

const gradeColumns = "id, deliverable_id, evaluator_id, value, created_at, updated_at"

type gradeRow struct {
	ID            string  `db:"id"`
	DeliverableID string  `db:"deliverable_id"`
	EvaluatorID   string  `db:"evaluator_id"`
	Value         float64 `db:"value"`
	CreatedAt     int64   `db:"created_at"`
	UpdatedAt     int64   `db:"updated_at"`
}

func (r gradeRow) toGrade() grade.Grade {
	return grade.Grade{
		ID:            r.ID,
		DeliverableID: r.DeliverableID,
		EvaluatorID:   r.EvaluatorID,
		Value:         r.Value,
		CreatedAt:     fromMillis(r.CreatedAt),
		UpdatedAt:     fromMillis(r.UpdatedAt),
	}
}

func toGrades(rows []gradeRow) []grade.Grade {
	grades := make([]grade.Grade, 0, len(rows))
	for _, r := range rows {
		grades = append(grades, r.toGrade())
	}
	return grades
}

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

// UpsertGrade relies on the (deliverable_id, evaluator_id) unique key: a second submission
// only rewrites value and updated_at.
func (repo *gradeRepository) UpsertGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := tx.Rebind(`INSERT INTO grades (` + gradeColumns + `) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (deliverable_id, evaluator_id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	_, err = tx.ExecContext(ctx, q, g.ID, g.DeliverableID, g.EvaluatorID, g.Value, toMillis(g.CreatedAt), toMillis(g.UpdatedAt))
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "upserting grade")
	}

	var row gradeRow
	q = tx.Rebind("SELECT " + gradeColumns + " FROM grades WHERE deliverable_id = ? AND evaluator_id = ?")
	if err = tx.GetContext(ctx, &row, q, g.DeliverableID, g.EvaluatorID); err != nil {
		return grade.Grade{}, errors.Wrap(err, "selecting grade")
	}
	if err = tx.Commit(); err != nil {
		return grade.Grade{}, errors.Wrap(err, "committing grade")
	}
	return row.toGrade(), nil
}

func (repo *gradeRepository) GetGrade(ctx context.Context, deliverableID, evaluatorID string) (grade.Grade, error) {
	var row gradeRow
	q := repo.db.Rebind("SELECT " + gradeColumns + " FROM grades WHERE deliverable_id = ? AND evaluator_id = ?")
	if err := repo.db.GetContext(ctx, &row, q, deliverableID, evaluatorID); err != nil {
		return grade.Grade{}, trapNoRowsErr(errors.Wrap(err, "selecting grade"), grade.ErrNotFound)
	}
	return row.toGrade(), nil
}

func (repo *gradeRepository) QueryGradesByDeliverable(ctx context.Context, deliverableID string) ([]grade.Grade, error) {
	var rows []gradeRow
	q := repo.db.Rebind("SELECT " + gradeColumns + " FROM grades WHERE deliverable_id = ? ORDER BY created_at, id")
	if err := repo.db.SelectContext(ctx, &rows, q, deliverableID); err != nil {
		return nil, errors.Wrap(err, "selecting grades")
	}
	return toGrades(rows), nil
}

func (repo *gradeRepository) QueryAllGrades(ctx context.Context) ([]grade.Grade, error) {
	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+gradeColumns+" FROM grades ORDER BY created_at, id"); err != nil {
		return nil, errors.Wrap(err, "selecting grades")
	}
	return toGrades(rows), nil
}
