package inmemdb

import (
	"context"

	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) UpsertGrade(_ context.Context, g grade.Grade) (grade.Grade, error) {
	var stored grade.Grade
	err := repo.db.commit(func() error {
		if _, ok := repo.db.deliverables[g.DeliverableID]; !ok {
			return deliverable.ErrNotFound
		}
		key := gradeKey{g.DeliverableID, g.EvaluatorID}
		if existing, ok := repo.db.grades[key]; ok {
			existing.Value = g.Value
			existing.UpdatedAt = g.UpdatedAt
			stored = *existing
			return nil
		}
		rec := g
		repo.db.grades[key] = &rec
		repo.db.gradeKeys = append(repo.db.gradeKeys, key)
		stored = g
		return nil
	})
	return stored, err
}

func (repo *gradeRepository) GetGrade(_ context.Context, deliverableID, evaluatorID string) (grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.grades[gradeKey{deliverableID, evaluatorID}]; ok {
		return *g, nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) QueryGradesByDeliverable(_ context.Context, deliverableID string) ([]grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grades := make([]grade.Grade, 0)
	for _, key := range repo.db.gradeKeys {
		if key.deliverableID == deliverableID {
			grades = append(grades, *repo.db.grades[key])
		}
	}
	return grades, nil
}

func (repo *gradeRepository) QueryAllGrades(context.Context) ([]grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grades := make([]grade.Grade, 0, len(repo.db.gradeKeys))
	for _, key := range repo.db.gradeKeys {
		grades = append(grades, *repo.db.grades[key])
	}
	return grades, nil
}
