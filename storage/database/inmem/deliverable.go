package inmemdb

import (
	"context"

	"github.com/trezcool/juror/core/deliverable"
	"github.com/trezcool/juror/core/project"
)

type deliverableRepository struct {
	db *DB
}

var _ deliverable.Repository = (*deliverableRepository)(nil) // interface compliance check

func NewDeliverableRepository(db *DB) *deliverableRepository {
	return &deliverableRepository{db: db}
}

func copyDeliverable(d deliverable.Deliverable) deliverable.Deliverable {
	d.JuryIDs = append([]string(nil), d.JuryIDs...)
	return d
}

func (repo *deliverableRepository) query(match func(d *deliverable.Deliverable) bool) []deliverable.Deliverable {
	ds := make([]deliverable.Deliverable, 0)
	for _, id := range repo.db.deliverableIDs {
		if d := repo.db.deliverables[id]; match(d) {
			ds = append(ds, copyDeliverable(*d))
		}
	}
	return ds
}

func (repo *deliverableRepository) CreateDeliverable(_ context.Context, d deliverable.Deliverable) (deliverable.Deliverable, error) {
	err := repo.db.commit(func() error {
		if _, ok := repo.db.projects[d.ProjectID]; !ok {
			return project.ErrNotFound
		}
		rec := copyDeliverable(d)
		repo.db.deliverables[d.ID] = &rec
		repo.db.deliverableIDs = append(repo.db.deliverableIDs, d.ID)
		return nil
	})
	if err != nil {
		return deliverable.Deliverable{}, err
	}
	return copyDeliverable(d), nil
}

func (repo *deliverableRepository) GetDeliverableByID(_ context.Context, id string) (deliverable.Deliverable, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if d, ok := repo.db.deliverables[id]; ok {
		return copyDeliverable(*d), nil
	}
	return deliverable.Deliverable{}, deliverable.ErrNotFound
}

func (repo *deliverableRepository) QueryDeliverablesByProject(_ context.Context, projectID string) ([]deliverable.Deliverable, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(func(d *deliverable.Deliverable) bool { return d.ProjectID == projectID }), nil
}

func (repo *deliverableRepository) QueryAllDeliverables(context.Context) ([]deliverable.Deliverable, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(func(*deliverable.Deliverable) bool { return true }), nil
}

func (repo *deliverableRepository) UpdateDeliverableLink(_ context.Context, id, link string) (deliverable.Deliverable, error) {
	var updated deliverable.Deliverable
	err := repo.db.commit(func() error {
		d, ok := repo.db.deliverables[id]
		if !ok {
			return deliverable.ErrNotFound
		}
		d.Link = link
		updated = copyDeliverable(*d)
		return nil
	})
	return updated, err
}

func (repo *deliverableRepository) AssignJury(_ context.Context, id string, jurorIDs []string) (deliverable.Deliverable, bool, error) {
	var (
		stored   deliverable.Deliverable
		assigned bool
	)
	err := repo.db.commit(func() error {
		d, ok := repo.db.deliverables[id]
		if !ok {
			return deliverable.ErrNotFound
		}
		if len(d.JuryIDs) == 0 {
			d.JuryIDs = append([]string(nil), jurorIDs...)
			assigned = true
		}
		stored = copyDeliverable(*d)
		return nil
	})
	if err != nil {
		return deliverable.Deliverable{}, false, err
	}
	return stored, assigned, nil
}
