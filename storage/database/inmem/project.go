package inmemdb

import (
	"context"

	"github.com/trezcool/juror/core/project"
)

type projectRepository struct {
	db *DB
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *DB) *projectRepository {
	return &projectRepository{db: db}
}

func copyProject(p project.Project) project.Project {
	p.TeamUsernames = append([]string(nil), p.TeamUsernames...)
	return p
}

func (repo *projectRepository) CreateProject(_ context.Context, p project.Project) (project.Project, error) {
	err := repo.db.commit(func() error {
		rec := copyProject(p)
		repo.db.projects[p.ID] = &rec
		repo.db.projectIDs = append(repo.db.projectIDs, p.ID)
		return nil
	})
	if err != nil {
		return project.Project{}, err
	}
	return copyProject(p), nil
}

func (repo *projectRepository) GetProjectByID(_ context.Context, id string) (project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.projects[id]; ok {
		return copyProject(*p), nil
	}
	return project.Project{}, project.ErrNotFound
}

func (repo *projectRepository) QueryAllProjects(context.Context) ([]project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	projects := make([]project.Project, 0, len(repo.db.projectIDs))
	for _, id := range repo.db.projectIDs {
		projects = append(projects, copyProject(*repo.db.projects[id]))
	}
	return projects, nil
}
