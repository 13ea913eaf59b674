package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/juror/core/project"
)

const projectColumns = "id, title, team_usernames, created_by, created_at"

type projectRow struct {
	ID            string `db:"id"`
	Title         string `db:"title"`
	TeamUsernames string `db:"team_usernames"` // JSON array
	CreatedBy     string `db:"created_by"`
	CreatedAt     int64  `db:"created_at"`
}

func (r projectRow) toProject() (project.Project, error) {
	team, err := decodeIDs(r.TeamUsernames)
	if err != nil {
		return project.Project{}, err
	}
	return project.Project{
		ID:            r.ID,
		Title:         r.Title,
		TeamUsernames: team,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     fromMillis(r.CreatedAt),
	}, nil
}

type projectRepository struct {
	db *sqlx.DB
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(db *sqlx.DB) *projectRepository {
	return &projectRepository{db: db}
}

func (repo *projectRepository) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	team, err := encodeIDs(p.TeamUsernames)
	if err != nil {
		return project.Project{}, err
	}
	q := repo.db.Rebind(`INSERT INTO projects (id, title, team_usernames, created_by, created_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err = repo.db.ExecContext(ctx, q, p.ID, p.Title, team, p.CreatedBy, toMillis(p.CreatedAt)); err != nil {
		return project.Project{}, errors.Wrap(err, "inserting project")
	}
	return repo.GetProjectByID(ctx, p.ID)
}

func (repo *projectRepository) GetProjectByID(ctx context.Context, id string) (project.Project, error) {
	var row projectRow
	q := repo.db.Rebind("SELECT " + projectColumns + " FROM projects WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return project.Project{}, trapNoRowsErr(errors.Wrap(err, "selecting project"), project.ErrNotFound)
	}
	return row.toProject()
}

func (repo *projectRepository) QueryAllProjects(ctx context.Context) ([]project.Project, error) {
	var rows []projectRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+projectColumns+" FROM projects ORDER BY created_at, id"); err != nil {
		return nil, errors.Wrap(err, "selecting projects")
	}
	projects := make([]project.Project, 0, len(rows))
	for _, r := range rows {
		p, err := r.toProject()
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}
