package project

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewError(core.KindNotFound, "project not found")
	ErrNotStudent    = core.NewError(core.KindNotAuthorized, "only students can create projects")
	ErrNotSupervisor = core.NewError(core.KindNotAuthorized, "only supervisors can list all projects")
	ErrCreatorNotIn  = errors.New("your username must be included in the team")
)

type (
	Repository interface {
		CreateProject(ctx context.Context, p Project) (Project, error)
		GetProjectByID(ctx context.Context, id string) (Project, error)
		QueryAllProjects(ctx context.Context) ([]Project, error)
	}

	// UserGetter resolves team members.
	UserGetter interface {
		GetByUsername(ctx context.Context, uname string) (user.User, error)
	}

	Service struct {
		repo     Repository
		users    UserGetter
		validate *validator.Validate
		now      core.Clock
	}
)

func NewService(repo Repository, users UserGetter, validate *validator.Validate, now core.Clock) *Service {
	return &Service{repo: repo, users: users, validate: validate, now: now}
}

// Create registers a project owned by the given team. The team is fixed from then on.
func (svc *Service) Create(ctx context.Context, caller user.User, np NewProject) (Project, error) {
	if !caller.IsStudent() {
		return Project{}, ErrNotStudent
	}
	if err := np.Validate(svc.validate); err != nil {
		return Project{}, err
	}
	if !core.ContainsUsername(np.Team, caller.Username) {
		return Project{}, core.NewValidationError(ErrCreatorNotIn, core.FieldError{Field: "team", Error: ErrCreatorNotIn.Error()})
	}

	team := make([]string, 0, len(np.Team))
	for _, uname := range np.Team {
		member, err := svc.users.GetByUsername(ctx, uname)
		switch {
		case errors.Is(err, core.ErrNotFound):
			return Project{}, teamError("%q is not a registered user", uname)
		case err != nil:
			return Project{}, errors.Wrap(err, "resolving team")
		case !member.IsStudent():
			return Project{}, teamError("%q is not a student", member.Username)
		}
		team = append(team, member.Username)
	}

	return svc.repo.CreateProject(ctx, Project{
		ID:            uuid.New().String(),
		Title:         np.Title,
		TeamUsernames: team,
		CreatedBy:     caller.ID,
		CreatedAt:     svc.now(),
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Project, error) {
	return svc.repo.GetProjectByID(ctx, id)
}

// ListForMember returns the projects whose team includes the caller.
func (svc *Service) ListForMember(ctx context.Context, caller user.User) ([]Project, error) {
	all, err := svc.repo.QueryAllProjects(ctx)
	if err != nil {
		return nil, err
	}
	projects := make([]Project, 0)
	for _, p := range all {
		if p.HasMember(caller.Username) {
			projects = append(projects, p)
		}
	}
	return projects, nil
}

func (svc *Service) ListAll(ctx context.Context, caller user.User) ([]Project, error) {
	if !caller.IsSupervisor() {
		return nil, ErrNotSupervisor
	}
	return svc.repo.QueryAllProjects(ctx)
}

func teamError(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: "team", Error: msg})
}
