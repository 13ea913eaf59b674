package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/juror/core"
)

var (
	// errors
	ErrNotFound       = core.NewError(core.KindNotFound, "user not found")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		// CreateUser fails with ErrUsernameExists when the username is taken, ignoring case.
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		// GetUserByUsername matches the username case-insensitively.
		GetUserByUsername(ctx context.Context, username string) (User, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		now      core.Clock
	}
)

func NewService(repo Repository, validate *validator.Validate, now core.Clock) *Service {
	return &Service{repo: repo, validate: validate, now: now}
}

// Register creates a new user. Identities are caller-asserted: no credential is stored.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.CreateUser(ctx, User{
		ID:        uuid.New().String(),
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: svc.now(),
	})
	if errors.Cause(err) == ErrUsernameExists {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	}
	return usr, err
}

// Login resolves the user asserting the given username.
func (svc *Service) Login(ctx context.Context, uname string) (User, error) {
	usr, err := svc.GetByUsername(ctx, uname)
	if errors.Is(err, core.ErrNotFound) {
		return User{}, core.NewError(core.KindNotFound, "no user with this username, please register first")
	}
	return usr, err
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname))
}
