package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/user"
)

const userColumns = "id, username, email, role, created_at"

type userRow struct {
	ID        string      `db:"id"`
	Username  string      `db:"username"`
	Email     null.String `db:"email"`
	Role      string      `db:"role"`
	CreatedAt int64       `db:"created_at"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email.String,
		Role:      user.Role(r.Role),
		CreatedAt: fromMillis(r.CreatedAt),
	}
}

func usernameKey(uname string) string {
	return core.CleanString(uname, true /* lower */)
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := repo.db.Rebind(`INSERT INTO users (id, username, username_key, email, role, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := repo.db.ExecContext(ctx, q,
		usr.ID,
		usr.Username,
		usernameKey(usr.Username),
		null.NewString(usr.Email, usr.Email != ""),
		string(usr.Role),
		toMillis(usr.CreatedAt),
	)
	if isUniqueViolation(err) {
		return user.User{}, user.ErrUsernameExists
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+userColumns+" FROM users ORDER BY created_at, id"); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) get(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var row userRow
	q := repo.db.Rebind("SELECT " + userColumns + " FROM users WHERE " + where)
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		return user.User{}, trapNoRowsErr(errors.Wrap(err, "selecting user"), user.ErrNotFound)
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.get(ctx, "id = ?", id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.get(ctx, "username_key = ?", usernameKey(username))
}
