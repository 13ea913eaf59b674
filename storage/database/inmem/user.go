package inmemdb

import (
	"context"

	"github.com/trezcool/juror/core"
	"github.com/trezcool/juror/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.userIDs))
	for _, id := range repo.db.userIDs {
		users = append(users, *repo.db.users[id])
	}
	return users
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	err := repo.db.commit(func() error {
		for _, u := range repo.db.users {
			if core.SameUsername(u.Username, usr.Username) {
				return user.ErrUsernameExists
			}
		}
		rec := usr
		repo.db.users[usr.ID] = &rec
		repo.db.userIDs = append(repo.db.userIDs, usr.ID)
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(context.Context) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if core.SameUsername(usr.Username, username) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}
