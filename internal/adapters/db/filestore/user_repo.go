package filestore

import (
	"context"

	"github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/model"
)

type UserRepo struct {
	store *Store
}

func NewUserRepo(store *Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) CreateUser(ctx context.Context, u model.User) error {
	return r.store.Create(ctx, model.UsersCollection, u.Phone, u)
}

func (r *UserRepo) GetUser(ctx context.Context, phone string) (model.User, error) {
	var u model.User
	if err := r.store.Read(ctx, model.UsersCollection, phone, &u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepo) UpdateUser(ctx context.Context, u model.User) error {
	return r.store.Update(ctx, model.UsersCollection, u.Phone, u)
}

func (r *UserRepo) DeleteUser(ctx context.Context, phone string) error {
	return r.store.Delete(ctx, model.UsersCollection, phone)
}
