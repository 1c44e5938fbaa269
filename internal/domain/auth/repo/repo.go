package repo

import (
	"context"

	"github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) error

	GetUser(ctx context.Context, phone string) (model.User, error)

	UpdateUser(ctx context.Context, u model.User) error

	DeleteUser(ctx context.Context, phone string) error
}

type TokenRepo interface {
	CreateToken(ctx context.Context, t model.Token) error

	GetToken(ctx context.Context, id string) (model.Token, error)

	UpdateToken(ctx context.Context, t model.Token) error

	DeleteToken(ctx context.Context, id string) error
}
