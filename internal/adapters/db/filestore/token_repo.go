package filestore

import (
	"context"

	"github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/model"
)

type TokenRepo struct {
	store *Store
}

func NewTokenRepo(store *Store) *TokenRepo {
	return &TokenRepo{store: store}
}

func (r *TokenRepo) CreateToken(ctx context.Context, t model.Token) error {
	return r.store.Create(ctx, model.TokensCollection, t.ID, t)
}

func (r *TokenRepo) GetToken(ctx context.Context, id string) (model.Token, error) {
	var t model.Token
	if err := r.store.Read(ctx, model.TokensCollection, id, &t); err != nil {
		return model.Token{}, err
	}
	return t, nil
}

func (r *TokenRepo) UpdateToken(ctx context.Context, t model.Token) error {
	return r.store.Update(ctx, model.TokensCollection, t.ID, t)
}

func (r *TokenRepo) DeleteToken(ctx context.Context, id string) error {
	return r.store.Delete(ctx, model.TokensCollection, id)
}
