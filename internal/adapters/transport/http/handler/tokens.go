package handler

import (
	"net/http"

	"github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/transport/http/router"
	appsvc "github.com/Miraines/MoonyAndStarry/records-api/internal/app/auth/service"
	"go.uber.org/zap"
)

type Tokens struct {
	svc appsvc.Service
	log *zap.Logger
}

func NewTokens(svc appsvc.Service, log *zap.Logger) *Tokens {
	return &Tokens{svc: svc, log: log}
}

func (t *Tokens) Methods() router.Methods {
	return router.Methods{
		"post":   router.HandlerFunc(t.Post),
		"get":    router.HandlerFunc(t.Get),
		"put":    router.HandlerFunc(t.Put),
		"delete": router.HandlerFunc(t.Delete),
	}
}

// Post logs a user in and returns a fresh token.
func (t *Tokens) Post(r *router.Request) router.Response {
	var body dto.LoginDTO
	if err := bind(r.Payload, &body); err != nil {
		return handleError(t.log, r, err, messages{})
	}
	tok, err := t.svc.Login(r.Context(), body)
	if err != nil {
		return handleError(t.log, r, err, messages{internal: "Could not create the new token"})
	}
	return ok(tok)
}

func (t *Tokens) Get(r *router.Request) router.Response {
	var q dto.TokenIDDTO
	if err := bind(queryMap(r), &q); err != nil {
		return handleError(t.log, r, err, messages{})
	}
	tok, err := t.svc.GetToken(r.Context(), q)
	if err != nil {
		return handleError(t.log, r, err, messages{
			notFoundStatus: http.StatusNotFound,
			internal:       "Could not read the token",
		})
	}
	return ok(tok)
}

// Put extends a live token by another TTL. Required: id, extend=true.
func (t *Tokens) Put(r *router.Request) router.Response {
	var body dto.ExtendTokenDTO
	if err := bind(r.Payload, &body); err != nil {
		return handleError(t.log, r, err, messages{})
	}
	tok, err := t.svc.Extend(r.Context(), body)
	if err != nil {
		return handleError(t.log, r, err, messages{
			notFoundStatus: http.StatusBadRequest,
			notFound:       "Specified token does not exist",
			internal:       "Could not update the token's expiration",
		})
	}
	return ok(tok)
}

func (t *Tokens) Delete(r *router.Request) router.Response {
	var q dto.TokenIDDTO
	if err := bind(queryMap(r), &q); err != nil {
		return handleError(t.log, r, err, messages{})
	}
	if err := t.svc.DeleteToken(r.Context(), q); err != nil {
		return handleError(t.log, r, err, messages{
			notFoundStatus: http.StatusBadRequest,
			notFound:       "Could not find the specified token",
			internal:       "Could not delete the specified token",
		})
	}
	return ok(nil)
}
