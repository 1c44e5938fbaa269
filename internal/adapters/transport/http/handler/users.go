package handler

import (
	"net/http"

	"github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/transport/http/router"
	appsvc "github.com/Miraines/MoonyAndStarry/records-api/internal/app/auth/service"
	"go.uber.org/zap"
)

type Users struct {
	svc appsvc.Service
	log *zap.Logger
}

func NewUsers(svc appsvc.Service, log *zap.Logger) *Users {
	return &Users{svc: svc, log: log}
}

func (u *Users) Methods() router.Methods {
	return router.Methods{
		"post":   router.HandlerFunc(u.Post),
		"get":    router.HandlerFunc(u.Get),
		"put":    router.HandlerFunc(u.Put),
		"delete": router.HandlerFunc(u.Delete),
	}
}

// Post creates a user. Required: firstName, lastName, phone, password,
// tosAgreement.
func (u *Users) Post(r *router.Request) router.Response {
	var body dto.CreateUserDTO
	if err := bind(r.Payload, &body); err != nil {
		return handleError(u.log, r, err, messages{})
	}
	if err := u.svc.CreateUser(r.Context(), body); err != nil {
		return handleError(u.log, r, err, messages{internal: "Could not create the new user"})
	}
	return ok(nil)
}

// Get returns the caller's own user record without the password hash.
func (u *Users) Get(r *router.Request) router.Response {
	var q dto.GetUserDTO
	if err := bind(queryMap(r), &q); err != nil {
		return handleError(u.log, r, err, messages{})
	}
	q.Token = bearer(r)

	user, err := u.svc.GetUser(r.Context(), q)
	if err != nil {
		return handleError(u.log, r, err, messages{
			notFoundStatus: http.StatusNotFound,
			internal:       "Could not read the user",
		})
	}
	return ok(user)
}

// Put updates any of firstName, lastName, password for the user at phone.
func (u *Users) Put(r *router.Request) router.Response {
	var body dto.UpdateUserDTO
	if err := bind(r.Payload, &body); err != nil {
		return handleError(u.log, r, err, messages{})
	}
	body.Token = bearer(r)

	if err := u.svc.UpdateUser(r.Context(), body); err != nil {
		return handleError(u.log, r, err, messages{
			notFoundStatus: http.StatusBadRequest,
			notFound:       "The specified user does not exist",
			internal:       "Could not update the user",
		})
	}
	return ok(nil)
}

func (u *Users) Delete(r *router.Request) router.Response {
	var q dto.DeleteUserDTO
	if err := bind(queryMap(r), &q); err != nil {
		return handleError(u.log, r, err, messages{})
	}
	q.Token = bearer(r)

	if err := u.svc.DeleteUser(r.Context(), q); err != nil {
		return handleError(u.log, r, err, messages{
			notFoundStatus: http.StatusBadRequest,
			notFound:       "Could not find the specified user",
			internal:       "Could not delete the specified user",
		})
	}
	return ok(nil)
}
