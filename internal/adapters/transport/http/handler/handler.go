package handler

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/transport/http/router"
	appsvc "github.com/Miraines/MoonyAndStarry/records-api/internal/app/auth/service"
	authErrors "github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/errors"
	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
)

const (
	PathPing   = "ping"
	PathUsers  = "api/users"
	PathTokens = "api/tokens"
)

// ErrorBody is the JSON shape of every failed response.
type ErrorBody struct {
	Error string `json:"Error"`
}

// NewRoutes builds the route table once at startup.
func NewRoutes(svc appsvc.Service, log *zap.Logger) *router.Routes {
	if log == nil {
		log = zap.NewNop()
	}
	users := NewUsers(svc, log)
	tokens := NewTokens(svc, log)

	return router.NewRoutes(router.HandlerFunc(NotFound), map[string]router.Handler{
		PathPing:   router.HandlerFunc(Ping),
		PathUsers:  users.Methods(),
		PathTokens: tokens.Methods(),
	})
}

func Ping(*router.Request) router.Response {
	return router.Response{Status: http.StatusOK}
}

func NotFound(*router.Request) router.Response {
	return router.Response{Status: http.StatusNotFound}
}

func ok(payload any) router.Response {
	return router.Response{Status: http.StatusOK, Payload: payload}
}

func fail(status int, msg string) router.Response {
	return router.Response{Status: status, Payload: ErrorBody{Error: msg}}
}

// messages holds the per-call-site wording for the failures whose text or
// status depends on where they happen.
type messages struct {
	notFoundStatus int
	notFound       string
	internal       string
}

func handleError(log *zap.Logger, r *router.Request, err error, m messages) router.Response {
	switch {
	case authErrors.IsInvalidArgument(err):
		return fail(http.StatusBadRequest, err.Error())
	case authErrors.IsForbidden(err):
		return fail(http.StatusForbidden, "Missing required token in header, or token is invalid")
	case authErrors.IsInvalidCredentials(err):
		return fail(http.StatusBadRequest, "Invalid credentials")
	case authErrors.IsTokenExpired(err):
		return fail(http.StatusBadRequest, "The token has already expired, and cannot be extended")
	case authErrors.IsAlreadyExists(err):
		return fail(http.StatusBadRequest, "A user with that phone number already exists")
	case authErrors.IsNotFound(err):
		status := m.notFoundStatus
		if status == 0 {
			status = http.StatusNotFound
		}
		if m.notFound == "" {
			return router.Response{Status: status}
		}
		return fail(status, m.notFound)
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
			zap.Error(err),
		)
		if m.internal == "" {
			m.internal = "internal server error"
		}
		return fail(http.StatusInternalServerError, m.internal)
	}
}

// bind decodes a parsed payload into dst. Types are strict: a number where a
// string is expected is an invalid argument. Strings are trimmed.
func bind(src map[string]any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.DecodeHookFuncKind(trimStrings),
		Result:     dst,
	})
	if err != nil {
		return authErrors.WrapInternal(err, "bind")
	}
	if err := dec.Decode(src); err != nil {
		return authErrors.NewInvalidArgument("Missing required fields")
	}
	return nil
}

func trimStrings(from, _ reflect.Kind, data any) (any, error) {
	if s, ok := data.(string); ok && from == reflect.String {
		return strings.TrimSpace(s), nil
	}
	return data, nil
}

// queryMap keeps the first value of every query parameter.
func queryMap(r *router.Request) map[string]any {
	out := make(map[string]any, len(r.Query))
	for k, v := range r.Query {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// bearer reads the token from the "token" header, falling back to
// "Authorization: Bearer <id>".
func bearer(r *router.Request) string {
	if t := strings.TrimSpace(r.Headers.Get("token")); t != "" {
		return t
	}
	auth := strings.TrimSpace(r.Headers.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
