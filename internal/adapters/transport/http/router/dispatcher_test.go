package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type capture struct {
	calls int
	last  *Request
	resp  Response
}

func (c *capture) Handle(r *Request) Response {
	c.calls++
	c.last = r
	return c.resp
}

func serve(d *Dispatcher, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest(method, target, strings.NewReader(body)))
	return w
}

func TestDispatcher_NormalizesRequest(t *testing.T) {
	h := &capture{resp: Response{Status: 201, Payload: map[string]any{"ok": true}}}
	d := NewDispatcher(NewRoutes(nil, map[string]Handler{"api/users": h}), 0, nil)

	req := httptest.NewRequest("POST", "/api/users/?phone=5551234567", strings.NewReader(`{"firstName":"Ada"}`))
	req.Header.Set("Token", "abc")
	w := httptest.NewRecorder()
	d.ServeHTTP(w, req)

	require.Equal(t, 1, h.calls)
	require.Equal(t, "api/users", h.last.Path)
	require.Equal(t, "post", h.last.Method)
	require.Equal(t, "5551234567", h.last.Query.Get("phone"))
	require.Equal(t, "abc", h.last.Headers.Get("token"))
	require.Equal(t, map[string]any{"firstName": "Ada"}, h.last.Payload)
	require.NotNil(t, h.last.Context())

	require.Equal(t, 201, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestDispatcher_SamePathWithAndWithoutSlashes(t *testing.T) {
	h := &capture{}
	d := NewDispatcher(NewRoutes(nil, map[string]Handler{"/api/users/": h}), 0, nil)

	for _, target := range []string{"/api/users", "/api/users/", "//api/users//"} {
		w := serve(d, "GET", target, "")
		require.Equal(t, http.StatusOK, w.Code, target)
	}
	require.Equal(t, 3, h.calls)
}

func TestDispatcher_MalformedBodyIsEmptyPayload(t *testing.T) {
	h := &capture{}
	d := NewDispatcher(NewRoutes(nil, map[string]Handler{"x": h}), 0, nil)

	for _, body := range []string{"", "{", "not json", "[1,2]", `"str"`, "42", "null"} {
		serve(d, "POST", "/x", body)
		require.NotNil(t, h.last.Payload, body)
		require.Empty(t, h.last.Payload, body)
	}
}

func TestParsePayload_InvalidUTF8(t *testing.T) {
	p := ParsePayload([]byte("{\"name\":\"a\xffb\"}"))
	require.Equal(t, "a\uFFFDb", p["name"])
}

func TestDispatcher_UnknownPathIs404(t *testing.T) {
	d := NewDispatcher(NewRoutes(nil, map[string]Handler{"ping": &capture{}}), 0, nil)

	for _, m := range []string{"GET", "POST", "PUT", "DELETE", "PATCH"} {
		w := serve(d, m, "/nope", "")
		require.Equal(t, http.StatusNotFound, w.Code)
		require.JSONEq(t, `{}`, w.Body.String())
	}
}

func TestMethods_UnknownVerbIs405(t *testing.T) {
	get := &capture{}
	d := NewDispatcher(NewRoutes(nil, map[string]Handler{"api/users": Methods{"get": get}}), 0, nil)

	require.Equal(t, http.StatusOK, serve(d, "GET", "/api/users", "").Code)
	require.Equal(t, http.StatusMethodNotAllowed, serve(d, "PATCH", "/api/users", "").Code)
	require.Equal(t, 1, get.calls)
}

func TestDispatcher_ResponseDefaults(t *testing.T) {
	cases := []struct {
		name     string
		resp     Response
		status   int
		ctype    string
		wantBody string
	}{
		{"zero value", Response{}, 200, "application/json", "{}"},
		{"bad status", Response{Status: 7}, 200, "application/json", "{}"},
		{"array payload", Response{Payload: []int{1}}, 200, "application/json", "{}"},
		{"string payload", Response{Status: 400, Payload: "oops"}, 400, "application/json", "{}"},
		{"unencodable", Response{Payload: map[string]any{"f": func() {}}}, 200, "application/json", "{}"},
		{"struct", Response{Payload: struct {
			Error string `json:"Error"`
		}{"x"}}, 200, "application/json", `{"Error":"x"}`},
		{"html", Response{ContentType: ContentTypeHTML, Payload: "<p>hi</p>"}, 200, "text/html", "<p>hi</p>"},
		{"html non string", Response{ContentType: ContentTypeHTML, Payload: 3}, 200, "text/html", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := NewDispatcher(NewRoutes(nil, map[string]Handler{"x": &capture{resp: c.resp}}), 0, nil)
			w := serve(d, "GET", "/x", "")
			require.Equal(t, c.status, w.Code)
			require.Equal(t, c.ctype, w.Header().Get("Content-Type"))
			require.Equal(t, c.wantBody, w.Body.String())
		})
	}
}

type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestDispatcher_AbandonsOnBodyError(t *testing.T) {
	h := &capture{}
	d := NewDispatcher(NewRoutes(nil, map[string]Handler{"x": h}), 0, nil)

	w := httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest("POST", "/x", failingBody{}))

	require.Zero(t, h.calls)
	require.Zero(t, w.Body.Len())
}

func TestDispatcher_BodyLimit(t *testing.T) {
	h := &capture{}
	d := NewDispatcher(NewRoutes(nil, map[string]Handler{"x": h}), 8, nil)

	body, _ := json.Marshal(map[string]string{"phone": "5551234567"})
	serve(d, "POST", "/x", string(body))
	require.Equal(t, 1, h.calls)
	require.Empty(t, h.last.Payload, "truncated body does not parse")
}

func TestRoutes_Immutable(t *testing.T) {
	table := map[string]Handler{"ping": &capture{}}
	r := NewRoutes(nil, table)
	table["late"] = &capture{}

	require.Equal(t, []string{"ping"}, r.Paths())
	require.Equal(t, http.StatusNotFound, r.Lookup("late").Handle(&Request{}).Status)
}
