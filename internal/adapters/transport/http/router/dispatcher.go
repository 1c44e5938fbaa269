package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const defaultMaxBody = 1 << 20

var emptyObject = []byte("{}")

type Dispatcher struct {
	routes  *Routes
	maxBody int64
	log     *zap.Logger
}

func NewDispatcher(routes *Routes, maxBody int64, log *zap.Logger) *Dispatcher {
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{routes: routes, maxBody: maxBody, log: log}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := NormalizePath(r.URL.Path)

	raw, err := io.ReadAll(io.LimitReader(r.Body, d.maxBody))
	if err != nil {
		// The client went away mid-body; nothing is handled, nothing is written.
		d.log.Debug("request abandoned", zap.String("path", path), zap.Error(err))
		return
	}

	req := &Request{
		Path:    path,
		Query:   r.URL.Query(),
		Method:  strings.ToLower(r.Method),
		Headers: r.Header,
		Payload: ParsePayload(raw),
		ctx:     r.Context(),
	}

	resp := d.routes.Lookup(path).Handle(req)

	status, contentType, body := d.encode(resp)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		d.log.Debug("write response", zap.String("path", path), zap.Error(err))
	}

	d.log.Debug("returning response",
		zap.String("method", req.Method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Int("bytes", len(body)),
	)
}

// ParsePayload decodes raw as UTF-8 JSON. Anything that is not a JSON object,
// including malformed input, becomes an empty map.
func ParsePayload(raw []byte) map[string]any {
	text := strings.ToValidUTF8(string(raw), "\uFFFD")

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return map[string]any{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

func (d *Dispatcher) encode(resp Response) (int, string, []byte) {
	status := resp.Status
	if status < 100 || status > 999 {
		status = http.StatusOK
	}

	if resp.ContentType == ContentTypeHTML {
		s, _ := resp.Payload.(string)
		return status, "text/html", []byte(s)
	}

	if resp.Payload == nil {
		return status, "application/json", emptyObject
	}
	b, err := json.Marshal(resp.Payload)
	if err != nil {
		d.log.Error("encode response payload", zap.Error(err))
		return status, "application/json", emptyObject
	}
	if !bytes.HasPrefix(b, []byte("{")) {
		return status, "application/json", emptyObject
	}
	return status, "application/json", b
}
