package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/internal/handler"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newHTTPHandler wires a Server with deps through the full middleware stack,
// mirroring how the serve command builds it.
func newHTTPHandler(deps handler.Deps) http.Handler {
	return newHTTPHandlerWith(deps, handler.Options{})
}

func newHTTPHandlerWith(deps handler.Deps, opts handler.Options) http.Handler {
	return handler.NewServer(deps, discardLogger()).Routes(opts)
}

// do sends body (a string is sent verbatim, anything else as JSON) and
// records the response.
func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}
	return serve(h, newRequest(method, path, r))
}

func newRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func newJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	return newRequest(method, path, bytes.NewReader(buf))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

// mockSession is a test double for handler.SessionManager.
type mockSession struct {
	user      string
	signInErr error
	signIns   []string
}

func (m *mockSession) SignIn(_ context.Context, id string) error {
	if m.signInErr != nil {
		return m.signInErr
	}
	m.signIns = append(m.signIns, id)
	m.user = id
	return nil
}

func (m *mockSession) SignOut(context.Context) error {
	m.user = ""
	return nil
}

func (m *mockSession) CurrentUser(context.Context) (string, error) { return m.user, nil }

var _ handler.SessionManager = (*mockSession)(nil)
