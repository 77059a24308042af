package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-iris/internal/events"
	"github.com/telhawk-systems/telhawk-iris/internal/handlers"
	"github.com/telhawk-systems/telhawk-iris/internal/iris"
	"github.com/telhawk-systems/telhawk-iris/internal/notify"
	"github.com/telhawk-systems/telhawk-iris/internal/server"
)

type stubNotifier struct {
	matches [][]events.Match
	err     error
}

func (s *stubNotifier) Type() string         { return "stub" }
func (s *stubNotifier) Info() map[string]any { return map[string]any{"type": "stub"} }
func (s *stubNotifier) Send(ctx context.Context, matches []events.Match) error {
	s.matches = append(s.matches, matches)
	return s.err
}

func newTestServer(t *testing.T, registry *notify.Registry) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(server.NewRouter(handlers.NewHandler(registry, nil)))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, notify.NewRegistry())

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestAlertersEndpoint(t *testing.T) {
	registry := notify.NewRegistry()
	registry.Register("rule-a", &stubNotifier{})
	srv := newTestServer(t, registry)

	resp, err := http.Get(srv.URL + "/api/v1/alerters")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Alerters []map[string]any `json:"alerters"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Alerters, 1)
	assert.Equal(t, "rule-a", body.Alerters[0]["rule"])
	assert.Equal(t, "stub", body.Alerters[0]["type"])
}

func TestDispatchEndpoint(t *testing.T) {
	registry := notify.NewRegistry()
	stub := &stubNotifier{}
	registry.Register("rule-a", stub)
	srv := newTestServer(t, registry)

	body := `{"matches":[{"source.ip":"10.0.0.1"},{"source.ip":"10.0.0.2"}]}`
	resp, err := http.Post(srv.URL+"/api/v1/dispatch/rule-a", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, stub.matches, 1)
	assert.Len(t, stub.matches[0], 2)
}

func TestDispatchUnknownRule(t *testing.T) {
	srv := newTestServer(t, notify.NewRegistry())

	resp, err := http.Post(srv.URL+"/api/v1/dispatch/nope", "application/json", strings.NewReader(`{"matches":[]}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDispatchBadBody(t *testing.T) {
	registry := notify.NewRegistry()
	registry.Register("rule-a", &stubNotifier{})
	srv := newTestServer(t, registry)

	resp, err := http.Post(srv.URL+"/api/v1/dispatch/rule-a", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDispatchSubmissionErrorIsBadGateway(t *testing.T) {
	registry := notify.NewRegistry()
	registry.Register("rule-a", &stubNotifier{
		err: &iris.SubmissionError{Endpoint: "/alerts/add", Status: 500, IOCIndex: -1},
	})
	srv := newTestServer(t, registry)

	resp, err := http.Post(srv.URL+"/api/v1/dispatch/rule-a", "application/json", strings.NewReader(`{"matches":[]}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "status 500")
}

func TestDispatchWrongMethod(t *testing.T) {
	registry := notify.NewRegistry()
	registry.Register("rule-a", &stubNotifier{})
	srv := newTestServer(t, registry)

	resp, err := http.Get(srv.URL + "/api/v1/dispatch/rule-a")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
