package iris

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-iris/internal/events"
)

// irisStub records every request the alerter issues and plays back canned
// responses per endpoint.
type irisStub struct {
	mu       sync.Mutex
	requests []stubRequest
	statuses map[string]int // endpoint -> status (default 200)
	caseID   int64
}

type stubRequest struct {
	endpoint string
	auth     string
	payload  map[string]any
}

func newIrisStub(t *testing.T) (*irisStub, *httptest.Server) {
	t.Helper()
	stub := &irisStub{statuses: map[string]int{}, caseID: 42}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		stub.mu.Lock()
		stub.requests = append(stub.requests, stubRequest{
			endpoint: r.URL.Path,
			auth:     r.Header.Get("Authorization"),
			payload:  payload,
		})
		status, ok := stub.statuses[r.URL.Path]
		caseID := stub.caseID
		stub.mu.Unlock()

		if !ok {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if status == http.StatusOK && r.URL.Path == endpointCaseAdd {
			json.NewEncoder(w).Encode(map[string]any{
				"status": "success",
				"data":   map[string]any{"case_id": caseID},
			})
		}
	}))
	t.Cleanup(server.Close)
	return stub, server
}

func (s *irisStub) calls(endpoint string) []stubRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []stubRequest
	for _, r := range s.requests {
		if r.endpoint == endpoint {
			out = append(out, r)
		}
	}
	return out
}

func (s *irisStub) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func TestSend_AlertMode(t *testing.T) {
	stub, server := newIrisStub(t)

	a, err := New(Options{
		Host:        server.URL,
		APIToken:    "secret-token",
		RuleName:    "Suspicious Login",
		Description: "login from {0[source.ip]}",
	}, nil)
	require.NoError(t, err)

	matches := []events.Match{{"source": map[string]any{"ip": "10.0.0.1"}}}
	require.NoError(t, a.Send(context.Background(), matches))

	calls := stub.calls(endpointAlertAdd)
	require.Len(t, calls, 1)
	assert.Equal(t, 1, stub.total(), "alert mode issues exactly one call")
	assert.Equal(t, "Bearer secret-token", calls[0].auth)
	assert.Equal(t, "Suspicious Login", calls[0].payload["alert_title"])
	assert.Equal(t, "login from 10.0.0.1", calls[0].payload["alert_description"])
}

func TestSend_AlertNon200(t *testing.T) {
	stub, server := newIrisStub(t)
	stub.statuses[endpointAlertAdd] = http.StatusInternalServerError

	a, err := New(Options{Host: server.URL, APIToken: "t", RuleName: "r"}, nil)
	require.NoError(t, err)

	err = a.Send(context.Background(), []events.Match{{"a": 1}})

	var se *SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Equal(t, endpointAlertAdd, se.Endpoint)
	assert.Equal(t, 1, stub.total(), "no further calls after a failed alert")
}

func TestSend_AlertTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	a, err := New(Options{Host: server.URL, APIToken: "t", RuleName: "r"}, nil)
	require.NoError(t, err)

	err = a.Send(context.Background(), nil)

	var se *SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Zero(t, se.Status)
	assert.Error(t, se.Unwrap())
}

func TestSend_CaseWithPartialIOCResolution(t *testing.T) {
	stub, server := newIrisStub(t)

	a, err := New(Options{
		Host:     server.URL,
		APIToken: "t",
		RuleName: "Beaconing Host",
		Mode:     ModeCase,
		IOCs: []map[string]any{
			{"ioc_value": "file.sha256", "ioc_type_id": 1}, // does not resolve
			{"ioc_value": "destination.ip", "ioc_type_id": 76},
		},
	}, nil)
	require.NoError(t, err)

	matches := []events.Match{{"destination": map[string]any{"ip": "203.0.113.9"}}}
	require.NoError(t, a.Send(context.Background(), matches))

	require.Len(t, stub.calls(endpointCaseAdd), 1)

	attaches := stub.calls(endpointIOCAdd)
	require.Len(t, attaches, 1, "only the resolvable IOC is attached")
	assert.Equal(t, "203.0.113.9", attaches[0].payload["ioc_value"])
	assert.Equal(t, float64(42), attaches[0].payload["cid"], "case id merged before attach")
}

func TestSend_CaseCreationFails(t *testing.T) {
	stub, server := newIrisStub(t)
	stub.statuses[endpointCaseAdd] = http.StatusForbidden

	a, err := New(Options{
		Host: server.URL, APIToken: "t", RuleName: "r", Mode: ModeCase,
		IOCs: []map[string]any{{"ioc_value": "src.ip"}},
	}, nil)
	require.NoError(t, err)

	err = a.Send(context.Background(), []events.Match{{"src": map[string]any{"ip": "10.1.1.1"}}})

	var se *SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Empty(t, stub.calls(endpointIOCAdd), "no IOC calls after case creation failure")
}

func TestSend_IOCFailureIsFailFast(t *testing.T) {
	stub, server := newIrisStub(t)
	stub.statuses[endpointIOCAdd] = http.StatusNotFound

	a, err := New(Options{
		Host: server.URL, APIToken: "t", RuleName: "r", Mode: ModeCase,
		IOCs: []map[string]any{
			{"ioc_value": "a", "ioc_type_id": 1},
			{"ioc_value": "b", "ioc_type_id": 2},
			{"ioc_value": "c", "ioc_type_id": 3},
		},
	}, nil)
	require.NoError(t, err)

	matches := []events.Match{{"a": "v1", "b": "v2", "c": "v3"}}
	err = a.Send(context.Background(), matches)

	var se *SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, int64(42), se.CaseID, "failure names the case")
	assert.Equal(t, 0, se.IOCIndex, "failure names the failing record")
	assert.Len(t, stub.calls(endpointIOCAdd), 1, "remaining IOC submissions are never issued")
}

func TestSend_IOCsAttachSequentiallyInOrder(t *testing.T) {
	stub, server := newIrisStub(t)

	a, err := New(Options{
		Host: server.URL, APIToken: "t", RuleName: "r", Mode: ModeCase,
		IOCs: []map[string]any{
			{"ioc_value": "first", "ioc_type_id": 1},
			{"ioc_value": "second", "ioc_type_id": 2},
		},
	}, nil)
	require.NoError(t, err)

	matches := []events.Match{{"first": "v1", "second": "v2"}}
	require.NoError(t, a.Send(context.Background(), matches))

	attaches := stub.calls(endpointIOCAdd)
	require.Len(t, attaches, 2)
	assert.Equal(t, "v1", attaches[0].payload["ioc_value"])
	assert.Equal(t, "v2", attaches[1].payload["ioc_value"])
}
