package iris

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/telhawk-systems/telhawk-iris/internal/metrics"
)

// IRIS API endpoints. All three take a JSON body and answer 200 on success.
const (
	endpointAlertAdd = "/alerts/add"
	endpointCaseAdd  = "/manage/cases/add"
	endpointIOCAdd   = "/case/ioc/add"
)

// Client is a thin synchronous client for the three IRIS endpoints this
// service consumes. No retries; a non-200 response or transport failure
// surfaces as a SubmissionError.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// newClient builds the HTTP client from resolved options. The TLS bundle, if
// configured, is the verification root; otherwise verification stays on
// unless IgnoreSSLErrors is set.
func newClient(opts Options) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	switch {
	case opts.CACert != "":
		pem, err := os.ReadFile(opts.CACert)
		if err != nil {
			return nil, &ConfigurationError{Option: "iris_ca_cert", Reason: err.Error()}
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, &ConfigurationError{Option: "iris_ca_cert", Reason: "no PEM certificates found in " + opts.CACert}
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	case opts.IgnoreSSLErrors:
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	baseURL := opts.Host
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   opts.APIToken,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
	}, nil
}

// BaseURL returns the resolved endpoint the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// post issues one synchronous JSON POST and returns the response. Transport
// failures come back as a SubmissionError with the cause attached; status
// handling is left to the caller.
func (c *Client) post(ctx context.Context, endpoint string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &SubmissionError{Endpoint: endpoint, IOCIndex: -1, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, &SubmissionError{Endpoint: endpoint, IOCIndex: -1, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.SubmissionDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, &SubmissionError{Endpoint: endpoint, IOCIndex: -1, Err: err}
	}

	metrics.SubmissionsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

// AddAlert submits an alert payload.
func (c *Client) AddAlert(ctx context.Context, payload map[string]any) error {
	resp, err := c.post(ctx, endpointAlertAdd, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &SubmissionError{Endpoint: endpointAlertAdd, Status: resp.StatusCode, IOCIndex: -1}
	}
	return nil
}

// caseResponse is the slice of the case-creation response we care about.
type caseResponse struct {
	Data struct {
		CaseID int64 `json:"case_id"`
	} `json:"data"`
}

// AddCase submits a case payload and returns the case id assigned by IRIS.
func (c *Client) AddCase(ctx context.Context, payload map[string]any) (int64, error) {
	resp, err := c.post(ctx, endpointCaseAdd, payload)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &SubmissionError{Endpoint: endpointCaseAdd, Status: resp.StatusCode, IOCIndex: -1}
	}

	var cr caseResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return 0, &SubmissionError{Endpoint: endpointCaseAdd, IOCIndex: -1, Err: fmt.Errorf("decode case response: %w", err)}
	}
	return cr.Data.CaseID, nil
}

// AddCaseIOC attaches one IOC record to an existing case. index identifies
// the record's position for error reporting.
func (c *Client) AddCaseIOC(ctx context.Context, caseID int64, index int, record map[string]any) error {
	resp, err := c.post(ctx, endpointIOCAdd, record)
	if err != nil {
		se := err.(*SubmissionError)
		se.CaseID = caseID
		se.IOCIndex = index
		return se
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &SubmissionError{Endpoint: endpointIOCAdd, Status: resp.StatusCode, CaseID: caseID, IOCIndex: index}
	}

	metrics.IOCsAttachedTotal.Inc()
	return nil
}
