// Package iris submits triggered detection matches to a DFIR-IRIS instance,
// either as a transient alert or as an investigation case with attached IOC
// records.
package iris

import (
	"context"
	"log/slog"

	"github.com/telhawk-systems/telhawk-iris/internal/events"
)

// Alerter converts a slice of match records into one IRIS submission. An
// instance is built once per rule and holds no per-invocation state; all
// payloads are rebuilt on every Send.
type Alerter struct {
	opts   Options
	client *Client
	log    *slog.Logger
}

// New validates the options, applies defaults and builds the HTTP client.
// Missing required options return a ConfigurationError.
func New(opts Options, log *slog.Logger) (*Alerter, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	client, err := newClient(opts)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = slog.Default()
	}
	return &Alerter{
		opts:   opts,
		client: client,
		log:    log.With(slog.String("rule", opts.RuleName)),
	}, nil
}

// Type identifies the alerter kind for the notifier registry.
func (a *Alerter) Type() string { return "IrisAlerter" }

// Info returns the diagnostics descriptor exposed by the alerter registry.
func (a *Alerter) Info() map[string]any {
	return map[string]any{
		"type":     "IrisAlerter",
		"endpoint": a.client.BaseURL(),
	}
}

// Send performs one submission for the given matches. In alert mode it is a
// single POST. In case mode the case is created first, then each IOC record
// is attached sequentially in template order; the first failure aborts the
// remainder and already-attached IOCs are not rolled back, leaving the remote
// case partially populated. The returned SubmissionError names the case and
// the failing record.
func (a *Alerter) Send(ctx context.Context, matches []events.Match) error {
	switch a.opts.Mode {
	case ModeCase:
		return a.sendCase(ctx, matches)
	default:
		return a.sendAlert(ctx, matches)
	}
}

func (a *Alerter) sendAlert(ctx context.Context, matches []events.Match) error {
	payload := a.buildAlert(matches)
	if err := a.client.AddAlert(ctx, payload); err != nil {
		return err
	}
	a.log.Info("alert sent to IRIS", slog.String("endpoint", a.client.BaseURL()))
	return nil
}

func (a *Alerter) sendCase(ctx context.Context, matches []events.Match) error {
	payload, iocs := a.buildCase(matches)

	caseID, err := a.client.AddCase(ctx, payload)
	if err != nil {
		return err
	}
	a.log.Info("case created in IRIS",
		slog.Int64("case_id", caseID),
		slog.Any("case_soc_id", payload["case_soc_id"]))

	// The case id merge belongs here, after the creation response is known.
	for i, ioc := range iocs {
		ioc["cid"] = caseID
		if err := a.client.AddCaseIOC(ctx, caseID, i, ioc); err != nil {
			return err
		}
	}
	if len(iocs) > 0 {
		a.log.Info("IOCs attached to case",
			slog.Int64("case_id", caseID),
			slog.Int("count", len(iocs)))
	}
	return nil
}
