package iris

import (
	"fmt"
	"strings"
	"time"

	"github.com/telhawk-systems/telhawk-iris/internal/events"
)

// Mode selects whether a rule produces a transient alert or a persistent
// investigation case in IRIS. The mode is decided once when the rule is
// loaded; there is no per-invocation dispatch on raw strings.
type Mode string

const (
	ModeAlert Mode = "alert"
	ModeCase  Mode = "case"
)

// ParseMode converts a configured mode string into a Mode. Matching is exact
// (after trimming and lowercasing); anything else is rejected so a typo fails
// at load time instead of silently dropping submissions.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAlert, "":
		return ModeAlert, nil
	case ModeCase:
		return ModeCase, nil
	default:
		return "", &ConfigurationError{Option: "iris_type", Reason: "must be \"alert\" or \"case\", got " + s}
	}
}

// BodyFunc renders the standard alert body for a set of matches. It is
// supplied by the caller so the alerter does not own body formatting.
type BodyFunc func(matches []events.Match) string

// Options is the resolved configuration for one alerter instance. Host and
// APIToken are required; everything else has a documented default. The
// struct is immutable after New.
type Options struct {
	// Host is the IRIS endpoint, with or without a scheme. A bare host
	// defaults to https.
	Host string
	// APIToken is the bearer credential passed on every request.
	APIToken string
	// CustomerID is the IRIS customer the alert or case belongs to.
	// Defaults to 1.
	CustomerID int
	// CACert is an optional PEM bundle used for TLS verification.
	CACert string
	// IgnoreSSLErrors disables TLS verification when no CACert is set.
	IgnoreSSLErrors bool
	// Timeout bounds each HTTP call. Defaults to 30s.
	Timeout time.Duration

	// Mode selects alert or case submission. Defaults to ModeAlert.
	Mode Mode
	// RuleName names the originating detection rule. Used as the case name
	// and as the alert title when no title template is set.
	RuleName string
	// Title is an optional {0[field]} template for the alert title.
	Title string
	// Description is an optional {0[field]} template for the alert
	// description; empty means "use BodyFn".
	Description string
	// OverwriteTimestamp uses the match's own @timestamp as the event time
	// instead of the wall clock.
	OverwriteTimestamp bool
	// CaseTemplateID optionally references an IRIS case template.
	CaseTemplateID int
	// AlertNote is an optional {0[field]} template for the alert note.
	AlertNote string
	// AlertSource labels where the alert came from. Defaults to "TelHawk".
	AlertSource string
	// AlertTags is an optional {0[field]} template for the tag list.
	AlertTags string
	// AlertStatusID is the IRIS alert status. Defaults to 2.
	AlertStatusID int
	// AlertSeverityID is the IRIS severity. Defaults to 1.
	AlertSeverityID int
	// AlertSourceLink optionally links back to the originating system.
	AlertSourceLink string
	// AlertContext maps payload context keys to match field paths; each
	// entry is resolved per invocation.
	AlertContext map[string]string
	// IOCs holds the configured IOC templates. Each must carry an
	// "ioc_value" entry naming the match field to resolve.
	IOCs []map[string]any

	// Raw is the full rule mapping as loaded from its definition file.
	// Field resolution falls back to it when a match lacks a field.
	Raw map[string]any
	// BodyFn renders the standard alert body (see BodyFunc).
	BodyFn BodyFunc
}

// withDefaults returns a copy of o with unset optional fields filled in.
func (o Options) withDefaults() Options {
	if o.CustomerID == 0 {
		o.CustomerID = 1
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Mode == "" {
		o.Mode = ModeAlert
	}
	if o.AlertSource == "" {
		o.AlertSource = "TelHawk"
	}
	if o.AlertStatusID == 0 {
		o.AlertStatusID = 2
	}
	if o.AlertSeverityID == 0 {
		o.AlertSeverityID = 1
	}
	return o
}

// validate checks required options.
func (o Options) validate() error {
	if o.Host == "" {
		return &ConfigurationError{Option: "iris_host", Reason: "required"}
	}
	if o.APIToken == "" {
		return &ConfigurationError{Option: "iris_api_token", Reason: "required"}
	}
	if o.Mode != ModeAlert && o.Mode != ModeCase {
		return &ConfigurationError{Option: "iris_type", Reason: "must be \"alert\" or \"case\""}
	}
	for i, rec := range o.IOCs {
		if _, ok := rec["ioc_value"].(string); !ok {
			return &ConfigurationError{Option: "iris_iocs", Reason: fmt.Sprintf("entry %d is missing an ioc_value field path", i)}
		}
	}
	return nil
}
