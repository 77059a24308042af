package iris

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/telhawk-iris/internal/events"
)

// eventTimeLayout is the timestamp form IRIS expects: local wall clock with
// no timezone offset.
const eventTimeLayout = "2006-01-02T15:04:05"

// resolveField resolves a named field for payload construction: the match
// record first, then the rule's raw option of the same name, then the
// supplied default. The order is fixed.
func (a *Alerter) resolveField(m events.Match, name string, def any) any {
	if v, ok := events.Lookup(m, name); ok {
		return v
	}
	if v, ok := a.opts.Raw[name]; ok && v != nil {
		return v
	}
	return def
}

// buildAlert assembles the alert payload. Keys for optional attributes are
// present only when the corresponding option is configured; IRIS treats key
// absence and explicit null differently, so the payload is a plain mapping
// rather than a fixed schema.
func (a *Alerter) buildAlert(matches []events.Match) map[string]any {
	var first events.Match
	if len(matches) > 0 {
		first = matches[0]
	}

	var eventTime any
	if a.opts.OverwriteTimestamp {
		eventTime, _ = events.Lookup(first, "@timestamp")
	} else {
		eventTime = time.Now().Format(eventTimeLayout)
	}

	title := a.opts.RuleName
	if a.opts.Title != "" {
		title = formatString(a.opts.Title, matches)
	}

	var description any
	if a.opts.Description != "" {
		description = formatString(a.opts.Description, matches)
	} else if a.opts.BodyFn != nil {
		description = a.opts.BodyFn(matches)
	}

	payload := map[string]any{
		"alert_title":             title,
		"alert_description":       description,
		"alert_source":            a.opts.AlertSource,
		"alert_severity_id":       a.opts.AlertSeverityID,
		"alert_status_id":         a.opts.AlertStatusID,
		"alert_source_event_time": eventTime,
		"alert_note":              formatTemplate(a.opts.AlertNote, matches),
		"alert_tags":              formatTemplate(a.opts.AlertTags, matches),
		"alert_customer_id":       a.opts.CustomerID,
	}

	if a.opts.AlertSourceLink != "" {
		payload["alert_source_link"] = a.opts.AlertSourceLink
	}
	if len(a.opts.IOCs) > 0 {
		payload["alert_iocs"] = a.buildIOCs(matches)
	}
	if len(a.opts.AlertContext) > 0 {
		payload["alert_context"] = a.buildContext(matches)
	}

	return payload
}

// buildCase assembles the case payload and the IOC records the orchestrator
// will attach once the case exists. The soc id is a fresh short identifier
// per invocation; uniqueness is not guaranteed, only the format.
func (a *Alerter) buildCase(matches []events.Match) (map[string]any, []map[string]any) {
	payload := map[string]any{
		"case_soc_id":      fmt.Sprintf("SOC_%s", uuid.NewString()[:6]),
		"case_customer":    a.opts.CustomerID,
		"case_name":        a.opts.RuleName,
		"case_description": optionalString(a.opts.Description),
	}
	if a.opts.CaseTemplateID != 0 {
		payload["case_template_id"] = a.opts.CaseTemplateID
	}

	var iocs []map[string]any
	if len(a.opts.IOCs) > 0 {
		iocs = a.buildIOCs(matches)
	}
	return payload, iocs
}

// buildIOCs produces one record per configured IOC template, shallow-copied
// with ioc_value replaced by the resolved match value. Records whose value
// does not resolve are dropped; the rest keep template order. Alert and case
// submission each compute this independently.
func (a *Alerter) buildIOCs(matches []events.Match) []map[string]any {
	var first events.Match
	if len(matches) > 0 {
		first = matches[0]
	}

	iocs := make([]map[string]any, 0, len(a.opts.IOCs))
	for _, tmpl := range a.opts.IOCs {
		fieldPath, _ := tmpl["ioc_value"].(string)
		value, ok := events.Lookup(first, fieldPath)
		if !ok || value == "" {
			continue
		}
		rec := make(map[string]any, len(tmpl)+1)
		for k, v := range tmpl {
			rec[k] = v
		}
		rec["ioc_value"] = value
		iocs = append(iocs, rec)
	}
	return iocs
}

// buildContext resolves each configured context entry to one match field and
// stores it under the caller-defined key.
func (a *Alerter) buildContext(matches []events.Match) map[string]any {
	var first events.Match
	if len(matches) > 0 {
		first = matches[0]
	}

	ctx := make(map[string]any, len(a.opts.AlertContext))
	for key, fieldName := range a.opts.AlertContext {
		ctx[key] = fmt.Sprint(a.resolveField(first, fieldName, ""))
	}
	return ctx
}

// optionalString maps an empty string to nil so the JSON payload carries an
// explicit null rather than "".
func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
