// Package nats provides NATS message intake for the dispatch service.
package nats

import (
	"time"

	"github.com/telhawk-systems/telhawk-iris/internal/events"
)

// RuleTriggeredEvent is received on the configured subject when a detection
// rule fires. Matches is the ordered sequence of event records behind the
// trigger; the alerter consults the first record but the full sequence is
// carried through unmodified.
type RuleTriggeredEvent struct {
	RuleName    string         `json:"rule_name"`
	TriggeredAt time.Time      `json:"triggered_at"`
	Matches     []events.Match `json:"matches"`
}
