package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	natsgo "github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-iris/internal/events"
	natsintake "github.com/telhawk-systems/telhawk-iris/internal/nats"
)

var (
	seedRule  string
	seedCount int
	seedPrint bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Publish a fake triggered detection to NATS",
	Long: `Generates fake match records and publishes a rule-triggered event on
the configured subject, exercising the full intake path of a running service.

Example:
  irisd seed --rule "Suspicious Login" --count 3`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedRule, "rule", "", "rule name to trigger (required)")
	seedCmd.Flags().IntVar(&seedCount, "count", 1, "number of match records to generate")
	seedCmd.Flags().BoolVar(&seedPrint, "print", false, "print the event instead of publishing it")
	seedCmd.MarkFlagRequired("rule")
}

func runSeed(cmd *cobra.Command, args []string) error {
	event := natsintake.RuleTriggeredEvent{
		RuleName:    seedRule,
		TriggeredAt: time.Now(),
		Matches:     fakeMatches(seedCount),
	}

	if seedPrint {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(event)
	}

	conn, err := natsgo.Connect(cfg.NATS.URL, natsgo.Name("iris-dispatch-seed"))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer conn.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := conn.Publish(cfg.NATS.Subject, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	if err := conn.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	fmt.Printf("Published trigger for rule %q with %d match(es) on %s\n",
		seedRule, seedCount, cfg.NATS.Subject)
	return nil
}

// fakeMatches builds plausible event records for smoke testing rule
// templates and IOC field paths.
func fakeMatches(n int) []events.Match {
	matches := make([]events.Match, 0, n)
	for i := 0; i < n; i++ {
		matches = append(matches, events.Match{
			"@timestamp": time.Now().UTC().Format("2006-01-02T15:04:05"),
			"source": map[string]any{
				"ip": gofakeit.IPv4Address(),
			},
			"destination": map[string]any{
				"ip":   gofakeit.IPv4Address(),
				"port": gofakeit.Number(1, 65535),
			},
			"user": map[string]any{
				"name":  gofakeit.Username(),
				"email": gofakeit.Email(),
			},
			"host": map[string]any{
				"name": gofakeit.DomainName(),
			},
			"event": map[string]any{
				"id": gofakeit.UUID(),
			},
		})
	}
	return matches
}
