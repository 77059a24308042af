package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-iris/internal/events"
)

var (
	sendRule        string
	sendMatchesFile string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Dispatch matches from a file through one rule's alerter",
	Long: `Reads a JSON array of match records and submits it through the named
rule, exactly as a triggered detection would. Useful for verifying a rule
definition against a live IRIS instance.

Example:
  irisd send --rule "Suspicious Login" --matches matches.json`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendRule, "rule", "", "rule name to dispatch through (required)")
	sendCmd.Flags().StringVar(&sendMatchesFile, "matches", "", "path to a JSON array of match records (required)")
	sendCmd.MarkFlagRequired("rule")
	sendCmd.MarkFlagRequired("matches")
}

func runSend(cmd *cobra.Command, args []string) error {
	log := newLogger()

	registry, err := loadRegistry(log)
	if err != nil {
		return err
	}

	notifier, ok := registry.Get(sendRule)
	if !ok {
		return fmt.Errorf("unknown rule %q (loaded: %v)", sendRule, registry.Names())
	}

	data, err := os.ReadFile(sendMatchesFile)
	if err != nil {
		return fmt.Errorf("read matches file: %w", err)
	}
	var matches []events.Match
	if err := json.Unmarshal(data, &matches); err != nil {
		return fmt.Errorf("parse matches file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Iris.Timeout)
	defer cancel()

	if err := notifier.Send(ctx, matches); err != nil {
		return err
	}

	fmt.Printf("Dispatched %d match(es) through rule %q\n", len(matches), sendRule)
	return nil
}
