package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List loaded rule definitions",
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	log := newLogger()

	registry, err := loadRegistry(log)
	if err != nil {
		return err
	}

	descs := registry.Descriptors()
	if len(descs) == 0 {
		fmt.Printf("No rules loaded from %s\n", cfg.Rules.Dir)
		return nil
	}

	for _, desc := range descs {
		fmt.Printf("%-40v %-12v %v\n", desc["rule"], desc["type"], desc["endpoint"])
	}
	return nil
}
