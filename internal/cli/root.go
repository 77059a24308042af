// Package cli implements the irisd command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-iris/internal/config"
	"github.com/telhawk-systems/telhawk-iris/internal/logging"
	"github.com/telhawk-systems/telhawk-iris/internal/notify"
	"github.com/telhawk-systems/telhawk-iris/internal/rules"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "irisd",
	Short: "TelHawk IRIS dispatch service",
	Long: `irisd forwards triggered detections to a DFIR-IRIS instance.

Rules are defined one per YAML file; each rule submits either an alert or an
investigation case (with IOC records attached) when a detection fires.
Triggered events arrive over NATS or through the manual dispatch endpoint.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(rulesCmd)
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
		cfg, _ = config.Load("")
	}
}

// newLogger builds the process logger from the loaded configuration and
// installs it as the default.
func newLogger() *slog.Logger {
	log := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(log)
	return log
}

// loadRegistry loads rule definitions into a notifier registry.
func loadRegistry(log *slog.Logger) (*notify.Registry, error) {
	registry, err := rules.Load(cfg.Rules.Dir, cfg.Iris, log)
	if err != nil {
		return nil, fmt.Errorf("load rules from %s: %w", cfg.Rules.Dir, err)
	}
	return registry, nil
}
