// Package rules loads per-rule alerter definitions from YAML files and
// builds the notifier registry the dispatcher routes through.
package rules

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/telhawk-systems/telhawk-iris/internal/config"
	"github.com/telhawk-systems/telhawk-iris/internal/events"
	"github.com/telhawk-systems/telhawk-iris/internal/iris"
	"github.com/telhawk-systems/telhawk-iris/internal/notify"
)

// ruleSpec mirrors the option names of a rule definition file. Anything not
// captured here still reaches the alerter through the raw mapping, which
// field resolution falls back to.
type ruleSpec struct {
	Name                   string            `yaml:"name"`
	AlertSubject           string            `yaml:"alert_subject"`
	IrisHost               string            `yaml:"iris_host"`
	IrisAPIToken           string            `yaml:"iris_api_token"`
	IrisCustomerID         int               `yaml:"iris_customer_id"`
	IrisCACert             string            `yaml:"iris_ca_cert"`
	IrisIgnoreSSLErrors    bool              `yaml:"iris_ignore_ssl_errors"`
	IrisDescription        string            `yaml:"iris_description"`
	IrisOverwriteTimestamp bool              `yaml:"iris_overwrite_timestamp"`
	IrisType               string            `yaml:"iris_type"`
	IrisCaseTemplateID     int               `yaml:"iris_case_template_id"`
	IrisAlertNote          string            `yaml:"iris_alert_note"`
	IrisAlertSource        string            `yaml:"iris_alert_source"`
	IrisAlertTags          string            `yaml:"iris_alert_tags"`
	IrisAlertStatusID      int               `yaml:"iris_alert_status_id"`
	IrisAlertSeverityID    int               `yaml:"iris_alert_severity_id"`
	IrisAlertSourceLink    string            `yaml:"iris_alert_source_link"`
	IrisAlertContext       map[string]string `yaml:"iris_alert_context"`
	IrisIOCs               []map[string]any  `yaml:"iris_iocs"`
}

// Load reads every *.yaml / *.yml file under dir, builds one IRIS alerter
// per rule and returns a populated registry. A broken rule file fails the
// whole load: a misconfigured alerter should stop the service at startup,
// not silently drop submissions later.
func Load(dir string, defaults config.IrisConfig, log *slog.Logger) (*notify.Registry, error) {
	if log == nil {
		log = slog.Default()
	}

	files, err := ruleFiles(dir)
	if err != nil {
		return nil, err
	}

	registry := notify.NewRegistry()
	for _, file := range files {
		name, alerter, err := loadRuleFile(file, defaults, log)
		if err != nil {
			return nil, fmt.Errorf("rule file %s: %w", filepath.Base(file), err)
		}
		registry.Register(name, alerter)
		log.Info("rule loaded", slog.String("rule", name), slog.String("file", filepath.Base(file)))
	}
	return registry, nil
}

func ruleFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil // no rules to load
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matched, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("list rule files: %w", err)
		}
		files = append(files, matched...)
	}
	sort.Strings(files)
	return files, nil
}

func loadRuleFile(path string, defaults config.IrisConfig, log *slog.Logger) (string, *iris.Alerter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	var spec ruleSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return "", nil, fmt.Errorf("parse: %w", err)
	}
	if spec.Name == "" {
		return "", nil, fmt.Errorf("rule has no name")
	}

	// The raw mapping is kept alongside the typed spec: field resolution
	// falls back to it for arbitrary option names.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return "", nil, fmt.Errorf("parse: %w", err)
	}

	opts, err := buildOptions(spec, raw, defaults)
	if err != nil {
		return "", nil, err
	}

	alerter, err := iris.New(opts, log)
	if err != nil {
		return "", nil, err
	}
	return spec.Name, alerter, nil
}

func buildOptions(spec ruleSpec, raw map[string]any, defaults config.IrisConfig) (iris.Options, error) {
	mode, err := iris.ParseMode(spec.IrisType)
	if err != nil {
		return iris.Options{}, err
	}

	ruleName := spec.Name
	opts := iris.Options{
		Host:               firstNonEmpty(spec.IrisHost, defaults.Host),
		APIToken:           firstNonEmpty(spec.IrisAPIToken, defaults.APIToken),
		CustomerID:         firstNonZero(spec.IrisCustomerID, defaults.CustomerID),
		CACert:             firstNonEmpty(spec.IrisCACert, defaults.CACert),
		IgnoreSSLErrors:    spec.IrisIgnoreSSLErrors || defaults.IgnoreSSLErrors,
		Timeout:            defaults.Timeout,
		Mode:               mode,
		RuleName:           ruleName,
		Title:              spec.AlertSubject,
		Description:        spec.IrisDescription,
		OverwriteTimestamp: spec.IrisOverwriteTimestamp,
		CaseTemplateID:     spec.IrisCaseTemplateID,
		AlertNote:          spec.IrisAlertNote,
		AlertSource:        firstNonEmpty(spec.IrisAlertSource, defaults.AlertSource),
		AlertTags:          spec.IrisAlertTags,
		AlertStatusID:      spec.IrisAlertStatusID,
		AlertSeverityID:    spec.IrisAlertSeverityID,
		AlertSourceLink:    spec.IrisAlertSourceLink,
		AlertContext:       spec.IrisAlertContext,
		IOCs:               spec.IrisIOCs,
		Raw:                raw,
		BodyFn: func(matches []events.Match) string {
			return events.RenderBody(ruleName, matches)
		},
	}
	return opts, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
