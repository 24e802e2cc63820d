// Command failure-lambda-report is a dry-run reporting tool: given a
// configuration document and a sample invocation event, it prints one
// dry-run line for each resolved entry whose match conditions pass and
// whose percentage roll (drawn from the default PRNG) fires, without
// performing any actual injection. Entries that do not fire are not
// listed. The pipeline's pre-cleanup still runs, so the denylist is
// cleared and leftover diskspace-failure- files in the temp directory are
// removed. It exists outside the core library
// (spec.md §1 treats "the interactive management tool" as an external
// collaborator) but is grounded in the same pipeline via chaos.Wrap's
// dryRun option.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gunnargrosch/failure-lambda/chaos"
)

var (
	configPath string
	eventPath  string
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	root := newRootCommand(logger)
	if err := root.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func newRootCommand(logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "failure-lambda-report",
		Short: "Reports the resolved failure-injection plan for a configuration and event, without injecting anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), logger)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML or JSON configuration document (required)")
	cmd.Flags().StringVar(&eventPath, "event", "", "path to a JSON invocation event (defaults to an empty object)")
	cmd.MarkFlagRequired("config")

	return cmd
}

func run(ctx context.Context, logger *zap.Logger) error {
	doc, err := loadDocument(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	event := chaos.Event{}
	if eventPath != "" {
		raw, err := os.ReadFile(eventPath)
		if err != nil {
			return fmt.Errorf("reading event: %w", err)
		}
		if err := json.Unmarshal(raw, &event); err != nil {
			return fmt.Errorf("parsing event: %w", err)
		}
	}

	reader := metric.NewManualReader()
	meterProvider := metric.NewMeterProvider(metric.WithReader(reader))
	telemetry := chaos.NewTelemetry(meterProvider.Meter("failure-lambda-report"))

	var dryRunLines []string
	collector := chaos.LoggerFunc(func(action chaos.Action, msg string, fields map[string]interface{}) {
		if action == chaos.ActionDryRun {
			dryRunLines = append(dryRunLines, fmt.Sprintf("%s: %v", msg, fields))
		}
		logger.Info(msg, zap.String("action", string(action)), zap.Any("fields", fields))
	})

	handler := chaos.Wrap(func(context.Context, chaos.Event) (chaos.Response, error) {
		return chaos.Response{"statusCode": 200, "body": "ok"}, nil
	},
		chaos.WithConfigProvider(func(context.Context) chaos.Configuration {
			return parseDocument(doc)
		}),
		chaos.WithDryRun(true),
		chaos.WithLogger(collector),
		chaos.WithTelemetry(telemetry),
	)

	result, err := handler(ctx, event)
	if err != nil {
		return fmt.Errorf("dry-run evaluation reported an injected failure: %w", err)
	}

	fmt.Println("Resolved plan (dry run):")
	for _, line := range dryRunLines {
		fmt.Println(" -", line)
	}
	fmt.Printf("Handler result: %#v\n", result)
	return nil
}

// loadDocument reads raw bytes and decodes them with the YAML decoder,
// whatever the file's extension; JSON documents are accepted because JSON
// is valid YAML.
func loadDocument(path string) (map[string]interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// parseDocument reuses the library's own parser so the CLI's notion of
// "valid configuration" never drifts from the orchestrator's.
func parseDocument(doc map[string]interface{}) chaos.Configuration {
	return chaos.ParseConfiguration(doc)
}
