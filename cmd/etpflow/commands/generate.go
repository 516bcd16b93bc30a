package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/etpflow/etpflow/cmd/etpflow/ui"
	"github.com/etpflow/etpflow/internal/pipeline"
)

var (
	generateIDs  string
	generateFile string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate permit documents for known eMM11 numbers",
	Long: `Skip the interactive workflow and run the document pipeline directly
over a list of permit numbers, given inline or one per line in a file.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateIDs, "ids", "", "comma-separated permit numbers")
	generateCmd.Flags().StringVar(&generateFile, "file", "", "file with one permit number per line")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	identifiers, err := collectIdentifiers()
	if err != nil {
		return err
	}
	if len(identifiers) == 0 {
		return fmt.Errorf("no permit numbers given; use --ids or --file")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	if err := prepareOutput(cfg); err != nil {
		return fmt.Errorf("prepare output dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipe := buildPipeline(cfg, logger)
	bar := ui.NewProgressBar(int64(len(identifiers)), "Generating documents")

	result := pipe.Generate(ctx, identifiers, pipeline.Options{
		OnLog: func(line string) {
			ui.Warning("%s", line)
		},
		OnDocument: func(identifier, path string) error {
			bar.Add(1)
			return nil
		},
	})
	bar.Finish()

	for _, doc := range result.Documents {
		ui.Success("%s: %s", doc.Identifier, doc.Path)
	}

	if result.Skipped > 0 {
		ui.Warning("%d of %d permits were skipped", result.Skipped, len(identifiers))
	}
	ui.Message("Generated %d documents in %s", len(result.Documents), result.Duration.Round(time.Second))

	return nil
}

// collectIdentifiers merges the --ids and --file inputs, preserving order.
func collectIdentifiers() ([]string, error) {
	var identifiers []string

	if generateIDs != "" {
		for _, id := range strings.Split(generateIDs, ",") {
			if id = strings.TrimSpace(id); id != "" {
				identifiers = append(identifiers, id)
			}
		}
	}

	if generateFile != "" {
		data, err := os.ReadFile(generateFile)
		if err != nil {
			return nil, fmt.Errorf("read id file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				identifiers = append(identifiers, line)
			}
		}
	}

	return identifiers, nil
}
