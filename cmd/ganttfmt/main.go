package main

import (
	"fmt"
	"os"

	"ganttfmt/internal/config"
	"ganttfmt/internal/gantt"
	"ganttfmt/internal/logger"
	"ganttfmt/internal/mapping"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ganttfmt",
	Short: "Overlay month-by-month Gantt charts onto Excel task lists",
	Long: `ganttfmt reads .xlsx task lists, finds their planned and actual start/end
date columns and writes a copy of every sheet with a colored month timeline
to the right of the data.

EXAMPLES:
  ganttfmt serve                          # Upload page on the configured address
  ganttfmt convert plan.xlsx out.xlsx     # Convert a single workbook
  ganttfmt convert-all                    # Convert every workbook in the input directory
  ganttfmt scan                           # Report detected date columns
  ganttfmt preview plan.xlsx              # Show the timeline in the terminal`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logger.Setup(cfg.Log.Directory, cfg.Log.Level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.toml", "path to the TOML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// processorOptions builds processor options from the loaded configuration.
// The returned close func releases the AI client, if one was created.
func processorOptions(c *config.Config) (gantt.Options, func(), error) {
	opts := gantt.Options{
		Keywords:         keywordsFromConfig(c.Keywords),
		SubtaskHeader:    c.Timeline.SubtaskHeader,
		Palette:          paletteFromConfig(c.Timeline.Colors),
		MonthColumnWidth: c.Timeline.MonthColumnWidth,
		DateFormat:       c.Timeline.DateFormat,
	}
	noop := func() {}

	if !c.AI.Enabled {
		return opts, noop, nil
	}

	resolver, err := mapping.NewAIResolver(mapping.GetGeminiAPIKey(), c.AI.Model, c.AI.MinConfidence)
	if err != nil {
		return opts, noop, fmt.Errorf("failed to initialize AI column resolver: %w", err)
	}
	opts.Resolver = resolver
	logger.Info("AI column resolver enabled", "model", c.AI.Model)

	return opts, func() { _ = resolver.Close() }, nil
}

func newProcessor(c *config.Config) (*gantt.Processor, func(), error) {
	opts, closeFn, err := processorOptions(c)
	if err != nil {
		return nil, closeFn, err
	}
	return gantt.NewProcessor(opts), closeFn, nil
}

func keywordsFromConfig(k config.KeywordConfig) gantt.Keywords {
	keywords := gantt.Keywords{}
	add := func(f gantt.Field, list []string) {
		if len(list) > 0 {
			keywords[f] = list
		}
	}
	add(gantt.PlannedStart, k.PlannedStart)
	add(gantt.PlannedEnd, k.PlannedEnd)
	add(gantt.ActualStart, k.ActualStart)
	add(gantt.ActualEnd, k.ActualEnd)
	return keywords
}

func paletteFromConfig(c config.ColorConfig) gantt.Palette {
	return gantt.Palette{
		Planned:        c.Planned,
		Actual:         c.Actual,
		SubtaskPlanned: c.SubtaskPlanned,
		SubtaskActual:  c.SubtaskActual,
	}
}
