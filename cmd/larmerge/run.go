package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/larreco/larmerge/config"
	"github.com/larreco/larmerge/eventio"
	"github.com/larreco/larmerge/logging"
	"github.com/larreco/larmerge/metrics"
	"github.com/larreco/larmerge/pipeline"
)

var (
	runStages      []string
	runJobs        int
	runOutput      string
	runMetricsFile string
)

var runCmd = &cobra.Command{
	Use:   "run <events.yaml>...",
	Short: "Run the configured stages over event fixtures",
	Long: `Read every event of the given fixture files, run the stages in order, and write
one result document per event. A failing event is reported in its result and does
not stop the others; the command exits non-zero if any event failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return runEvents(ctx, cmd, cfg, log, args)
	},
}

func init() {
	runCmd.Flags().StringSliceVarP(&runStages, "stages", "s", pipeline.DefaultStages,
		"stages to run in order: consolidation, merging, growing, extension, near-gaps")
	runCmd.Flags().IntVarP(&runJobs, "jobs", "j", runtime.GOMAXPROCS(0), "events processed concurrently")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "result file (stdout when empty)")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")
	rootCmd.AddCommand(runCmd)
}

func runEvents(ctx context.Context, cmd *cobra.Command, cfg config.Config, log *zap.Logger, files []string) error {
	collector := metrics.NewCollector("larmerge")
	runner, err := pipeline.New(cfg,
		pipeline.WithStages(runStages...),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	var specs []eventio.EventSpec
	for _, f := range files {
		s, err := eventio.ReadFile(f)
		if err != nil {
			return err
		}
		specs = append(specs, s...)
	}

	results := make([]eventio.Result, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(runJobs, 1))
	for i, spec := range specs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev, err := spec.Build()
			if err != nil {
				collector.ObserveEvent(err)
				results[i] = eventio.Result{EventID: spec.EventID, Error: err.Error()}
				return nil
			}
			results[i] = runner.Process(gctx, ev)

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeResults(cmd, results); err != nil {
		return err
	}
	if runMetricsFile != "" {
		if err := collector.WriteTextfile(runMetricsFile); err != nil {
			return err
		}
	}

	return report(cmd.ErrOrStderr(), results)
}

func writeResults(cmd *cobra.Command, results []eventio.Result) error {
	if runOutput == "" {
		return eventio.Encode(cmd.OutOrStdout(), results)
	}
	f, err := os.Create(runOutput)
	if err != nil {
		return err
	}
	if err := eventio.Encode(f, results); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// report prints a colored per-event summary and fails if any event failed.
func report(w io.Writer, results []eventio.Result) error {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	failed, abandoned := 0, 0
	for _, r := range results {
		switch {
		case r.Error != "":
			failed++
			fmt.Fprintf(w, "%s %s: %s\n", red("✗"), r.EventID, r.Error)
		case r.Abandoned:
			abandoned++
			fmt.Fprintf(w, "%s %s: abandoned\n", yellow("○"), r.EventID)
		default:
			fmt.Fprintf(w, "%s %s: %d clusters, %d pfos\n", green("●"), r.EventID, len(r.Clusters), len(r.Pfos))
		}
	}
	fmt.Fprintf(w, "\n%d events, %s, %s, %s\n", len(results),
		green(fmt.Sprintf("%d ok", len(results)-failed-abandoned)),
		yellow(fmt.Sprintf("%d abandoned", abandoned)),
		red(fmt.Sprintf("%d failed", failed)))

	if failed > 0 {
		return fmt.Errorf("%d of %d events failed", failed, len(results))
	}

	return nil
}
