// Command kgeval evaluates the "who teaches" classifier on a dataset file.
//
//	kgeval [flags] baseline   one stratified split, fixed hyperparameters
//	kgeval [flags] search     nested cross-validated grid search
//	kgeval [flags] compare    both, one report after the other
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/kgeval/core/model"
	"github.com/YuminosukeSato/kgeval/dataset"
	"github.com/YuminosukeSato/kgeval/evaluation"
	"github.com/YuminosukeSato/kgeval/features"
	"github.com/YuminosukeSato/kgeval/internal/config"
	"github.com/YuminosukeSato/kgeval/pkg/errors"
	"github.com/YuminosukeSato/kgeval/pkg/log"
	"github.com/YuminosukeSato/kgeval/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	command  string
	plotPath string
	modelOut string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kgeval", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configFile   = fs.String("config", config.BaseConfigFile, "Path to the TOML configuration file")
		dataPath     = fs.String("data", "", "Path to the dataset CSV (overrides config)")
		seed         = fs.Int64("seed", 0, "Random seed (overrides config)")
		testFraction = fs.Float64("test-fraction", 0, "Baseline test fraction in (0,1) (overrides config)")
		workers      = fs.Int("workers", 0, "Concurrent folds/candidates (overrides config)")
		logLevel     = fs.String("log-level", "", "Log level: debug|info|warn|error (overrides config)")
		plotPath     = fs.String("plot", "", "search: write the fold-accuracy chart (.png, .svg, .pdf)")
		modelOut     = fs.String("model-out", "", "baseline/search: write the fitted model weights as JSON")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: kgeval [flags] <baseline|search|compare>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	opts := options{command: fs.Arg(0), plotPath: *plotPath, modelOut: *modelOut}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "kgeval: %v\n", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Dataset = *dataPath
		case "seed":
			cfg.SetSeed(*seed)
		case "test-fraction":
			cfg.TestFraction = *testFraction
		case "workers":
			cfg.Search.Workers = *workers
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "kgeval: %v\n", err)
		return 1
	}

	if err := log.SetupLogger(stderr, cfg.LogLevel); err != nil {
		fmt.Fprintf(stderr, "kgeval: %v\n", err)
		return 1
	}

	runID := uuid.NewString()
	if err := execute(ctx, cfg, opts, runID, stdout); err != nil {
		slog.Error("kgeval failed", log.ErrAttr(err), slog.String("command", opts.command), slog.String(log.RunIDKey, runID))
		fmt.Fprintf(stderr, "kgeval: %v\n", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, cfg *config.Config, opts options, runID string, stdout io.Writer) error {
	switch opts.command {
	case "baseline", "search", "compare":
	default:
		return errors.Newf("unknown command %q (want baseline, search or compare)", opts.command)
	}

	ds, err := dataset.LoadCSV(cfg.Dataset)
	if err != nil {
		return err
	}

	logger := log.GetLoggerWithName("evaluation").With(log.RunIDKey, runID, log.RandomSeedKey, cfg.RandomSeed())
	logger.Info("dataset loaded", log.SamplesKey, len(ds.Records), log.OperationKey, opts.command)

	baseline := evaluation.NewBaselineTrainer(cfg.BaselineConfig(), evaluation.WithLogger(logger))
	search, err := evaluation.NewGridSearchTrainer(cfg.SearchConfig(), evaluation.WithLogger(logger))
	if err != nil {
		return err
	}

	switch opts.command {
	case "compare":
		out, err := evaluation.NewComparator(baseline, search, report.Formatter{}, cfg.TestFraction, cfg.RandomSeed(), evaluation.WithLogger(logger)).Compare(ctx, ds)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, out)
		return err

	case "baseline":
		design, err := features.Build(ds)
		if err != nil {
			return err
		}
		artifact, r, err := baseline.Train(ctx, design.X, design.Y, cfg.TestFraction, cfg.RandomSeed())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(stdout, report.FormatBaseline(r)); err != nil {
			return err
		}
		return writeWeights(opts.modelOut, artifact.Weights(design.Columns))

	default:
		design, err := features.Build(ds)
		if err != nil {
			return err
		}
		result, err := search.Search(ctx, design.X, design.Y, cfg.RandomSeed())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(stdout, report.FormatSearch(result)); err != nil {
			return err
		}
		if opts.plotPath != "" {
			if err := report.PlotFoldAccuracies(result, opts.plotPath); err != nil {
				return err
			}
		}
		return writeWeights(opts.modelOut, result.Model.Weights(design.Columns))
	}
}

func writeWeights(path string, w *model.ModelWeights) error {
	if path == "" {
		return nil
	}
	if err := w.Validate(); err != nil {
		return errors.Wrap(err, "model weights")
	}
	data, err := w.ToJSON()
	if err != nil {
		return errors.Wrap(err, "encode model weights")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
