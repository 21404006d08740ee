package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"featurepipe/internal/config"
	"featurepipe/internal/dataprocessing"
	apperrors "featurepipe/internal/errors"
	"featurepipe/internal/exporter"
	"featurepipe/internal/features"
	"featurepipe/internal/infrastructure"
	"featurepipe/internal/operations"
	"featurepipe/internal/validation"
	"featurepipe/pkg/contracts"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the command line overrides. Empty values keep the
// configured setting.
type options struct {
	configPath string
	input      string
	output     string
	sheet      string
	delimiter  string
	stages     string
	mode       string
	today      string
	bom        bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "path to config.yaml (defaults to ./config.yaml when present)")
	fs.StringVar(&opts.input, "in", "", "input CSV or XLSX file")
	fs.StringVar(&opts.output, "out", "", "output directory for stage CSV files")
	fs.StringVar(&opts.sheet, "sheet", "", "workbook sheet for XLSX input (defaults to the first sheet)")
	fs.StringVar(&opts.delimiter, "delimiter", "", "CSV field delimiter")
	fs.StringVar(&opts.stages, "stages", "", "comma separated stage ids to run (defaults to all)")
	fs.StringVar(&opts.mode, "mode", "", "execution mode: sequential or parallel")
	fs.StringVar(&opts.today, "today", "", "reference date for the time stage, YYYY-MM-DD")
	fs.BoolVar(&opts.bom, "bom", false, "prefix output files with a UTF-8 byte order mark")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// apply copies the set flags over the pipeline section
func (o *options) apply(p *config.PipelineConfig) {
	if o.input != "" {
		p.InputFile = o.input
	}
	if o.output != "" {
		p.OutputDir = o.output
	}
	if o.sheet != "" {
		p.Sheet = o.sheet
	}
	if o.delimiter != "" {
		p.Delimiter = o.delimiter
	}
	if o.stages != "" {
		p.Stages = nil
		for _, id := range strings.Split(o.stages, ",") {
			if id = strings.TrimSpace(id); id != "" {
				p.Stages = append(p.Stages, id)
			}
		}
	}
	if o.mode != "" {
		p.ExecutionMode = o.mode
	}
	if o.today != "" {
		p.Today = o.today
	}
	if o.bom {
		p.WriteBOM = true
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return 1
	}
	opts.apply(&cfg.Pipeline)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	logger := infrastructure.NewLogger(cfg.Logging, stderr)
	ctx = infrastructure.EnsureTraceID(ctx)

	files := validation.NewFileValidator(logger)
	if err := files.ValidateSource(cfg.Pipeline.InputFile); err != nil {
		if errors.Is(err, apperrors.ErrSourceMissing) {
			fmt.Fprintf(stderr, "Error: input file %s not found\n", cfg.Pipeline.InputFile)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	if err := files.ValidateOutputDirectory(cfg.Pipeline.OutputDir); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	source, err := dataprocessing.LoadFileWithOptions(cfg.Pipeline.InputFile, dataprocessing.EmployeeSchema(),
		dataprocessing.LoadOptions{Sheet: cfg.Pipeline.Sheet, Comma: cfg.Pipeline.Comma()})
	if err != nil {
		fmt.Fprintf(stderr, "Error loading %s: %v\n", cfg.Pipeline.InputFile, err)
		logger.ErrorContext(ctx, "source_load_failed",
			slog.String("input_file", cfg.Pipeline.InputFile),
			slog.String("error", err.Error()))
		return 1
	}
	fmt.Fprintf(stdout, "Loaded %s: %d rows, %d columns\n",
		cfg.Pipeline.InputFile, source.NumRows(), source.NumColumns())

	var clock features.Clock = features.SystemClock{}
	if today, ok := cfg.Pipeline.ReferenceDate(); ok {
		clock = features.FixedClock(today)
	}

	registry := operations.NewRegistry()
	sink := operations.NewFileSink(exporter.NewCSVWriter(cfg.Pipeline.OutputDir, cfg.Pipeline.WriteBOM), cfg.Pipeline.Outputs)
	if err := operations.RegisterStages(registry, features.DefaultStages(clock), sink); err != nil {
		fmt.Fprintf(stderr, "Error registering stages: %v\n", err)
		return 1
	}
	manager := operations.NewManager(registry, operations.ConfigFromPipeline(cfg.Pipeline),
		operations.WithLogger(logger))

	resp, runErr := manager.Execute(ctx, operations.OperationRequest{
		Steps:      cfg.Pipeline.Stages,
		SourceFile: cfg.Pipeline.InputFile,
	}, source)
	if resp == nil {
		fmt.Fprintf(stderr, "Error: %v\n", runErr)
		return 1
	}

	printReport(stdout, resp)
	if runErr != nil {
		fmt.Fprintf(stderr, "%d of %d stages failed\n", len(resp.Failed()), len(resp.Steps))
		return 1
	}
	return 0
}

// printReport writes one line per stage, then the produced files and sizes
func printReport(w io.Writer, resp *operations.OperationResponse) {
	for _, step := range resp.Steps {
		switch step.Status {
		case operations.StepStatusCompleted:
			fmt.Fprintf(w, "[%s] saved %s (%d rows, %d columns)\n", step.ID, step.OutputPath, step.Rows, step.Columns)
		case operations.StepStatusFailed:
			fmt.Fprintf(w, "[%s] failed: %s\n", step.ID, step.Error)
		default:
			fmt.Fprintf(w, "[%s] %s\n", step.ID, step.Status)
		}
	}

	fmt.Fprintln(w, "\nGenerated files:")
	for _, step := range resp.Steps {
		if step.Status != operations.StepStatusCompleted {
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", step.OutputPath, formatSize(step.Bytes))
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
