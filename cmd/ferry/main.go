package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/ferry/internal/config"
	"github.com/bamsammich/ferry/internal/engine"
	"github.com/bamsammich/ferry/internal/event"
	"github.com/bamsammich/ferry/internal/filter"
	"github.com/bamsammich/ferry/internal/host"
	"github.com/bamsammich/ferry/internal/manifest"
	"github.com/bamsammich/ferry/internal/pattern"
	"github.com/bamsammich/ferry/internal/stats"
	"github.com/bamsammich/ferry/internal/ui"
	"github.com/bamsammich/ferry/internal/watch"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// ignoreFlag is a repeatable pflag.Value that keeps --ignore rules in CLI
// order.
type ignoreFlag struct {
	rules *[]string
}

var _ pflag.Value = (*ignoreFlag)(nil)

func (*ignoreFlag) String() string { return "" }
func (*ignoreFlag) Type() string   { return "string" }

func (f *ignoreFlag) Set(val string) error {
	if _, err := filter.FromRules([]string{val}, false); err != nil {
		return err
	}
	*f.rules = append(*f.rules, val)
	return nil
}

// cliFlags holds every root command flag.
type cliFlags struct {
	configPath      string
	contextDir      string
	output          string
	devServerOutput string
	concurrency     int
	fileConcurrency int
	copyUnmodified  bool
	debug           string
	ignore          []string
	ignoreFile      string
	workers         int
	bwLimitStr      string
	useManifest     bool
	watchFlag       bool
	logFile         string
	verbose         bool
	quiet           bool
	dryRun          bool
	noProgress      bool
	showVersion     bool
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: main CLI entry point wires every subsystem
func run() int {
	var f cliFlags

	rootCmd := &cobra.Command{
		Use:   "ferry [flags] [FROM[=TO]]...",
		Short: "Copy files and directories into a build's output",
		Long: `ferry copies files named by patterns into an output directory.

Patterns come from a project file (ferry.toml, ferry.yaml) in the working
directory or --config, followed by any FROM[=TO] arguments. A FROM may be a
file, a directory or a glob; TO may be a directory, a file name or a
template such as "img/[name].[hash:8].[ext]".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.showVersion {
				fmt.Fprintf(os.Stdout, "ferry %s\n", version)
				return nil
			}

			project, err := loadProject(f.configPath)
			if err != nil {
				return err
			}

			// Load optional user config file.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults, &f)
			applyProjectOptions(cmd, project, &f)

			// Configure logging.
			engineLevel, err := engine.ParseDebug(f.debug)
			if err != nil {
				return fmt.Errorf("invalid --debug: %w", err)
			}
			logLevel := slog.LevelInfo
			if f.verbose {
				logLevel = slog.LevelDebug
			} else if f.quiet {
				logLevel = slog.LevelWarn
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: min(logLevel, engineLevel),
			})
			var logHandler slog.Handler = textHandler
			if f.logFile != "" {
				lf, lfErr := os.Create(f.logFile)
				if lfErr != nil {
					return fmt.Errorf("open log file: %w", lfErr)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})
				logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
			}
			logger := slog.New(logHandler)
			slog.SetDefault(logger)

			var bwLimit int64
			if f.bwLimitStr != "" {
				bwLimit, err = filter.ParseSize(f.bwLimitStr)
				if err != nil {
					return fmt.Errorf("invalid --bwlimit: %w", err)
				}
			}

			ignore := append([]string(nil), f.ignore...)
			if f.ignoreFile != "" {
				chain := filter.NewChain(false)
				if err := chain.LoadFile(f.ignoreFile); err != nil {
					return err
				}
				ignore = append(ignore, chain.Rules()...)
			}

			roots, err := resolveRoots(cmd, project, &f)
			if err != nil {
				return err
			}

			var specs []pattern.Spec
			if project != nil {
				if specs, err = project.Specs(); err != nil {
					return err
				}
			}
			specs = append(specs, parsePatternArgs(args)...)
			if len(specs) == 0 {
				slog.Warn("no patterns configured")
			}

			// Set up context with signal handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			// When --log is set, tee events through a logging goroutine
			// that writes structured records before forwarding to the presenter.
			presenterEvents := (<-chan event.Event)(events)
			if f.logFile != "" {
				teed := make(chan event.Event, 256)
				go func() {
					for ev := range events {
						ui.LogEvent(context.Background(), logger, ev)
						teed <- ev
					}
					close(teed)
				}()
				presenterEvents = teed
			}

			presenter := ui.NewPresenter(ui.Config{
				Writer:     os.Stdout,
				ErrWriter:  os.Stderr,
				IsTTY:      ui.IsTTY(os.Stderr.Fd()),
				Quiet:      f.quiet,
				Verbose:    f.verbose || f.dryRun,
				NoProgress: f.noProgress || f.watchFlag,
				Stats:      collector,
			})

			var emitter *host.Emitter
			if f.dryRun {
				slog.Info("dry run mode")
			} else {
				var man host.Manifest
				if f.useManifest {
					db, dbErr := manifest.Open(roots.ResolveOutput())
					if dbErr != nil {
						slog.Warn("manifest unavailable", "error", dbErr)
					} else {
						defer db.Close()
						man = db
					}
				}
				emitter = host.NewEmitter(host.EmitterConfig{
					Manifest: man,
					Events:   events,
					Stats:    collector,
					Logger:   logger,
					Workers:  f.workers,
					BWLimit:  bwLimit,
				})
				defer emitter.Close()
			}

			plugin, err := engine.New(specs, engine.Options{
				Ignore:          ignore,
				CopyUnmodified:  f.copyUnmodified,
				Concurrency:     f.concurrency,
				FileConcurrency: f.fileConcurrency,
				Debug:           f.debug,
				Logger:          logger,
				Events:          events,
				Stats:           collector,
			})
			if err != nil {
				return err
			}

			compiler := host.NewCompiler(roots, emitter)
			compiler.Use(plugin)

			var presenterErr error
			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				presenterErr = presenter.Run(presenterEvents)
			}()

			slog.Debug("starting build",
				"context", roots.Context,
				"output", roots.ResolveOutput(),
				"patterns", len(specs),
			)

			comp := compiler.Run(ctx)
			if f.dryRun {
				printDryRun(comp)
			}
			if f.watchFlag {
				err = watchLoop(ctx, compiler, comp, logger)
			}

			stop()
			close(events)
			presenterWg.Wait()
			if presenterErr != nil {
				fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
			}

			if !f.quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
			}

			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if errs := comp.Errors(); len(errs) > 0 && !f.watchFlag {
				slog.Error("build failed", "errors", len(errs))
				if comp.Assets.Len() > 0 {
					return &exitError{code: 1} // partial failure
				}
				return &exitError{code: 2} // total failure
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&f.showVersion, "version", false, "print version and exit")

	rootCmd.Flags().StringVarP(&f.configPath, "config", "c", "", "project file (default: ferry.toml or ferry.yaml in the working directory)")
	rootCmd.Flags().StringVar(&f.contextDir, "context", "", "directory relative sources resolve against (default: working directory)")
	rootCmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory")
	rootCmd.Flags().
		StringVar(&f.devServerOutput, "dev-server-output", "", "output directory used when --output is /")
	rootCmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "patterns processed at once (default: unbounded)")
	rootCmd.Flags().
		IntVar(&f.fileConcurrency, "file-concurrency", engine.DefaultFileConcurrency, "files processed at once within a pattern")
	rootCmd.Flags().
		BoolVar(&f.copyUnmodified, "copy-unmodified", false, "copy repeated sources even when their content is unchanged")
	rootCmd.Flags().StringVar(&f.debug, "debug", "", "plugin log level: warning, info or debug")
	rootCmd.Flags().
		Var(&ignoreFlag{rules: &f.ignore}, "ignore", "ignore sources matching PATTERN in every pattern (repeatable, !PATTERN re-includes)")
	rootCmd.Flags().StringVar(&f.ignoreFile, "ignore-file", "", "read ignore rules from FILE")
	rootCmd.Flags().
		IntVarP(&f.workers, "workers", "n", 0, "number of emit workers (default: min(NumCPU*2, 32))")
	rootCmd.Flags().StringVar(&f.bwLimitStr, "bwlimit", "", "emit bandwidth limit (e.g. 100M, 1G)")
	rootCmd.Flags().
		BoolVar(&f.useManifest, "manifest", true, "skip rewriting outputs unchanged since the last run")
	rootCmd.Flags().BoolVarP(&f.watchFlag, "watch", "w", false, "rebuild when sources change")
	rootCmd.Flags().StringVar(&f.logFile, "log", "", "write structured JSON log to FILE")
	rootCmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "show what would be written without writing")
	rootCmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "disable the progress line")

	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// loadProject loads the project file at path, or the one in the working
// directory when path is empty. No project file is not an error.
func loadProject(path string) (*config.Project, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if path = config.FindProject(wd); path == "" {
			return nil, nil //nolint:nilnil // absent project file
		}
	}
	return config.LoadProject(path)
}

// applyConfigDefaults applies user config defaults for flags not explicitly
// set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig, f *cliFlags) {
	if !cmd.Flags().Changed("concurrency") && defaults.Concurrency != nil {
		f.concurrency = *defaults.Concurrency
	}
	if !cmd.Flags().Changed("file-concurrency") && defaults.FileConcurrency != nil {
		f.fileConcurrency = *defaults.FileConcurrency
	}
	if !cmd.Flags().Changed("workers") && defaults.Workers != nil {
		f.workers = *defaults.Workers
	}
	if !cmd.Flags().Changed("debug") && defaults.Debug != nil {
		f.debug = *defaults.Debug
	}
	if !cmd.Flags().Changed("copy-unmodified") && defaults.CopyUnmodified != nil {
		f.copyUnmodified = *defaults.CopyUnmodified
	}
	if !cmd.Flags().Changed("manifest") && defaults.Manifest != nil {
		f.useManifest = *defaults.Manifest
	}
	if !cmd.Flags().Changed("bwlimit") && defaults.BWLimit != nil {
		f.bwLimitStr = *defaults.BWLimit
	}
}

// applyProjectOptions lets project file options override user defaults.
// Explicit flags still win.
func applyProjectOptions(cmd *cobra.Command, project *config.Project, f *cliFlags) {
	if project == nil {
		return
	}
	opts := project.Options
	f.ignore = append(append([]string(nil), opts.Ignore...), f.ignore...)
	if !cmd.Flags().Changed("concurrency") && opts.Concurrency > 0 {
		f.concurrency = opts.Concurrency
	}
	if !cmd.Flags().Changed("file-concurrency") && opts.FileConcurrency > 0 {
		f.fileConcurrency = opts.FileConcurrency
	}
	if !cmd.Flags().Changed("copy-unmodified") && opts.CopyUnmodified {
		f.copyUnmodified = true
	}
	if level := opts.DebugLevel(); !cmd.Flags().Changed("debug") && level != "" {
		f.debug = level
	}
}

// resolveRoots picks the build roots: explicit flags, then the project
// file, then the working directory for the context.
func resolveRoots(cmd *cobra.Command, project *config.Project, f *cliFlags) (host.Options, error) {
	var opts host.Options
	if project != nil {
		opts = host.Options{
			Context:             project.Context,
			OutputPath:          project.Output,
			DevServerOutputPath: project.DevServerOutput,
		}
	}
	if cmd.Flags().Changed("context") || opts.Context == "" {
		opts.Context = f.contextDir
	}
	if cmd.Flags().Changed("output") {
		opts.OutputPath = f.output
	}
	if cmd.Flags().Changed("dev-server-output") {
		opts.DevServerOutputPath = f.devServerOutput
	}

	var err error
	if opts.Context, err = absPath(opts.Context); err != nil {
		return opts, err
	}
	if opts.OutputPath == "" {
		return opts, errors.New("no output directory: set --output or output in the project file")
	}
	if opts.OutputPath != "/" {
		if opts.OutputPath, err = absPath(opts.OutputPath); err != nil {
			return opts, err
		}
	}
	if opts.DevServerOutputPath != "" {
		if opts.DevServerOutputPath, err = absPath(opts.DevServerOutputPath); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func absPath(p string) (string, error) {
	if p == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return abs, nil
}

// parsePatternArgs turns FROM[=TO] arguments into patterns.
func parsePatternArgs(args []string) []pattern.Spec {
	specs := make([]pattern.Spec, 0, len(args))
	for _, arg := range args {
		from, to, _ := strings.Cut(arg, "=")
		specs = append(specs, pattern.Spec{From: from, To: to})
	}
	return specs
}

// watchLoop rebuilds whenever a dependency of the last build changes, until
// ctx is canceled.
func watchLoop(ctx context.Context, compiler *host.Compiler, comp *host.Compilation, logger *slog.Logger) error {
	w, err := watch.New(watch.DefaultDebounce, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		if err := w.Reset(comp.FileDependencies.List(), comp.ContextDependencies.List()); err != nil {
			logger.Warn("watch incomplete", "error", err)
		}
		logger.Info("watching for changes",
			"files", comp.FileDependencies.Len(),
			"dirs", len(comp.ContextDependencies.List()),
		)

		changed, err := w.Wait(ctx)
		if err != nil {
			return err
		}
		logger.Info("rebuilding", "changed", len(changed))

		comp = compiler.Run(ctx)
		if errs := comp.Errors(); len(errs) > 0 {
			logger.Warn("rebuild finished with errors", "errors", len(errs))
		}
	}
}

func printDryRun(comp *host.Compilation) {
	for _, p := range comp.Assets.Paths() {
		a, _ := comp.Assets.Get(p)
		fmt.Fprintf(os.Stdout, "would write %s  %s\n", p, ui.FormatBytes(a.Size()))
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
