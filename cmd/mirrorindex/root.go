package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/mirrorindex/internal/config"
	"github.com/dshills/mirrorindex/internal/indexer"
	"github.com/dshills/mirrorindex/internal/logging"
	"github.com/dshills/mirrorindex/internal/storage"
)

// cliFlags holds the command-line overrides. Only flags the user actually set
// replace config values.
type cliFlags struct {
	configFile     string
	root           string
	out            string
	formats        string
	indexFile      string
	categoriesFile string
	pretty         bool
	noPretty       bool
	verbose        bool
	db             string
	logFile        string
	includeEmpty   bool
	concurrency    int
	ignore         []string
}

// app is the state shared by every command after flags are parsed
type app struct {
	flags  cliFlags
	cfg    *config.Config
	logger *logging.Logger
	stderr io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{stderr: os.Stderr}

	root := &cobra.Command{
		Use:           "mirrorindex",
		Short:         "Index a static file mirror into index.json and categories.json",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return a.logger.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBuild(cmd.Context())
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("mirrorindex %s\nBuild Time: %s\nBuild Mode: %s\nSQLite Driver: %s\n",
		version, buildTime, storage.BuildMode, storage.DriverName))

	f := &a.flags
	pf := root.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "Path to YAML config file")
	pf.StringVar(&f.root, "root", "", "Directory to scan (default: .)")
	pf.StringVar(&f.out, "out", "", "Output directory, relative to --root unless absolute (default: "+config.DefaultOut+")")
	pf.StringVar(&f.indexFile, "index-file", "", "Index file name (default: "+config.DefaultIndexFile+")")
	pf.StringVar(&f.categoriesFile, "categories-file", "", "Categories file name (default: "+config.DefaultCategoriesFile+")")
	pf.StringVar(&f.db, "db", "", "Also save each build to this SQLite database")
	pf.StringVar(&f.logFile, "log-file", "", "Also write logs to this file, with rotation")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Enable debug logging")

	bf := root.Flags()
	bf.StringVar(&f.formats, "formats", "", "Comma-separated artifacts to keep: index,categories")
	bf.BoolVar(&f.pretty, "pretty", true, "Indent JSON output")
	bf.BoolVar(&f.noPretty, "no-pretty", false, "Write compact JSON (wins over --pretty)")
	bf.BoolVar(&f.includeEmpty, "include-empty", false, "Keep categories without files")
	bf.IntVar(&f.concurrency, "concurrency", 0, "Parallel lstat calls per directory")
	bf.StringArrayVar(&f.ignore, "ignore", nil, "Extra ignore entry, repeatable")

	root.AddCommand(
		newServeCmd(a),
		newAggregateCmd(a),
	)
	return root
}

// setup loads the config, applies environment and flag overrides, and
// creates the logger
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.flags.configFile)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.New(logging.Options{
		Verbose: cfg.Log.Verbose,
		File:    cfg.Log.File,
		Rotation: logging.Rotation{
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		},
		Output: a.stderr,
	})
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := &a.flags
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("root") {
		cfg.Root = f.root
	}
	if changed("out") {
		cfg.Out = f.out
	}
	if changed("index-file") {
		cfg.IndexFile = f.indexFile
	}
	if changed("categories-file") {
		cfg.CategoriesFile = f.categoriesFile
	}
	if changed("formats") {
		cfg.Formats = config.ParseFormats(f.formats)
		if len(cfg.Formats) == 0 {
			cfg.Formats = []string{config.FormatIndex, config.FormatCategories}
		}
	}
	if changed("pretty") {
		cfg.SetPretty(f.pretty)
	}
	if changed("no-pretty") && f.noPretty {
		cfg.SetPretty(false)
	}
	if changed("include-empty") {
		cfg.IncludeEmpty = f.includeEmpty
	}
	if changed("concurrency") && f.concurrency > 0 {
		cfg.Concurrency = f.concurrency
	}
	if changed("ignore") {
		cfg.Ignore = append(cfg.Ignore, f.ignore...)
	}
	if changed("db") {
		cfg.Database = f.db
	}
	if changed("log-file") {
		cfg.Log.File = f.logFile
	}
	if changed("verbose") {
		cfg.Log.Verbose = f.verbose
	}
}

// runBuild runs one build. Errors are logged as indexer:error and returned
// so the process exits non-zero.
func (a *app) runBuild(ctx context.Context) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	logger := a.logger.Named("indexer")

	var sink indexer.Sink
	if a.cfg.Database != "" {
		store, err := storage.NewSQLiteStorage(a.cfg.Database)
		if err != nil {
			logger.Error("indexer:error", logging.Fields{"error": err})
			return err
		}
		defer func() { _ = store.Close() }()
		sink = store
	}

	if _, err := indexer.New(sink, logger).Build(ctx, indexer.OptionsFromConfig(a.cfg)); err != nil {
		logger.Error("indexer:error", logging.Fields{"error": err})
		return err
	}
	return nil
}

// signalContext cancels on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
