package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/korjavin/integralsheet/bot"
	"github.com/korjavin/integralsheet/cas"
	"github.com/korjavin/integralsheet/config"
	"github.com/korjavin/integralsheet/database"
	"github.com/korjavin/integralsheet/latex"
	"github.com/korjavin/integralsheet/pipeline"
)

var (
	configPath string
	verbose    bool

	inputPath string
	compile   bool
	exact     bool
	recent    int

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "integralsheet",
	Short:         "Solve integral assignments and typeset the answer sheet",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = buildLogger(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Process an assignment file into intermediate JSON, LaTeX and PDF",
	RunE:  runGenerate,
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <expression>",
	Short: "Print the LaTeX form of a solver expression",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := latex.Rewrite(args[0])
		if exact {
			out = latex.FormatExactSolution(args[0])
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	},
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	RunE:  runBot,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the run history",
	RunE:  runStats,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	generateCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to input JSON file")
	generateCmd.Flags().BoolVar(&compile, "compile", true, "Compile the PDF with pdflatex (default from output.compile_pdf)")
	_ = generateCmd.MarkFlagRequired("input")

	rewriteCmd.Flags().BoolVar(&exact, "exact", false, "Format as an exact solution (fractions become \\frac)")

	statsCmd.Flags().IntVarP(&recent, "recent", "n", 5, "Number of recent runs to list")

	rootCmd.AddCommand(generateCmd, rewriteCmd, botCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildLogger follows logging.level and logging.format; --verbose forces debug.
func buildLogger(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	level := zapcore.InfoLevel
	if lc.Level != "" {
		if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
			return nil, fmt.Errorf("invalid logging.level %q: %w", lc.Level, err)
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func openStore() (*database.DB, error) {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func newProcessor(db *database.DB) *pipeline.Processor {
	client := cas.NewClient(cfg.CAS.BaseURL, cfg.CAS.APIKey, cfg.GetCASTimeout(), logger)
	return pipeline.NewProcessor(cfg, client, db, logger)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cmd.Flags().Changed("compile") {
		compile = cfg.Output.CompilePDF
	}
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file %q: %w", inputPath, err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	out, err := newProcessor(db).Generate(ctx, inputPath, compile)
	if err != nil {
		return err
	}
	info := out.Assignment.Metadata.ProcessingInfo
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Intermediate JSON: %s\n", out.Intermediate)
	fmt.Fprintf(w, "LaTeX: %s\n", out.TeX)
	if out.PDF != "" {
		fmt.Fprintf(w, "PDF: %s\n", out.PDF)
	}
	if len(info.Errors) > 0 {
		fmt.Fprintf(w, "Encountered %d errors during processing\n", len(info.Errors))
	}
	return nil
}

func runBot(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateBot(); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	b, err := bot.New(cfg, db, newProcessor(db), logger)
	if err != nil {
		return err
	}
	logger.Info("bot initialized")
	b.Start(ctx)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.GetRunStats()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Runs: %d\nExercises: %d\nFailed: %d\n", stats.Runs, stats.Exercises, stats.Failed)

	runs, err := db.RecentRuns(recent)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %d exercises, %d failed, %s\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.Source, r.Total, r.Failed, r.Duration)
	}
	return nil
}
