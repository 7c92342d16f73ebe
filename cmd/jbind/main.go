package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/jbind"
	"github.com/jward/jbind/internal/config"
)

var (
	flagFormat    string
	flagVerbose   bool
	flagJavaHome  string
	flagClasspath string
	flagTimeout   time.Duration
	flagWorkers   int
	flagSerial    bool
)

// stdout and stderr are swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "jbind",
	Short:         "Reflect Java classes into a model for binding generators",
	Long:          "jbind reads declaration files, reflects the requested Java classes with javap, and answers questions about the resulting class model.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagFormat, "format", "json", "output format: json|text")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log javap invocations and timings to stderr")
	pf.StringVar(&flagJavaHome, "java-home", "", "JDK root (overrides jbind.toml and JAVA_HOME)")
	pf.StringVar(&flagClasspath, "classpath", "", "classpath passed to javap (overrides jbind.toml and CLASSPATH)")
	pf.DurationVar(&flagTimeout, "timeout", 0, "per-class javap timeout (default 30s)")
	pf.IntVar(&flagWorkers, "workers", 0, "concurrent javap processes (default: one per CPU)")
	pf.BoolVar(&flagSerial, "serial", false, "reflect one declaration at a time")

	rootCmd.AddCommand(reflectCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(hierarchyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(scriptCmd)
}

// newLogger returns a stderr text logger, at debug level with --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig layers jbind.toml (found from the working directory upward),
// the environment and command-line flags.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	cfg, err := config.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	if flagJavaHome != "" {
		cfg.JavaHome = flagJavaHome
	}
	if flagClasspath != "" {
		cfg.Classpath = flagClasspath
	}
	if flagTimeout != 0 {
		cfg.Timeout = flagTimeout
	}
	return cfg, nil
}

// newEngine builds an Engine from the layered configuration.
func newEngine() (*jbind.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return jbind.New(cfg,
		jbind.WithLogger(newLogger()),
		jbind.WithWorkers(flagWorkers),
		jbind.WithParallel(!flagSerial),
	)
}
