package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tclemos/docbench/benchmark"
)

var (
	storeType   string
	url         string
	database    string
	dbPath      string
	field       string
	warmUp      time.Duration
	benchmarkID string
	logFormat   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "docbench [flags] [--] [command] [repetition]",
	Short: "Benchmark inserts, full scans and deletes against a document store",
	Long: `docbench inserts synthetic employee documents, queries them back and
reports latency and allocation statistics.

Commands: add (insert <repetition> documents), delete (remove all documents),
anything else runs the query benchmark <repetition> times.

A negative repetition looks like a flag; put it after "--", for example
"docbench -- query -3".`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		command, repetition := ParseArgs(args)
		fmt.Fprintf(cmd.OutOrStdout(), "Command: %s %d\n", command, repetition)

		cfg := benchmark.Config{
			Command:     command,
			Repetition:  repetition,
			StoreType:   storeType,
			URL:         url,
			Database:    database,
			DBPath:      dbPath,
			Field:       field,
			WarmUp:      warmUp,
			BenchmarkID: benchmarkID,
			LogFormat:   logFormat,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := benchmark.RunBenchmark(ctx, cfg, cmd.OutOrStdout()); err != nil {
			log.Fatal().Err(err).Msg("Benchmark failed")
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&storeType, "backend", string(benchmark.StoreTypeMongo), "Document store backend: 'mongo', 'pebble' or 'mdbx'")
	rootCmd.Flags().StringVar(&url, "url", benchmark.DefaultURL, "Server URL of the remote document store")
	rootCmd.Flags().StringVar(&database, "database", benchmark.DefaultDatabase, "Database name on the remote document store")
	rootCmd.Flags().StringVar(&dbPath, "db-path", "", "Directory for embedded backends (default dbs/{engine}/northwind)")
	rootCmd.Flags().StringVar(&field, "field", string(benchmark.FieldFirstName), "Name field checked by the query predicate: 'first' or 'last'")
	rootCmd.Flags().DurationVar(&warmUp, "warm-up", benchmark.DefaultWarmUp, "Pause before each timed window")
	rootCmd.Flags().StringVar(&benchmarkID, "benchmark-id", "default", "Optional benchmark ID tag for logs")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "console", "Log format: 'json' or 'console'")
}
