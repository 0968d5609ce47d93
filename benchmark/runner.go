package benchmark

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config defines the benchmark parameters passed from CLI
type Config struct {
	Command     string        // "add", "delete", anything else queries
	Repetition  int           // add: documents to insert, query: timed passes
	StoreType   string        // "mongo", "pebble" or "mdbx"
	URL         string        // server URL for remote backends
	Database    string        // database name for remote backends
	DBPath      string        // directory for embedded backends
	Field       string        // "first" or "last"
	WarmUp      time.Duration // pause before each timed window
	BenchmarkID string        // optional label for this benchmark run
	LogFormat   string        // "json" or "console", default is "console"
}

// Command names
const (
	CommandAdd    = "add"
	CommandDelete = "delete"
	CommandQuery  = "query"
)

// QueryResult is the outcome of one full scan.
type QueryResult struct {
	Matches int
	Total   int
}

// RunBenchmark opens the store described by cfg, runs one command and prints
// its report to out.
func RunBenchmark(ctx context.Context, cfg Config, out io.Writer) error {
	setupLog(cfg)
	initialLog(cfg)

	field, err := ParseField(cfg.Field)
	if err != nil {
		return err
	}

	store, err := NewDocumentStore(ctx, storeConfig(cfg))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := Dispatch(ctx, store, cfg, field, out); err != nil {
		return err
	}

	metrics := store.GetMetrics()
	log.Info().
		Str("benchmark_id", cfg.BenchmarkID).
		Uint64("documents_stored", metrics.DocumentCount).
		Uint64("documents_deleted", metrics.DeletedCount).
		Uint64("commits", metrics.CommitCount).
		Uint64("queries", metrics.QueryCount).
		Interface("backend", metrics.BackendSpecific).
		Msg("Benchmark complete")
	return nil
}

// Dispatch runs cfg.Command against an already open store. Unknown commands
// run the query benchmark.
func Dispatch(ctx context.Context, store DocumentStore, cfg Config, field Field, out io.Writer) error {
	var (
		report Report
		err    error
	)
	switch cfg.Command {
	case CommandAdd:
		report, err = GenerateData(ctx, store, cfg.Repetition, cfg.WarmUp)
	case CommandDelete:
		report, err = DeleteData(ctx, store, cfg.WarmUp)
	default:
		var result QueryResult
		result, report, err = RunQueryBenchmark(ctx, store, field, cfg.Repetition, cfg.WarmUp)
		if err == nil {
			log.Info().
				Int("matches", result.Matches).
				Int("total", result.Total).
				Str("field", string(field)).
				Msg("Query result")
		}
	}
	if err != nil {
		return err
	}

	report.Log(fmt.Sprintf("%s benchmark complete", commandName(cfg.Command)))
	return report.Write(out)
}

func commandName(cmd string) string {
	switch cmd {
	case CommandAdd, CommandDelete:
		return cmd
	default:
		return CommandQuery
	}
}

// GenerateData stores count synthetic employees in one session with a single
// commit.
func GenerateData(ctx context.Context, store DocumentStore, count int, warmUp time.Duration) (Report, error) {
	m := StartMeasurement(warmUp)

	if err := withSession(ctx, store, func(s Session) error {
		for e := range GenerateEmployees(count) {
			if err := s.Store(e); err != nil {
				return err
			}
		}
		return s.SaveChanges(ctx)
	}); err != nil {
		return Report{}, err
	}

	return m.Stop(count, 1), nil
}

// DeleteData deletes every employee in one session with a single commit.
func DeleteData(ctx context.Context, store DocumentStore, warmUp time.Duration) (Report, error) {
	m := StartMeasurement(warmUp)

	count := 0
	if err := withSession(ctx, store, func(s Session) error {
		for e, err := range s.Query(ctx) {
			if err != nil {
				return err
			}
			if err := s.Delete(e); err != nil {
				return err
			}
			count++
		}
		return s.SaveChanges(ctx)
	}); err != nil {
		return Report{}, err
	}

	return m.Stop(count, 1), nil
}

// QueryData scans all employees and counts those whose field ends in '0'.
func QueryData(ctx context.Context, store DocumentStore, field Field) (QueryResult, error) {
	var result QueryResult
	err := withSession(ctx, store, func(s Session) error {
		for e, err := range s.Query(ctx) {
			if err != nil {
				return err
			}
			result.Total++
			if field.Matches(e) {
				result.Matches++
			}
		}
		return nil
	})
	return result, err
}

// RunQueryBenchmark primes the store with one untimed query, then times
// repetition queries back to back. Only the last result is kept.
func RunQueryBenchmark(ctx context.Context, store DocumentStore, field Field, repetition int, warmUp time.Duration) (QueryResult, Report, error) {
	if _, err := QueryData(ctx, store, field); err != nil {
		return QueryResult{}, Report{}, err
	}

	m := StartMeasurement(warmUp)

	var result QueryResult
	for i := 0; i < repetition; i++ {
		var err error
		result, err = QueryData(ctx, store, field)
		if err != nil {
			return QueryResult{}, Report{}, err
		}
	}

	return result, m.Stop(result.Total, repetition), nil
}

// withSession opens a session, runs fn and always closes the session.
func withSession(ctx context.Context, store DocumentStore, fn func(Session) error) error {
	s, err := store.OpenSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func initialLog(cfg Config) {
	log.Info().
		Str("benchmark_id", cfg.BenchmarkID).
		Str("backend", cfg.StoreType).
		Str("command", cfg.Command).
		Int("repetition", cfg.Repetition).
		Str("field", cfg.Field).
		Dur("warm_up", cfg.WarmUp).
		Msg("Starting benchmark")
}

func setupLog(cfg Config) {
	if strings.ToLower(cfg.LogFormat) == "json" {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}

func storeConfig(cfg Config) StoreConfig {
	storeType := StoreType(cfg.StoreType)
	if storeType == "" {
		storeType = StoreTypeMongo
	}
	return StoreConfig{
		Type:     storeType,
		URL:      cfg.URL,
		Database: cfg.Database,
		Path:     cfg.DBPath,
	}
}
