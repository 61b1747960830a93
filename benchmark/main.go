// Package main times the read paths of the orgpulse CLI against an existing
// snapshot store. Each command runs several times per output format; the first
// successful run counts as cold and the rest are averaged as warm.
//
// Prerequisites:
// - orgpulse binary installed and available in PATH
// - A store holding at least one snapshot (run 'orgpulse collect' first)
//
// Usage: go run benchmark/main.go [db-backend] [db-connect]
//
//	db-backend: sqlite (default), mysql or postgresql
//	db-connect: connection string; empty uses ~/.orgpulse.db for sqlite
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the timings of one command in one output format.
type BenchmarkResult struct {
	Command  string
	Format   string
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Backend  string
	Connect  string
	Timeout  time.Duration
	Runs     int
	Formats  []string
	Commands [][]string
}

func main() {
	config := BenchmarkConfig{
		Backend: "sqlite",
		Timeout: 2 * time.Minute,
		Runs:    5,
		Formats: []string{"text", "json", "csv"},
		Commands: [][]string{
			{"snapshot", "list"},
			{"report", "orgs"},
			{"report", "repos"},
			{"report", "contributors"},
			{"report", "repos", "--sort", "lines"},
		},
	}
	if len(os.Args) > 1 {
		config.Backend = os.Args[1]
	}
	if len(os.Args) > 2 {
		config.Connect = os.Args[2]
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)
	exportTime := runExportBenchmark(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results, exportTime)
}

// storeEnv returns the environment selecting the configured store.
func (c BenchmarkConfig) storeEnv() []string {
	return append(os.Environ(),
		"ORGPULSE_DB_BACKEND="+c.Backend,
		"ORGPULSE_DB_CONNECT="+c.Connect,
		"NO_COLOR=1",
	)
}

// checkPrerequisites verifies that the binary exists and the store has a snapshot.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("orgpulse"); err != nil {
		return fmt.Errorf("orgpulse binary not found in PATH")
	}

	cmd := exec.Command("orgpulse", "snapshot", "list", "--output", "csv")
	cmd.Env = config.storeEnv()
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("snapshot store is not readable: %v\n%s", err, output)
	}
	// A header line alone means no snapshots.
	if lines := strings.Split(strings.TrimSpace(string(output)), "\n"); len(lines) < 2 {
		return fmt.Errorf("snapshot store is empty; run 'orgpulse collect' first")
	}
	return nil
}

// runBenchmarks times every command in every output format.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %s store, %d commands, %d formats, %d runs, %v timeout\n",
		config.Backend, len(config.Commands), len(config.Formats), config.Runs, config.Timeout)

	for _, command := range config.Commands {
		name := strings.Join(command, " ")
		fmt.Printf("Benchmarking %s\n", name)
		for _, format := range config.Formats {
			args := append(append([]string{}, command...), "--output", format)

			cold, warm := runBenchmark(config, args)
			result := BenchmarkResult{
				Command:  name,
				Format:   format,
				ColdTime: formatSeconds(cold),
				WarmTime: formatAverage(warm),
			}
			fmt.Printf("  %-5s cold: %s, warm average: %s\n", format, result.ColdTime, result.WarmTime)
			results = append(results, result)
		}
	}

	return results
}

// runExportBenchmark times one Parquet export into a temporary directory.
func runExportBenchmark(config BenchmarkConfig) string {
	dir, err := os.MkdirTemp("", "orgpulse_benchmark")
	if err != nil {
		fmt.Printf("Warning: failed to create export directory: %v\n", err)
		return "SKIPPED"
	}
	defer func() { _ = os.RemoveAll(dir) }()

	once := config
	once.Runs = 1
	cold, _ := runBenchmark(once, []string{"snapshot", "export", "--output-file", filepath.Join(dir, "orgpulse")})
	return formatSeconds(cold)
}

// runBenchmark executes an orgpulse command numRuns times and returns the cold time and warm times.
// Failed and timed out runs are left out of both.
func runBenchmark(config BenchmarkConfig, args []string) (coldTime float64, warmTimes []float64) {
	var times []float64
	for run := 1; run <= config.Runs; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		cmd := exec.CommandContext(ctx, "orgpulse", args...)
		cmd.Env = config.storeEnv()
		output, err := cmd.CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err != nil {
			fmt.Printf("    run %d failed: %v\n", run, firstLine(output, err))
			continue
		}
		times = append(times, elapsed)
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

func firstLine(output []byte, err error) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	if line == "" {
		return err.Error()
	}
	return line
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "FAILED"
	}
	return fmt.Sprintf("%.3fs", seconds)
}

func formatAverage(times []float64) string {
	if len(times) == 0 {
		return "N/A"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return formatSeconds(sum / float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("orgpulse_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"cmd", "format", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Command, result.Format, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results grouped by output format.
func printSummary(results []BenchmarkResult, exportTime string) {
	fmt.Printf("Benchmark complete\n")
	for _, format := range []string{"text", "json", "csv"} {
		fmt.Printf("%s output:\n", strings.ToUpper(format))
		for _, result := range results {
			if result.Format == format {
				fmt.Printf("  %-28s: Cold: %s, Warm: %s\n", result.Command, result.ColdTime, result.WarmTime)
			}
		}
	}
	fmt.Printf("Parquet export: %s\n", exportTime)
}
