// Copyright SheetScan Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"sheetscan/internal/config"
	"sheetscan/internal/detector"
	"sheetscan/internal/excel"
	"sheetscan/internal/names"
	"sheetscan/internal/observability"
	"sheetscan/internal/parallel"
	"sheetscan/internal/version"

	"sheetscan/internal/formatters"
	_ "sheetscan/internal/formatters/csv"
	_ "sheetscan/internal/formatters/json"
	_ "sheetscan/internal/formatters/text"

	"golang.org/x/term"
)

// cliFlags holds command line flag values
type cliFlags struct {
	configFile   string
	targetColumn string
	contextLines int
	checksToRun  string
	apiHost      string
	workers      int
	outputFormat string
	outputFile   string
	exportFile   string
	noColor      bool
	verbose      bool
	debug        bool
	quiet        bool
	showVersion  bool
	healthCheck  bool
}

func main() {
	flags, setFlags := parseFlags()

	if flags.showVersion {
		fmt.Println(version.Info())
		return
	}

	cfg := loadConfiguration(flags.configFile)
	applyFlagOverrides(cfg, flags, setFlags)

	observer := newObserver(cfg)

	if flags.healthCheck {
		runHealthCheck(cfg.Extraction.APIHost, observer)
		return
	}

	if err := cfg.Extraction.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input files specified")
		flag.Usage()
		os.Exit(1)
	}

	// Auto-detect non-interactive environment
	isInteractive := isTerminal(os.Stderr)
	if !isInteractive || flags.quiet || os.Getenv("CI") != "" {
		cfg.Output.NoColor = true
	}
	showProgress := isInteractive && !flags.quiet && !cfg.Output.Debug

	tasks, skipped := buildTasks(files, flags.quiet)
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no readable workbooks among the input files")
		os.Exit(1)
	}

	opts := []parallel.Option{
		parallel.WithWorkers(cfg.Processing.Workers),
		parallel.WithObserver(observer),
	}
	var nameClient *names.Client
	if cfg.Extraction.EnableName {
		nameClient = names.NewClient(cfg.Extraction.APIHost, observer)
		opts = append(opts, parallel.WithNameSource(nameClient))
	}
	processor := parallel.NewProcessor(cfg.Extraction, opts...)

	var progress parallel.ProgressFunc
	if showProgress {
		fmt.Fprintf(os.Stderr, "Scanning %d files with checks: %s\n",
			len(tasks), strings.Join(cfg.Extraction.EnabledCategories(), ", "))
		progress = drawProgressBar
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fileResults, stats, err := processor.ProcessFiles(ctx, tasks, progress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	results := collectResults(fileResults, flags.quiet)

	output, err := formatters.Export(cfg.Output.Format, results, stats, formatters.Options{
		Verbose: cfg.Output.Verbose,
		NoColor: cfg.Output.NoColor || cfg.Output.Path != "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Output.Path != "" {
		if err := os.WriteFile(cfg.Output.Path, []byte(output), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		if !flags.quiet {
			fmt.Fprintf(os.Stderr, "Results written to %s\n", cfg.Output.Path)
		}
	} else {
		fmt.Print(output)
	}

	if flags.exportFile != "" && len(results) == 0 {
		if !flags.quiet {
			fmt.Fprintln(os.Stderr, "No findings; skipping workbook export")
		}
	} else if flags.exportFile != "" {
		if err := excel.Export(results, flags.exportFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting workbook: %v\n", err)
			os.Exit(1)
		}
		if !flags.quiet {
			fmt.Fprintf(os.Stderr, "Report exported to %s\n", flags.exportFile)
		}
	}

	if nameClient != nil && nameClient.Failures() > 0 && !flags.quiet {
		fmt.Fprintf(os.Stderr, "Warning: name service failed %d times during the run\n", nameClient.Failures())
	}

	if skipped > 0 && len(results) == 0 {
		os.Exit(1)
	}
}

// parseFlags defines and parses the command line, returning the flag
// values and the set of flags the user explicitly provided.
func parseFlags() (*cliFlags, map[string]bool) {
	flags := &cliFlags{}

	flag.StringVar(&flags.configFile, "config", "", "Path to YAML configuration file (default: search standard locations)")
	flag.StringVar(&flags.targetColumn, "column", "", "Name of the column to scan (default: auto-detect the message-content column)")
	flag.IntVar(&flags.contextLines, "context", 2, "Number of neighbor rows captured before and after each match")
	flag.StringVar(&flags.checksToRun, "checks", "", "Comma-separated checks to run: phone, idcard, bankcard, name (default: phone,idcard,bankcard)")
	flag.StringVar(&flags.apiHost, "api-host", "", "host:port of the name-extraction service")
	flag.IntVar(&flags.workers, "workers", 0, "Worker pool size (default: number of CPUs, capped at 8)")
	flag.StringVar(&flags.outputFormat, "format", "text", "Output format: text, json, or csv")
	flag.StringVar(&flags.outputFile, "output", "", "Path to output file (if not specified, output to stdout)")
	flag.StringVar(&flags.exportFile, "export", "", "Path to write a styled .xlsx report of the findings")
	flag.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&flags.verbose, "verbose", false, "Show per-result details in text output")
	flag.BoolVar(&flags.debug, "debug", false, "Enable debug logging of the extraction pipeline")
	flag.BoolVar(&flags.quiet, "quiet", false, "Suppress progress output (useful for scripts and CI/CD)")
	flag.BoolVar(&flags.showVersion, "version", false, "Show version information")
	flag.BoolVar(&flags.healthCheck, "health-check", false, "Check the name-extraction service and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] file.xlsx [file.xlsx ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Scans spreadsheet files for phone numbers, ID card numbers, bank card\n")
		fmt.Fprintf(os.Stderr, "numbers and person names, validating each finding.\n\nOptions:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return flags, set
}

// loadConfiguration loads the configuration file or returns default config
func loadConfiguration(configFile string) *config.Config {
	return config.LoadConfigOrDefault(configFile)
}

// applyFlagOverrides layers explicitly provided flags over the loaded
// configuration. Flags left at their defaults do not override the file.
func applyFlagOverrides(cfg *config.Config, flags *cliFlags, set map[string]bool) {
	if set["column"] {
		cfg.Extraction.TargetColumn = flags.targetColumn
	}
	if set["context"] {
		cfg.Extraction.ContextLines = flags.contextLines
	}
	if set["api-host"] {
		cfg.Extraction.APIHost = flags.apiHost
	}
	if set["checks"] {
		applyChecks(&cfg.Extraction, flags.checksToRun)
	}
	if set["workers"] {
		cfg.Processing.Workers = flags.workers
	}
	if set["format"] {
		cfg.Output.Format = flags.outputFormat
	}
	if set["output"] {
		cfg.Output.Path = flags.outputFile
	}
	if set["no-color"] {
		cfg.Output.NoColor = flags.noColor
	}
	if set["verbose"] {
		cfg.Output.Verbose = flags.verbose
	}
	if set["debug"] {
		cfg.Output.Debug = flags.debug
	}
}

// applyChecks enables exactly the categories named in the comma list.
func applyChecks(e *config.Extraction, list string) {
	e.EnablePhone = false
	e.EnableIDCard = false
	e.EnableBankCard = false
	e.EnableName = false
	for _, name := range strings.Split(list, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "phone":
			e.EnablePhone = true
		case "idcard", "id":
			e.EnableIDCard = true
		case "bankcard", "bank":
			e.EnableBankCard = true
		case "name", "names":
			e.EnableName = true
		case "all":
			e.EnablePhone = true
			e.EnableIDCard = true
			e.EnableBankCard = true
			e.EnableName = true
		case "":
		default:
			fmt.Fprintf(os.Stderr, "Warning: unknown check %q ignored\n", name)
		}
	}
}

func newObserver(cfg *config.Config) *observability.Observer {
	if cfg.Output.Debug {
		return observability.NewObserver(observability.LevelDebug, os.Stderr)
	}
	return nil
}

// runHealthCheck probes the name-extraction service and reports the result.
func runHealthCheck(host string, observer *observability.Observer) {
	client := names.NewClient(host, observer)
	status, err := client.CheckHealth()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Name service at %s is unreachable: %v\n", host, err)
		os.Exit(1)
	}
	fmt.Printf("Name service at %s is healthy (status: %s)\n", host, status)
}

// buildTasks inspects every input path, skipping unreadable workbooks
// with a warning so one bad file does not abort the batch.
func buildTasks(files []string, quiet bool) ([]parallel.FileTask, int) {
	tasks := make([]parallel.FileTask, 0, len(files))
	skipped := 0
	for _, path := range files {
		task, err := parallel.NewFileTask(path)
		if err != nil {
			skipped++
			if !quiet {
				fmt.Fprintf(os.Stderr, "Warning: skipping %s: %v\n", path, err)
			}
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, skipped
}

// collectResults flattens per-file results, reporting failed files.
func collectResults(fileResults []parallel.Result, quiet bool) []detector.ExtractionResult {
	var all []detector.ExtractionResult
	for _, fr := range fileResults {
		if fr.Err != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "Warning: %s failed: %v\n", fr.Task.Name, fr.Err)
			}
			continue
		}
		all = append(all, fr.Results...)
	}
	return all
}

// drawProgressBar renders a single-line progress bar on stderr.
func drawProgressBar(label string, percent int) {
	const barWidth = 40
	filled := barWidth * percent / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	if label != "" {
		label = " " + label
	}
	fmt.Fprintf(os.Stderr, "\r[%s] %3d%%%s\033[K", bar, percent, label)
	if percent >= 100 {
		fmt.Fprintf(os.Stderr, "\n")
	}
}

// isTerminal checks if the file descriptor is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
