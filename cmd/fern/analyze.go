package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fern/internal/diag"
	"fern/internal/driver"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <file.fnb|directory>",
	Short: "Run flow analysis over bound-tree interchange modules",
	Long: `Run worklist flow analysis over one interchange file, a directory of
*.fnb files, or a project with a fern.toml manifest, and report diagnostics`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	analyzeCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	analyzeCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	analyzeCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	analyzeCmd.Flags().Bool("disk-cache", false, "enable the persistent per-routine result cache")
	analyzeCmd.Flags().String("ui", "auto", "interactive progress display (auto|on|off)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	results, in, err := runPipeline(cmd, args[0])
	if err != nil {
		return err
	}
	return reportResults(cmd, results, in)
}

// runPipeline resolves inputs, builds a session from the flags and the
// manifest, and analyzes every file.
func runPipeline(cmd *cobra.Command, arg string) ([]*driver.ModuleResult, buildInputs, error) {
	if err := configureColor(cmd); err != nil {
		return nil, buildInputs{}, err
	}

	in, err := resolveBuildInputs(arg)
	if err != nil {
		return nil, buildInputs{}, err
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, in, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, in, err
	}
	useCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return nil, in, err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return nil, in, err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return nil, in, err
	}

	// Manifest values fill in whatever the flags left at their defaults.
	if in.manifest != nil {
		if jobs == 0 {
			jobs = in.manifest.Build.Jobs
		}
		if in.manifest.Build.MaxDiagnostics > 0 && !cmd.Root().PersistentFlags().Changed("max-diagnostics") {
			maxDiagnostics = in.manifest.Build.MaxDiagnostics
		}
		if in.manifest.Build.NoCache {
			useCache = false
		}
	}

	opts := driver.Options{Jobs: jobs, MaxDiagnostics: maxDiagnostics}
	if useCache {
		cache, err := driver.OpenDiskCache("fern")
		if err != nil {
			return nil, in, fmt.Errorf("open disk cache: %w", err)
		}
		opts.Cache = cache
	}
	s := driver.NewSession(opts)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var results []*driver.ModuleResult
	if shouldUseTUI(mode) {
		results, err = runAnalysisWithUI(ctx, "analyzing", s, in.files)
	} else {
		results, err = s.BuildFiles(ctx, in.files, nil)
	}
	if err != nil {
		return nil, in, err
	}
	return results, in, nil
}

func reportResults(cmd *cobra.Command, results []*driver.ModuleResult, in buildInputs) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return err
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return err
	}
	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	failed := false
	out := cmd.OutOrStdout()

	switch strings.ToLower(format) {
	case "pretty":
		for _, res := range results {
			bag := res.MergedBag()
			for _, d := range bag.Items() {
				if noWarnings && d.Severity == diag.SevWarning {
					continue
				}
				printDiagnostic(out, res, d, in.sources)
			}
			if bag.HasErrors() || (warningsAsErrors && bag.HasWarnings()) {
				failed = true
			}
			if showTimings {
				fmt.Fprint(out, formatTimings(res))
			}
		}
	case "json":
		payload, bad := jsonPayload(results, noWarnings, warningsAsErrors)
		failed = bad
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	if failed {
		return fmt.Errorf("analysis reported errors")
	}
	return nil
}

func configureColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch strings.ToLower(mode) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto", "":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}
