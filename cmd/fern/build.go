package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fern/internal/codegen"
	"fern/internal/driver"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] <file.fnb|directory>",
	Short: "Analyze interchange modules and lower them to listings",
	Long: `Run flow analysis and, when it succeeds, lower every routine to a
textual instruction listing under the output directory`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("out", "o", "build", "output directory for listings")
	buildCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	buildCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	buildCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	buildCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	buildCmd.Flags().Bool("disk-cache", false, "enable the persistent per-routine result cache")
	buildCmd.Flags().String("ui", "auto", "interactive progress display (auto|on|off)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	results, in, err := runPipeline(cmd, args[0])
	if err != nil {
		return err
	}

	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	for i, res := range results {
		if res.HasErrors() {
			continue
		}
		path, err := writeListing(outDir, in.files[i], res)
		if err != nil {
			return err
		}
		if !quiet && path != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		}
	}

	return reportResults(cmd, results, in)
}

// writeListing lowers every routine of one module into a single .fasm
// file next to its siblings in outDir.
func writeListing(outDir, input string, res *driver.ModuleResult) (string, error) {
	base := filepath.Base(input)
	path := filepath.Join(outDir, base[:len(base)-len(filepath.Ext(base))]+".fasm")

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var emitters []*codegen.TextEmitter
	driver.EmitModule(res, func(name string) codegen.Emitter {
		fmt.Fprintf(f, "routine %s:\n", name)
		em := codegen.NewTextEmitter(f)
		emitters = append(emitters, em)
		return em
	})
	for _, em := range emitters {
		if err := em.Err(); err != nil {
			return "", err
		}
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
