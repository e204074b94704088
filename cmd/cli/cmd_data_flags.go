package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pcidash/pcidash/pkg/aggregate"
	"github.com/pcidash/pcidash/pkg/config"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/loader"
	"github.com/pcidash/pcidash/pkg/ui"
)

// DataFlags holds the data-source flags shared by every subcommand.
// Use Register to bind them to a command's FlagSet, then Load to resolve
// them into a loaded data set.
type DataFlags struct {
	DataDir          string
	RequirementsFile string
	ControlsFile     string
	FindingsFile     string
	TrendFile        string
	Demo             bool
	NoColor          bool
	Silent           bool
}

// Register binds the shared data-source flags to fs. cfg seeds the
// defaults so persisted preferences apply; flags always win.
func (df *DataFlags) Register(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&df.DataDir, "data", envOrDefault("PCIDASH_DATA_DIR", cfg.DataDir), "Data directory containing the four input files")
	fs.StringVar(&df.RequirementsFile, "requirements-file", "", "Requirements catalog override (YAML)")
	fs.StringVar(&df.ControlsFile, "controls-file", "", "Control-status snapshot override (JSON)")
	fs.StringVar(&df.FindingsFile, "findings-file", "", "Findings list override (JSON)")
	fs.StringVar(&df.TrendFile, "trend-file", "", "Trend history override (JSON)")
	fs.BoolVar(&df.Demo, "demo", false, "Use the embedded sample data set")
	fs.BoolVar(&df.NoColor, "no-color", cfg.NoColor, "Disable styled output")
	fs.BoolVar(&df.Silent, "silent", cfg.Silent, "Suppress informational output")
}

// Apply pushes the display flags into the ui state. Call it right after
// Parse, before anything prints.
func (df *DataFlags) Apply() {
	if df.NoColor {
		ui.SetNoColor(true)
	}
	if df.Silent {
		ui.SetSilent(true)
	}
}

// Paths resolves the data directory and per-file overrides into loader
// paths.
func (df *DataFlags) Paths() loader.Paths {
	paths := loader.DefaultPaths(df.DataDir)
	if df.RequirementsFile != "" {
		paths.Requirements = df.RequirementsFile
	}
	if df.ControlsFile != "" {
		paths.ControlStatus = df.ControlsFile
	}
	if df.FindingsFile != "" {
		paths.Findings = df.FindingsFile
	}
	if df.TrendFile != "" {
		paths.Trend = df.TrendFile
	}
	return paths
}

// Source labels where the data comes from, for banners and payloads.
func (df *DataFlags) Source() string {
	if df.Demo {
		return "embedded sample data"
	}
	return df.DataDir
}

// Load resolves the flags into a data set.
func (df *DataFlags) Load() (*loader.DataSet, error) {
	if df.Demo {
		return loader.LoadEmbedded()
	}
	return loader.Load(df.Paths())
}

// Reloader returns the reload closure handed to the shell and the serve
// loop. The embedded data set never changes, so -demo disables reloads.
func (df *DataFlags) Reloader() func() (*loader.DataSet, error) {
	if df.Demo {
		return nil
	}
	paths := df.Paths()
	return func() (*loader.DataSet, error) {
		return loader.Load(paths)
	}
}

// mustLoad loads the data set or exits with an operator-readable error.
func mustLoad(df *DataFlags) *loader.DataSet {
	ds, err := df.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintf(os.Stderr, "hint: point -data at a directory containing %s, %s, %s, and %s, or pass -demo\n",
			defaults.RequirementsFile, defaults.ControlStatusFile, defaults.FindingsFile, defaults.TrendFile)
		os.Exit(defaults.ExitLoadError)
	}
	warnSummaryMismatch(ds)
	return ds
}

// warnSummaryMismatch flags a snapshot whose advisory summary block
// disagrees with its control rows. The block never feeds a score (the
// aggregator recomputes from the rows), so a stale block is a warning,
// not a load failure.
func warnSummaryMismatch(ds *loader.DataSet) {
	if ds.SummaryConsistent() {
		return
	}
	sum := ds.Snapshot.Summary
	sc := aggregate.OverallScore(ds.Snapshot)
	ui.PrintWarning(fmt.Sprintf(
		"summary block in %s claims %d passing / %d failing but its control rows count %d passing / %d failing; scores use the rows",
		defaults.ControlStatusFile, sum.Passing, sum.Failing, sc.Passing, sc.Failing))
}

// loadConfig reads the persisted preferences, falling back to the
// defaults when the file is missing. A broken preferences file must not
// brick the dashboard; it is reported and ignored.
func loadConfig() *config.Config {
	path, err := config.DefaultPath()
	if err != nil {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring preferences: %v\n", err)
		return config.Default()
	}
	return cfg
}

// printRunBanner shows the mini banner and the resolved configuration on
// stderr before a view renders. Silent mode drops it entirely.
func printRunBanner(df *DataFlags, ds *loader.DataSet, extra map[string]string) {
	if ui.IsSilent() {
		return
	}
	ui.PrintMiniBanner()
	options := map[string]string{
		"Snapshot Date": ds.Snapshot.SnapshotDate.String(),
	}
	if df.Demo {
		options["Source"] = df.Source()
	} else {
		options["Data Dir"] = df.DataDir
	}
	for k, v := range extra {
		options[k] = v
	}
	ui.PrintConfigBanner(options)
}

// envOrDefault returns the environment variable value if set, otherwise
// the default.
func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
