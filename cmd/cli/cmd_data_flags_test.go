package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pcidash/pcidash/pkg/config"
	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/loader"
)

func TestDataFlagsRegisterDefaults(t *testing.T) {
	t.Setenv("PCIDASH_DATA_DIR", "")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var df DataFlags
	df.Register(fs, config.Default())

	_ = fs.Parse([]string{})

	if df.DataDir != defaults.DataDir {
		t.Errorf("DataDir default = %q, want %q", df.DataDir, defaults.DataDir)
	}
	if df.Demo {
		t.Error("Demo default should be false")
	}
	if df.NoColor || df.Silent {
		t.Error("display flags should default to false")
	}
	if df.RequirementsFile != "" || df.ControlsFile != "" || df.FindingsFile != "" || df.TrendFile != "" {
		t.Error("per-file overrides should default to empty")
	}
}

func TestDataFlagsRegisterParse(t *testing.T) {
	t.Setenv("PCIDASH_DATA_DIR", "")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var df DataFlags
	df.Register(fs, config.Default())

	err := fs.Parse([]string{
		"-data", "/srv/pci",
		"-findings-file", "/tmp/findings.json",
		"-demo",
		"-no-color",
		"-silent",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if df.DataDir != "/srv/pci" {
		t.Errorf("DataDir = %q, want /srv/pci", df.DataDir)
	}
	if df.FindingsFile != "/tmp/findings.json" {
		t.Errorf("FindingsFile = %q", df.FindingsFile)
	}
	if !df.Demo {
		t.Error("Demo = false, want true")
	}
	if !df.NoColor {
		t.Error("NoColor = false, want true")
	}
	if !df.Silent {
		t.Error("Silent = false, want true")
	}
}

func TestDataFlagsEnvSeedsDataDir(t *testing.T) {
	t.Setenv("PCIDASH_DATA_DIR", "/from/env")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var df DataFlags
	df.Register(fs, config.Default())
	_ = fs.Parse([]string{})

	if df.DataDir != "/from/env" {
		t.Errorf("DataDir = %q, want /from/env", df.DataDir)
	}

	// A flag still wins over the environment.
	fs2 := flag.NewFlagSet("test", flag.ContinueOnError)
	var df2 DataFlags
	df2.Register(fs2, config.Default())
	_ = fs2.Parse([]string{"-data", "/from/flag"})

	if df2.DataDir != "/from/flag" {
		t.Errorf("DataDir = %q, want /from/flag", df2.DataDir)
	}
}

func TestDataFlagsConfigSeedsDefaults(t *testing.T) {
	t.Setenv("PCIDASH_DATA_DIR", "")
	cfg := config.Default()
	cfg.DataDir = "/persisted"
	cfg.NoColor = true

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var df DataFlags
	df.Register(fs, cfg)
	_ = fs.Parse([]string{})

	if df.DataDir != "/persisted" {
		t.Errorf("DataDir = %q, want the persisted value", df.DataDir)
	}
	if !df.NoColor {
		t.Error("NoColor should inherit the persisted preference")
	}
}

func TestDataFlagsPaths(t *testing.T) {
	df := DataFlags{DataDir: "data"}
	paths := df.Paths()

	if want := filepath.Join("data", defaults.RequirementsFile); paths.Requirements != want {
		t.Errorf("Requirements = %q, want %q", paths.Requirements, want)
	}
	if want := filepath.Join("data", defaults.ControlStatusFile); paths.ControlStatus != want {
		t.Errorf("ControlStatus = %q, want %q", paths.ControlStatus, want)
	}
	if want := filepath.Join("data", defaults.FindingsFile); paths.Findings != want {
		t.Errorf("Findings = %q, want %q", paths.Findings, want)
	}
	if want := filepath.Join("data", defaults.TrendFile); paths.Trend != want {
		t.Errorf("Trend = %q, want %q", paths.Trend, want)
	}
}

func TestDataFlagsPathsOverride(t *testing.T) {
	df := DataFlags{DataDir: "data", ControlsFile: "/override/controls.json"}
	paths := df.Paths()

	if paths.ControlStatus != "/override/controls.json" {
		t.Errorf("ControlStatus = %q, want the override", paths.ControlStatus)
	}
	if want := filepath.Join("data", defaults.RequirementsFile); paths.Requirements != want {
		t.Error("non-overridden paths should keep the directory default")
	}
}

func TestDataFlagsSource(t *testing.T) {
	df := DataFlags{DataDir: "./data"}
	if got := df.Source(); got != "./data" {
		t.Errorf("Source = %q, want ./data", got)
	}
	df.Demo = true
	if got := df.Source(); got != "embedded sample data" {
		t.Errorf("Source = %q", got)
	}
}

func TestDataFlagsReloader(t *testing.T) {
	demo := DataFlags{Demo: true}
	if demo.Reloader() != nil {
		t.Error("embedded data cannot change; Reloader should be nil")
	}

	files := DataFlags{DataDir: "data"}
	if files.Reloader() == nil {
		t.Error("file-backed data should have a reload closure")
	}
}

func TestDataFlagsLoadDemo(t *testing.T) {
	df := DataFlags{Demo: true}
	ds, err := df.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Findings) != 8 {
		t.Errorf("findings = %d, want 8", len(ds.Findings))
	}
	if len(ds.Catalog.Requirements) != 6 {
		t.Errorf("requirements = %d, want 6", len(ds.Catalog.Requirements))
	}
}

// captureStderr runs fn with os.Stderr redirected into a buffer.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stderr
	os.Stderr = w
	defer func() { os.Stderr = orig }()

	fn()
	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read pipe: %v", err)
	}
	return string(out)
}

func mismatchedDataSet(t *testing.T) *loader.DataSet {
	t.Helper()
	ds, err := loader.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	// Stale summary block: claims one more passing than the rows carry.
	ds.Snapshot.Summary.Passing++
	return ds
}

func TestWarnSummaryMismatch(t *testing.T) {
	ds := mismatchedDataSet(t)
	out := captureStderr(t, func() { warnSummaryMismatch(ds) })

	if !strings.Contains(out, "[!]") {
		t.Errorf("expected warning prefix, got %q", out)
	}
	if !strings.Contains(out, defaults.ControlStatusFile) {
		t.Errorf("warning should name the snapshot file, got %q", out)
	}
	if !strings.Contains(out, "5 passing") || !strings.Contains(out, "4 passing") {
		t.Errorf("warning should carry both counts, got %q", out)
	}
}

func TestWarnSummaryMismatchQuietWhenConsistent(t *testing.T) {
	ds, err := loader.LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	out := captureStderr(t, func() { warnSummaryMismatch(ds) })
	if out != "" {
		t.Errorf("expected no warning for a consistent summary, got %q", out)
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("PCIDASH_TEST_KEY", "set")
	if got := envOrDefault("PCIDASH_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("envOrDefault = %q, want set", got)
	}

	t.Setenv("PCIDASH_TEST_KEY", "")
	if got := envOrDefault("PCIDASH_TEST_KEY", "fallback"); got != "fallback" {
		t.Errorf("envOrDefault = %q, want fallback", got)
	}
}
