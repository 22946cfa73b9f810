package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from the file extension. Anything that is
// not YAML is read as TOML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// fileProfile is the body of one profile table. Absent fields keep their defaults.
type fileProfile struct {
	Manifest          *string  `toml:"manifest,omitempty" yaml:"manifest,omitempty" json:"manifest,omitempty"`
	Root              *string  `toml:"root,omitempty" yaml:"root,omitempty" json:"root,omitempty"`
	RunIgnored        *bool    `toml:"run_ignored,omitempty" yaml:"run_ignored,omitempty" json:"run_ignored,omitempty"`
	IgnoreTests       *bool    `toml:"ignore_tests,omitempty" yaml:"ignore_tests,omitempty" json:"ignore_tests,omitempty"`
	IgnorePanics      *bool    `toml:"ignore_panics,omitempty" yaml:"ignore_panics,omitempty" json:"ignore_panics,omitempty"`
	ForceClean        *bool    `toml:"force_clean,omitempty" yaml:"force_clean,omitempty" json:"force_clean,omitempty"`
	Verbose           *bool    `toml:"verbose,omitempty" yaml:"verbose,omitempty" json:"verbose,omitempty"`
	Debug             *bool    `toml:"debug,omitempty" yaml:"debug,omitempty" json:"debug,omitempty"`
	Count             *bool    `toml:"count,omitempty" yaml:"count,omitempty" json:"count,omitempty"`
	LineCoverage      *bool    `toml:"line_coverage,omitempty" yaml:"line_coverage,omitempty" json:"line_coverage,omitempty"`
	BranchCoverage    *bool    `toml:"branch_coverage,omitempty" yaml:"branch_coverage,omitempty" json:"branch_coverage,omitempty"`
	OutputDirectory   *string  `toml:"output_directory,omitempty" yaml:"output_directory,omitempty" json:"output_directory,omitempty"`
	Coveralls         *string  `toml:"coveralls,omitempty" yaml:"coveralls,omitempty" json:"coveralls,omitempty"`
	CITool            *string  `toml:"ci_tool,omitempty" yaml:"ci_tool,omitempty" json:"ci_tool,omitempty"`
	ReportURI         *string  `toml:"report_uri,omitempty" yaml:"report_uri,omitempty" json:"report_uri,omitempty"`
	ForwardSignals    *bool    `toml:"forward_signals,omitempty" yaml:"forward_signals,omitempty" json:"forward_signals,omitempty"`
	AllFeatures       *bool    `toml:"all_features,omitempty" yaml:"all_features,omitempty" json:"all_features,omitempty"`
	NoDefaultFeatures *bool    `toml:"no_default_features,omitempty" yaml:"no_default_features,omitempty" json:"no_default_features,omitempty"`
	All               *bool    `toml:"all,omitempty" yaml:"all,omitempty" json:"all,omitempty"`
	TestTimeout       any      `toml:"test_timeout,omitempty" yaml:"test_timeout,omitempty" json:"test_timeout,omitempty"`
	Release           *bool    `toml:"release,omitempty" yaml:"release,omitempty" json:"release,omitempty"`
	NoRun             *bool    `toml:"no_run,omitempty" yaml:"no_run,omitempty" json:"no_run,omitempty"`
	Locked            *bool    `toml:"locked,omitempty" yaml:"locked,omitempty" json:"locked,omitempty"`
	Frozen            *bool    `toml:"frozen,omitempty" yaml:"frozen,omitempty" json:"frozen,omitempty"`
	TargetDir         *string  `toml:"target_dir,omitempty" yaml:"target_dir,omitempty" json:"target_dir,omitempty"`
	Offline           *bool    `toml:"offline,omitempty" yaml:"offline,omitempty" json:"offline,omitempty"`
	RunTypes          []string `toml:"run_types,omitempty" yaml:"run_types,omitempty" json:"run_types,omitempty"`
	Packages          []string `toml:"packages,omitempty" yaml:"packages,omitempty" json:"packages,omitempty"`
	Exclude           []string `toml:"exclude,omitempty" yaml:"exclude,omitempty" json:"exclude,omitempty"`
	ExcludedFilesRaw  []string `toml:"excluded_files_raw,omitempty" yaml:"excluded_files_raw,omitempty" json:"excluded_files_raw,omitempty"`
	Varargs           []string `toml:"varargs,omitempty" yaml:"varargs,omitempty" json:"varargs,omitempty"`
	Features          []string `toml:"features,omitempty" yaml:"features,omitempty" json:"features,omitempty"`
	UnstableFeatures  []string `toml:"unstable_features,omitempty" yaml:"unstable_features,omitempty" json:"unstable_features,omitempty"`
	Generate          []string `toml:"generate,omitempty" yaml:"generate,omitempty" json:"generate,omitempty"`
}

// applyFileProfile applies the fields present in fp on top of cfg.
func applyFileProfile(cfg *Config, fp *fileProfile) error {
	setString(&cfg.Manifest, fp.Manifest)
	setString(&cfg.Root, fp.Root)
	setString(&cfg.OutputDirectory, fp.OutputDirectory)
	setString(&cfg.Coveralls, fp.Coveralls)
	setString(&cfg.ReportURI, fp.ReportURI)
	setString(&cfg.TargetDir, fp.TargetDir)

	setBool(&cfg.RunIgnored, fp.RunIgnored)
	setBool(&cfg.IgnoreTests, fp.IgnoreTests)
	setBool(&cfg.IgnorePanics, fp.IgnorePanics)
	setBool(&cfg.ForceClean, fp.ForceClean)
	setBool(&cfg.Verbose, fp.Verbose)
	setBool(&cfg.Debug, fp.Debug)
	setBool(&cfg.Count, fp.Count)
	setBool(&cfg.LineCoverage, fp.LineCoverage)
	setBool(&cfg.BranchCoverage, fp.BranchCoverage)
	setBool(&cfg.ForwardSignals, fp.ForwardSignals)
	setBool(&cfg.AllFeatures, fp.AllFeatures)
	setBool(&cfg.NoDefaultFeatures, fp.NoDefaultFeatures)
	setBool(&cfg.All, fp.All)
	setBool(&cfg.Release, fp.Release)
	setBool(&cfg.NoRun, fp.NoRun)
	setBool(&cfg.Locked, fp.Locked)
	setBool(&cfg.Frozen, fp.Frozen)
	setBool(&cfg.Offline, fp.Offline)

	if fp.CITool != nil {
		ci, err := ParseCIService(*fp.CITool)
		if err != nil {
			return err
		}
		cfg.CITool = ci
	}

	if fp.TestTimeout != nil {
		d, err := timeoutFromValue(fp.TestTimeout)
		if err != nil {
			return err
		}
		cfg.TestTimeout = d
	}

	if fp.RunTypes != nil {
		rts, err := parseRunTypes(fp.RunTypes)
		if err != nil {
			return err
		}
		cfg.RunTypes = rts
	}

	if fp.Generate != nil {
		outs, err := parseOutputFiles(fp.Generate)
		if err != nil {
			return err
		}
		cfg.Generate = outs
	}

	setStrings(&cfg.Packages, fp.Packages)
	setStrings(&cfg.Exclude, fp.Exclude)
	setStrings(&cfg.Varargs, fp.Varargs)
	setStrings(&cfg.Features, fp.Features)
	setStrings(&cfg.UnstableFeatures, fp.UnstableFeatures)
	if fp.ExcludedFilesRaw != nil {
		cfg.AddExcludedFiles(fp.ExcludedFilesRaw...)
	}

	return nil
}

// toFileProfile captures every serialisable field of cfg.
func toFileProfile(cfg *Config) fileProfile {
	return fileProfile{
		Manifest:          optString(cfg.Manifest),
		Root:              optString(cfg.Root),
		RunIgnored:        &cfg.RunIgnored,
		IgnoreTests:       &cfg.IgnoreTests,
		IgnorePanics:      &cfg.IgnorePanics,
		ForceClean:        &cfg.ForceClean,
		Verbose:           &cfg.Verbose,
		Debug:             &cfg.Debug,
		Count:             &cfg.Count,
		LineCoverage:      &cfg.LineCoverage,
		BranchCoverage:    &cfg.BranchCoverage,
		OutputDirectory:   optString(cfg.OutputDirectory),
		Coveralls:         optString(cfg.Coveralls),
		CITool:            optString(string(cfg.CITool)),
		ReportURI:         optString(cfg.ReportURI),
		ForwardSignals:    &cfg.ForwardSignals,
		AllFeatures:       &cfg.AllFeatures,
		NoDefaultFeatures: &cfg.NoDefaultFeatures,
		All:               &cfg.All,
		TestTimeout:       cfg.TestTimeout.String(),
		Release:           &cfg.Release,
		NoRun:             &cfg.NoRun,
		Locked:            &cfg.Locked,
		Frozen:            &cfg.Frozen,
		TargetDir:         optString(cfg.TargetDir),
		Offline:           &cfg.Offline,
		RunTypes:          enumStrings(cfg.RunTypes),
		Packages:          cfg.Packages,
		Exclude:           cfg.Exclude,
		ExcludedFilesRaw:  cfg.ExcludedFiles(),
		Varargs:           cfg.Varargs,
		Features:          cfg.Features,
		UnstableFeatures:  cfg.UnstableFeatures,
		Generate:          enumStrings(cfg.Generate),
	}
}

// Snapshot returns the serialisable view of cfg, keyed the same way as a profile file.
func Snapshot(cfg *Config) any {
	return toFileProfile(cfg)
}

// Encode writes cfg as a single-profile file in the given format. A baseline
// profile is written under the "default" table.
func Encode(w io.Writer, cfg *Config, format Format) error {
	name := cfg.Name
	if name == "" {
		name = defaultProfileName
	}
	doc := map[string]fileProfile{name: toFileProfile(cfg)}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encode TOML: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidInput, format)
	}
}

// decodeProfiles parses data as a mapping of profile name to profile body.
func decodeProfiles(data []byte, format Format) (map[string]fileProfile, error) {
	var doc map[string]fileProfile
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse TOML: %w", err)
		}
	}
	return doc, nil
}

// ParseTimeout parses a timeout given as whole seconds ("90") or as a
// duration ("90s", "1m30s", "1d"). An empty value yields DefaultTestTimeout.
func ParseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultTestTimeout, nil
	}
	if secs, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	d, err := str2duration.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout %q: %v", ErrInvalidInput, raw, err)
	}
	return d, nil
}

// timeoutFromValue interprets a decoded test_timeout: seconds as a number, a
// duration string, or a {secs, nanos} table.
func timeoutFromValue(v any) (time.Duration, error) {
	switch t := v.(type) {
	case string:
		return ParseTimeout(t)
	case int:
		return secondsToDuration(int64(t))
	case int64:
		return secondsToDuration(t)
	case uint64:
		return secondsToDuration(int64(t))
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	case map[string]any:
		secs, err := tableInt(t, "secs")
		if err != nil {
			return 0, err
		}
		nanos, err := tableInt(t, "nanos")
		if err != nil {
			return 0, err
		}
		return time.Duration(secs)*time.Second + time.Duration(nanos), nil
	default:
		return 0, fmt.Errorf("%w: unsupported test_timeout value %v", ErrInvalidInput, v)
	}
}

func secondsToDuration(secs int64) (time.Duration, error) {
	if secs < 0 {
		return 0, fmt.Errorf("%w: negative test_timeout %d", ErrInvalidInput, secs)
	}
	return time.Duration(secs) * time.Second, nil
}

func tableInt(table map[string]any, key string) (int64, error) {
	raw, ok := table[key]
	if !ok {
		return 0, nil
	}
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: test_timeout.%s must be an integer", ErrInvalidInput, key)
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setStrings(dst *[]string, src []string) {
	if src != nil {
		*dst = append([]string(nil), src...)
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
