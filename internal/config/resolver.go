package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// CLIInputs holds the command-line options a baseline profile is built from.
// Zero values mean the option was not given.
type CLIInputs struct {
	ManifestPath string
	Root         string
	ConfigPath   string
	// Profile names the profile to select from ConfigPath.
	Profile  string
	RunTypes []string

	Ignored      bool
	IgnoreTests  bool
	IgnorePanics bool
	ForceClean   bool
	Verbose      bool
	Debug        bool
	Count        bool
	Line         bool
	Branch       bool
	Forward      bool

	Coveralls string
	CITool    string
	ReportURI string

	AllFeatures       bool
	NoDefaultFeatures bool
	Features          []string
	UnstableFeatures  []string
	All               bool
	Workspace         bool
	Packages          []string
	Exclude           []string
	ExcludeFiles      []string
	Varargs           []string

	Timeout   string
	Release   bool
	NoRun     bool
	Locked    bool
	Frozen    bool
	Offline   bool
	TargetDir string

	Generate        []string
	OutputDirectory string
}

// Resolver builds the effective profile for one invocation.
type Resolver struct {
	logger  *zap.Logger
	workDir string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used to report configuration decisions.
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithWorkDir pins the working directory instead of reading it from the process.
func WithWorkDir(dir string) ResolverOption {
	return func(r *Resolver) {
		r.workDir = dir
	}
}

// NewResolver constructs a Resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the baseline profile from in and, when in names a
// configuration file, replaces it with a profile from that file.
//
// Loading the file is best-effort: any failure to read, parse or select a
// profile is logged and the baseline is returned. Failing to canonicalise a
// relative config path is returned as an error.
func (r *Resolver) Resolve(in CLIInputs) (*Config, error) {
	r.logger.Info("creating config")

	wd := r.workDir
	if wd == "" {
		var err error
		if wd, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("%w: working directory: %w", ErrCanonicalize, err)
		}
	}

	baseline, err := r.baseline(in, wd)
	if err != nil {
		return nil, err
	}

	if in.ConfigPath == "" {
		r.warnIncomplete(baseline)
		return baseline, nil
	}

	path := in.ConfigPath
	if !filepath.IsAbs(path) {
		if path, err = canonicalize(filepath.Join(wd, path)); err != nil {
			return nil, err
		}
	}

	store, err := LoadProfiles(path, wd)
	if err != nil {
		r.logger.Error("invalid config file", zap.String("path", path), zap.Error(err))
		return baseline, nil
	}

	selected, err := store.Select(in.Profile)
	if err != nil {
		r.logger.Error("no usable profile in config file", zap.String("path", path), zap.Error(err))
		return baseline, nil
	}
	if err := selected.Validate(); err != nil {
		fields := []zap.Field{
			zap.String("path", path),
			zap.String("profile", selected.Name),
			zap.Error(err),
		}
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			fields = append(fields, zap.String("field", fieldErr.Field))
		}
		r.logger.Error("invalid profile in config file, using command-line options", fields...)
		return baseline, nil
	}

	if in.Profile == "" && store.Len() > 1 {
		r.logger.Warn("config file defines several profiles, selected one implicitly",
			zap.Strings("profiles", store.Names()),
			zap.String("profile", selected.Name),
		)
	}
	r.logger.Info("using profile from config file",
		zap.String("path", path),
		zap.String("profile", selected.Name),
	)
	r.warnIncomplete(selected)
	return selected, nil
}

// Resolve resolves in with a Resolver using the process working directory.
func Resolve(in CLIInputs) (*Config, error) {
	return NewResolver().Resolve(in)
}

// baseline converts command-line inputs into a profile, filling defaults for
// everything not given.
func (r *Resolver) baseline(in CLIInputs, wd string) (*Config, error) {
	cfg := New(wd)

	cfg.Root = in.Root
	cfg.Manifest = manifestPath(in, wd)
	if in.OutputDirectory != "" {
		cfg.OutputDirectory = absFrom(wd, in.OutputDirectory)
	}
	cfg.TargetDir = in.TargetDir

	cfg.RunIgnored = in.Ignored
	cfg.IgnoreTests = in.IgnoreTests
	cfg.IgnorePanics = in.IgnorePanics
	cfg.ForceClean = in.ForceClean
	cfg.Debug = in.Debug
	cfg.Verbose = in.Verbose || in.Debug
	cfg.Count = in.Count
	cfg.LineCoverage = in.Line || !in.Branch
	cfg.BranchCoverage = in.Branch
	cfg.ForwardSignals = in.Forward
	cfg.AllFeatures = in.AllFeatures
	cfg.NoDefaultFeatures = in.NoDefaultFeatures
	cfg.All = in.All || in.Workspace
	cfg.Release = in.Release
	cfg.NoRun = in.NoRun
	cfg.Locked = in.Locked
	cfg.Frozen = in.Frozen
	cfg.Offline = in.Offline

	cfg.Coveralls = in.Coveralls
	cfg.ReportURI = in.ReportURI
	if in.CITool != "" {
		ci, err := ParseCIService(in.CITool)
		if err != nil {
			return nil, err
		}
		cfg.CITool = ci
	}

	timeout, err := ParseTimeout(in.Timeout)
	if err != nil {
		return nil, err
	}
	cfg.TestTimeout = timeout

	if len(in.RunTypes) > 0 {
		if cfg.RunTypes, err = parseRunTypes(in.RunTypes); err != nil {
			return nil, err
		}
	}
	if cfg.Generate, err = parseOutputFiles(in.Generate); err != nil {
		return nil, err
	}

	cfg.Packages = append([]string(nil), in.Packages...)
	cfg.Exclude = append([]string(nil), in.Exclude...)
	cfg.Features = append([]string(nil), in.Features...)
	cfg.UnstableFeatures = append([]string(nil), in.UnstableFeatures...)
	cfg.Varargs = append([]string(nil), in.Varargs...)
	cfg.AddExcludedFiles(in.ExcludeFiles...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *Resolver) warnIncomplete(cfg *Config) {
	if cfg.ReportURI != "" && !cfg.IsCoveralls() {
		r.logger.Warn("report uri is only used together with a coveralls token",
			zap.String("report_uri", cfg.ReportURI),
		)
	}
}

// manifestPath returns the explicit manifest, or the default manifest inside
// the root (or working directory when no root is given).
func manifestPath(in CLIInputs, wd string) string {
	if in.ManifestPath != "" {
		return absFrom(wd, in.ManifestPath)
	}
	if in.Root != "" {
		return filepath.Join(absFrom(wd, in.Root), DefaultManifestName)
	}
	return filepath.Join(wd, DefaultManifestName)
}

func absFrom(wd, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(wd, path)
}
