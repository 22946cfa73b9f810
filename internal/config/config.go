package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/eugenenazirov/covconf/internal/exclusion"
	"github.com/eugenenazirov/covconf/internal/pathalg"
)

const (
	// DefaultManifestName is the project descriptor looked up in the base directory.
	DefaultManifestName = "Cargo.toml"
	// DefaultTestTimeout bounds a single test run when no timeout is configured.
	DefaultTestTimeout = 60 * time.Second
)

// Config is one resolved configuration profile.
//
// Everything except the exclusion cache is fixed once the profile is
// resolved. Exclusion queries compile patterns lazily and are safe for
// concurrent use, including on a zero Config. A Config must not be copied.
type Config struct {
	// Name is the table key the profile was loaded from, empty for a baseline profile.
	Name string
	// Manifest is the path to the project descriptor.
	Manifest string
	// ConfigFile is the file the profile was loaded from, empty for a baseline profile.
	ConfigFile string
	// Root is the project root; relative roots are resolved against the working directory.
	Root string

	RunIgnored        bool
	IgnoreTests       bool
	IgnorePanics      bool
	ForceClean        bool
	Verbose           bool
	Debug             bool
	Count             bool
	LineCoverage      bool
	BranchCoverage    bool
	ForwardSignals    bool
	AllFeatures       bool
	NoDefaultFeatures bool
	All               bool
	Release           bool
	NoRun             bool
	Locked            bool
	Frozen            bool
	Offline           bool

	OutputDirectory string
	TestTimeout     time.Duration
	TargetDir       string

	// Coveralls is the coveralls token; empty means coveralls is not used.
	Coveralls string
	CITool    CIService
	// ReportURI replaces the coveralls endpoint when set.
	ReportURI string

	RunTypes         []RunType
	Packages         []string
	Exclude          []string
	Varargs          []string
	Features         []string
	UnstableFeatures []string
	Generate         []OutputFile

	excluded     *exclusion.Set
	excludedOnce sync.Once
	workDir      string
}

// New returns a profile holding the defaults for workDir. An empty workDir
// defers to the process working directory at query time.
func New(workDir string) *Config {
	return &Config{
		Manifest:        filepath.Join(workDir, DefaultManifestName),
		LineCoverage:    true,
		OutputDirectory: workDir,
		TestTimeout:     DefaultTestTimeout,
		RunTypes:        []RunType{RunTypeTests},
		excluded:        exclusion.NewSet(),
		workDir:         workDir,
	}
}

// WorkDir returns the working directory the profile resolves relative paths against.
func (c *Config) WorkDir() (string, error) {
	if c.workDir != "" {
		return c.workDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return wd, nil
}

// BaseDir returns the directory source paths are normalised against: an
// absolute Root verbatim, a relative Root joined onto the working directory
// and canonicalised, or the working directory when Root is unset.
func (c *Config) BaseDir() (string, error) {
	wd, err := c.WorkDir()
	if err != nil {
		return "", err
	}
	if c.Root == "" {
		return wd, nil
	}
	if filepath.IsAbs(c.Root) {
		return c.Root, nil
	}
	return canonicalize(filepath.Join(wd, c.Root))
}

// StripBaseDir returns path relative to the base directory, or path unchanged
// when no relative path can be derived. Only a base directory failure is
// returned as an error.
func (c *Config) StripBaseDir(path string) (string, error) {
	base, err := c.BaseDir()
	if err != nil {
		return "", err
	}
	rel, err := pathalg.RelativePath(path, base)
	if err != nil {
		return path, nil
	}
	return rel, nil
}

// ExcludePath reports whether path matches any excluded-file pattern once it
// is made relative to the base directory.
func (c *Config) ExcludePath(path string) (bool, error) {
	rel, err := c.StripBaseDir(path)
	if err != nil {
		return false, err
	}
	return c.excludedSet().Match(rel)
}

// ExcludedFiles returns a copy of the raw excluded-file patterns.
func (c *Config) ExcludedFiles() []string {
	return c.excludedSet().Patterns()
}

// AddExcludedFiles appends excluded-file patterns. They are compiled by the next ExcludePath.
func (c *Config) AddExcludedFiles(patterns ...string) {
	c.excludedSet().Add(patterns...)
}

// CompiledExclusions returns how many patterns have been compiled so far.
func (c *Config) CompiledExclusions() int {
	return c.excludedSet().CompiledLen()
}

// PackageExcluded reports whether a package name matches an entry of Exclude.
// Entries may use glob syntax; entries that fail to compile compare literally.
func (c *Config) PackageExcluded(name string) bool {
	for _, pattern := range c.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			if pattern == name {
				return true
			}
			continue
		}
		if g.Match(name) {
			return true
		}
	}
	return false
}

// IsCoveralls reports whether a coveralls token is configured.
func (c *Config) IsCoveralls() bool {
	return c.Coveralls != ""
}

// ManifestPath returns Manifest resolved against the working directory. An
// unset Manifest yields the default manifest in the base directory.
func (c *Config) ManifestPath() (string, error) {
	if c.Manifest == "" {
		base, err := c.BaseDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, DefaultManifestName), nil
	}
	wd, err := c.WorkDir()
	if err != nil {
		return "", err
	}
	return absFrom(wd, c.Manifest), nil
}

// IsDefaultOutputDir reports whether the output directory is the working
// directory. An unset output directory is the working directory, and a
// relative one is resolved against it.
func (c *Config) IsDefaultOutputDir() bool {
	if c.OutputDirectory == "" {
		return true
	}
	wd, err := c.WorkDir()
	if err != nil {
		return false
	}
	return filepath.Clean(absFrom(wd, c.OutputDirectory)) == filepath.Clean(wd)
}

// Validate checks values that no input source may leave invalid. The error
// is a *FieldError naming the offending profile key.
func (c *Config) Validate() error {
	if c.TestTimeout <= 0 {
		return &FieldError{Field: "test_timeout", Reason: fmt.Sprintf("must be positive, got %s", c.TestTimeout)}
	}
	if len(c.RunTypes) == 0 {
		return &FieldError{Field: "run_types", Reason: "at least one run type is required"}
	}
	return nil
}

func (c *Config) excludedSet() *exclusion.Set {
	c.excludedOnce.Do(func() {
		if c.excluded == nil {
			c.excluded = exclusion.NewSet()
		}
	})
	return c.excluded
}

// canonicalize resolves symlinks and "."/".." in an absolute path that must exist.
func canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCanonicalize, path, err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCanonicalize, path, err)
	}
	return abs, nil
}
