package config

import (
	"fmt"
	"os"
	"sort"
)

const defaultProfileName = "default"

// ProfileStore holds every profile loaded from one configuration file.
type ProfileStore struct {
	path     string
	profiles map[string]*Config
}

// LoadProfiles reads path as a mapping of profile name to profile body. Each
// profile starts from the defaults for workDir, takes its Name from its table
// key and records path as its ConfigFile.
func LoadProfiles(path, workDir string) (*ProfileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	doc, err := decodeProfiles(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedConfig, path, err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyConfig, path)
	}

	store := &ProfileStore{
		path:     path,
		profiles: make(map[string]*Config, len(doc)),
	}
	for name, body := range doc {
		body := body
		cfg := New(workDir)
		if err := applyFileProfile(cfg, &body); err != nil {
			return nil, fmt.Errorf("%w: profile %q: %w", ErrMalformedConfig, name, err)
		}
		cfg.Name = name
		cfg.ConfigFile = path
		store.profiles[name] = cfg
	}

	return store, nil
}

// Path returns the file the profiles were loaded from.
func (s *ProfileStore) Path() string {
	return s.path
}

// Len returns the number of loaded profiles.
func (s *ProfileStore) Len() int {
	return len(s.profiles)
}

// Names returns the profile names in sorted order.
func (s *ProfileStore) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profiles returns the loaded profiles ordered by name.
func (s *ProfileStore) Profiles() []*Config {
	names := s.Names()
	out := make([]*Config, 0, len(names))
	for _, name := range names {
		out = append(out, s.profiles[name])
	}
	return out
}

// Get returns the profile loaded under name.
func (s *ProfileStore) Get(name string) (*Config, bool) {
	cfg, ok := s.profiles[name]
	return cfg, ok
}

// Select picks the profile to run with. A non-empty name must exist.
// Otherwise the only profile wins, then a profile named "default", then the
// first profile by name.
func (s *ProfileStore) Select(name string) (*Config, error) {
	if name != "" {
		cfg, ok := s.profiles[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q in %s", ErrProfileNotFound, name, s.path)
		}
		return cfg, nil
	}

	if cfg, ok := s.profiles[defaultProfileName]; ok {
		return cfg, nil
	}

	names := s.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyConfig, s.path)
	}
	return s.profiles[names[0]], nil
}
