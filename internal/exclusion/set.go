package exclusion

import (
	"path/filepath"
	"regexp"
	"sync"
	"unicode/utf8"
)

// Set holds raw exclusion patterns together with their compiled form.
//
// Compilation is lazy: patterns added through Add are compiled by the next
// Match. Patterns are never removed, so compiled entries stay valid once built.
// All methods are safe for concurrent use.
type Set struct {
	mu       sync.Mutex
	raw      []string
	compiled []*regexp.Regexp
}

// NewSet creates a set from raw patterns without compiling them.
func NewSet(patterns ...string) *Set {
	s := &Set{}
	s.raw = append(s.raw, patterns...)
	return s
}

// Add appends raw patterns. They are compiled on the next Match.
func (s *Set) Add(patterns ...string) {
	s.mu.Lock()
	s.raw = append(s.raw, patterns...)
	s.mu.Unlock()
}

// Patterns returns a copy of the raw patterns in insertion order.
func (s *Set) Patterns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.raw))
	copy(out, s.raw)
	return out
}

// Len returns the number of raw patterns.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.raw)
}

// CompiledLen returns the number of compiled patterns currently cached.
func (s *Set) CompiledLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.compiled)
}

// Match reports whether any pattern matches candidate as a whole. The
// candidate is compared in slash-separated form; invalid UTF-8 is compared as
// the empty string.
func (s *Set) Match(candidate string) (bool, error) {
	candidate = filepath.ToSlash(candidate)
	if !utf8.ValidString(candidate) {
		candidate = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.syncLocked(); err != nil {
		return false, err
	}

	for _, re := range s.compiled {
		if re.MatchString(candidate) {
			return true, nil
		}
	}
	return false, nil
}

// syncLocked compiles raw patterns that have no compiled counterpart yet.
func (s *Set) syncLocked() error {
	if len(s.compiled) >= len(s.raw) {
		return nil
	}

	fresh, err := Compile(s.raw[len(s.compiled):])
	if err != nil {
		return err
	}
	s.compiled = append(s.compiled, fresh...)
	return nil
}
