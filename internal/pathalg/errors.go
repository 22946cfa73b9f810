package pathalg

import "errors"

var (
	// ErrNoRelativePath is returned when no relative path can be derived, either because the
	// base is absolute while the path is relative, or because the base climbs upwards with ".."
	// at the point where the two paths diverge.
	ErrNoRelativePath = errors.New("no relative path exists")
)
