package pathalg

import (
	"path/filepath"
	"strings"
)

const (
	curDir    = "."
	parentDir = ".."
)

// Components splits p into its components. Repeated separators and trailing
// separators are ignored, "." is dropped unless it leads a relative path, and
// an absolute path starts with its root (volume name plus separator).
func Components(p string) []string {
	if p == "" {
		return nil
	}

	vol := filepath.VolumeName(p)
	rest := p[len(vol):]

	comps := make([]string, 0, strings.Count(rest, string(filepath.Separator))+1)
	abs := filepath.IsAbs(p)
	if abs {
		comps = append(comps, vol+string(filepath.Separator))
	} else if vol != "" {
		comps = append(comps, vol)
	}

	parts := strings.FieldsFunc(rest, func(r rune) bool {
		return r == filepath.Separator || r == '/'
	})
	leading := !abs && vol == ""
	for i, part := range parts {
		if part == curDir && !(leading && i == 0) {
			continue
		}
		comps = append(comps, part)
	}

	return comps
}

// RelativeComponents returns the components of a path that leads from base to p.
//
// When exactly one of the inputs is absolute the result is p itself if p is the
// absolute one, otherwise ErrNoRelativePath. A ".." in base at the point of
// comparison is ambiguous and also yields ErrNoRelativePath.
func RelativeComponents(p, base string) ([]string, error) {
	if filepath.IsAbs(p) != filepath.IsAbs(base) {
		if filepath.IsAbs(p) {
			return Components(p), nil
		}
		return nil, ErrNoRelativePath
	}

	pc := Components(p)
	bc := Components(base)
	out := make([]string, 0, len(pc)+len(bc))

	i, j := 0, 0
	for {
		switch {
		case i >= len(pc) && j >= len(bc):
			return out, nil
		case j >= len(bc):
			return append(out, pc[i:]...), nil
		case i >= len(pc):
			out = append(out, parentDir)
			j++
		case len(out) == 0 && pc[i] == bc[j]:
			i++
			j++
		case bc[j] == curDir:
			out = append(out, pc[i])
			i++
			j++
		case bc[j] == parentDir:
			return nil, ErrNoRelativePath
		default:
			for range bc[j:] {
				out = append(out, parentDir)
			}
			return append(out, pc[i:]...), nil
		}
	}
}

// RelativePath is RelativeComponents joined with the OS separator. The
// components are joined verbatim, without cleaning, so ".." steps survive.
// Paths that are equal yield the empty string.
func RelativePath(p, base string) (string, error) {
	if filepath.IsAbs(p) && !filepath.IsAbs(base) {
		return p, nil
	}

	comps, err := RelativeComponents(p, base)
	if err != nil {
		return "", err
	}
	return strings.Join(comps, string(filepath.Separator)), nil
}
