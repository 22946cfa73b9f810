package config

import (
	"fmt"
	"strings"
)

// RunType selects a kind of test target to collect coverage on.
type RunType string

const (
	RunTypeTests      RunType = "Tests"
	RunTypeDoctests   RunType = "Doctests"
	RunTypeBenchmarks RunType = "Benchmarks"
	RunTypeExamples   RunType = "Examples"
)

// RunTypes lists every supported run type.
var RunTypes = []RunType{RunTypeTests, RunTypeDoctests, RunTypeBenchmarks, RunTypeExamples}

// ParseRunType parses a run type name, ignoring case.
func ParseRunType(raw string) (RunType, error) {
	return parseEnum("run type", raw, RunTypes)
}

// OutputFile is a report format requested from the report generator.
type OutputFile string

const (
	OutputJSON   OutputFile = "Json"
	OutputTOML   OutputFile = "Toml"
	OutputStdout OutputFile = "Stdout"
	OutputXML    OutputFile = "Xml"
	OutputHTML   OutputFile = "Html"
	OutputLcov   OutputFile = "Lcov"
)

// OutputFiles lists every supported output format.
var OutputFiles = []OutputFile{OutputJSON, OutputTOML, OutputStdout, OutputXML, OutputHTML, OutputLcov}

// ParseOutputFile parses an output format name, ignoring case.
func ParseOutputFile(raw string) (OutputFile, error) {
	return parseEnum("output format", raw, OutputFiles)
}

// CIService identifies the CI provider reported to coveralls. Providers
// outside the known set are kept under their given name.
type CIService string

const (
	CITravis    CIService = "travis-ci"
	CITravisPro CIService = "travis-pro"
	CICircle    CIService = "circle-ci"
	CISemaphore CIService = "semaphore"
	CIJenkins   CIService = "jenkins"
	CICodeship  CIService = "codeship"
)

var ciServices = []CIService{CITravis, CITravisPro, CICircle, CISemaphore, CIJenkins, CICodeship}

// ParseCIService maps a provider name to a CIService. Unknown names are
// returned verbatim; only an empty name is rejected.
func ParseCIService(raw string) (CIService, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty ci tool", ErrInvalidInput)
	}
	for _, known := range ciServices {
		if strings.EqualFold(string(known), raw) {
			return known, nil
		}
	}
	return CIService(raw), nil
}

// Known reports whether the service is one of the recognised providers.
func (s CIService) Known() bool {
	for _, known := range ciServices {
		if s == known {
			return true
		}
	}
	return false
}

func parseEnum[T ~string](kind, raw string, known []T) (T, error) {
	raw = strings.TrimSpace(raw)
	for _, value := range known {
		if strings.EqualFold(string(value), raw) {
			return value, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: unknown %s %q", ErrInvalidInput, kind, raw)
}

func parseRunTypes(raw []string) ([]RunType, error) {
	out := make([]RunType, 0, len(raw))
	for _, r := range raw {
		rt, err := ParseRunType(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}

func parseOutputFiles(raw []string) ([]OutputFile, error) {
	out := make([]OutputFile, 0, len(raw))
	for _, r := range raw {
		of, err := ParseOutputFile(r)
		if err != nil {
			return nil, err
		}
		out = append(out, of)
	}
	return out, nil
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// RunTypeNames returns the names accepted by ParseRunType.
func RunTypeNames() []string {
	return enumStrings(RunTypes)
}

// OutputFileNames returns the names accepted by ParseOutputFile.
func OutputFileNames() []string {
	return enumStrings(OutputFiles)
}
