// Package config resolves the effective run-time configuration of the coverage
// tool. A baseline profile is built from command-line inputs; when a
// configuration file is named, one of the profiles it defines replaces the
// baseline. Resolved profiles answer base-directory and file-exclusion queries
// for the rest of the tool.
package config
