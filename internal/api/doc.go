// Package api serves the query surface of a resolved profile over HTTP, so
// processes other than the one that resolved the configuration can ask about
// the base directory and file exclusions.
package api
