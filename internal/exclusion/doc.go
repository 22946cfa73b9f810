// Package exclusion turns "*"-wildcard file patterns into anchored regular
// expressions and keeps a lazily compiled, append-only set of them.
package exclusion
