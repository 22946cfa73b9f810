// Package pathalg computes relative paths between two filesystem paths by
// walking their components. It never touches the filesystem, so the result
// depends only on the paths as given.
package pathalg
