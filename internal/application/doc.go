// Package application wires a resolved coverage profile into the HTTP query
// surface. It creates the handler, router and HTTP server instances so the
// main package stays focused on CLI parsing and orchestration.
package application
