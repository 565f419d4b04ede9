// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
//
// A run resolves its input pairs, attaches the shared segment, drives the
// pipeline over it, removes the segment and writes the report.
package app
