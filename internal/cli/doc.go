// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It layers
// flags over grid files and STAGEGRID_* environment variables to produce the
// application's internal configuration.
package cli
