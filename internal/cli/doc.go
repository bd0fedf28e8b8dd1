// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags into the configuration of the two entry points:
// configstatus and gentestconfig.
package cli
