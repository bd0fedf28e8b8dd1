// Package app is the config.status entry point: it validates the process
// environment, builds the configuration environment from configure's
// results, and hands the tree description to the backend, or re-runs
// configure when a recheck is requested.
//
// An App owns everything process-wide the run touches (log configuration,
// environment snapshot, working directory, process replacement), so tests
// can drive a full regeneration without altering the test binary's state.
package app
