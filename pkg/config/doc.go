// Package config loads and validates the Symposium configuration file.
//
// # Overview
//
// Configuration is a single YAML document covering the four runtime surfaces:
// the coordination server, the table (registry capacity and bootstrap minimum),
// the diner client simulation, and telemetry. Every field has a default, so an
// absent file or an empty document yields a fully working local setup
// (server on 127.0.0.1:9002, seven-seat table, per-philosopher log files).
//
// # Loading
//
//	cfg, err := config.Load("symposium.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Load merges the document over Default() and then validates the result with
// go-playground/validator struct tags; validation failures report the offending
// field path.
//
// # Watching
//
// Watch re-validates the file whenever it changes on disk (debounced), which
// backs `symposium validate --watch` for editing config with live feedback.
//
// # Thread Safety
//
// A Config is immutable after Load; share it freely across goroutines.
package config
