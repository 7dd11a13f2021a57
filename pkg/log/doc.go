// Package log provides the provisioning event log.
//
// This package defines the Logger interface and Event types for capturing
// what happened during a provisioning session: state transitions, records
// put on or taken off a transport, errors, and the final outcome. It is
// separate from operational logging (slog). The event log is a
// machine-readable trace that can be attached to a support ticket.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.EventLog = log.NewSlogAdapter(slog.Default())
//
//	// For field diagnostics: write to a binary file
//	cfg.EventLog, _ = log.NewFileLogger("/var/lib/onboard/sessions.olog")
//
//	// Both: use MultiLogger
//	cfg.EventLog = log.NewMultiLogger(consoleLogger, fileLogger)
//
// # Credentials
//
// Frame events never carry the credentials record. Outgoing frames record
// only their size and are marked Redacted; acknowledgment frames may carry
// the raw bytes.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys
// (.olog extension). "onboardctl log view" and "onboardctl log stats" read
// them back.
package log
