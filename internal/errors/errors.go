// Package errors defines domain-level errors used throughout the application.
// These errors separate the failure categories surfaced in the final report
// and decide whether a run aborts or continues collecting results.
//
// Fatal categories (configuration, authentication) stop the run before any
// further files are touched. Per-document categories (shape, not-found,
// lookup, discovery) are collected by the validator and reported together.
package errors

import (
	"errors"
)

var (
	// ErrConfiguration indicates that required credentials are missing or the
	// config file is malformed. Fatal: the run aborts before any file is processed.
	ErrConfiguration = errors.New("configuration error")

	// ErrAuthentication indicates that the remote credential exchange was
	// rejected or failed at the transport level. Fatal: a broken token
	// invalidates every subsequent existence check.
	ErrAuthentication = errors.New("authentication failed")

	// ErrShapeValidation indicates that a YAML document does not conform to
	// the required entity descriptor shape. Recorded per-document.
	ErrShapeValidation = errors.New("invalid document shape")

	// ErrEntityNotFound indicates that a referenced entity does not exist in
	// the remote catalog. Recorded per-document; creation is intentionally
	// disallowed, so a dangling reference is a validation failure.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrRemoteValidation indicates that the catalog service rejected a
	// document during a dry-run validation call. Recorded per-document.
	ErrRemoteValidation = errors.New("remote validation rejected document")

	// ErrLookup indicates a network or service error during a remote lookup.
	// Recorded per-document and kept distinct from ErrEntityNotFound so the
	// report can tell "missing" apart from "could not check".
	ErrLookup = errors.New("entity lookup failed")

	// ErrDiscovery indicates that an explicitly named path does not exist on
	// disk. Recorded; remaining paths are still discovered.
	ErrDiscovery = errors.New("path discovery failed")
)
