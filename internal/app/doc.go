// Package app bootstraps the control plane: load settings, run the
// pre-start precheck, wire every collaborator package, and run the HTTP
// server until a termination signal arrives.
//
// It follows the same two-phase shape as the teacher's bootstrap/modes
// split: NewApplication does all fallible setup so Run can be a simple
// blocking loop with signal-driven graceful shutdown.
package app
