// Package services defines shared utilities consumed by the pipeline stages
// and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp ledger item IDs, episode titles, stage names,
//     and run identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (transient vs external-tool vs environment) consistently.
//   - The Executor abstraction that makes command execution from external
//     tools testable.
//
// Use these helpers when wiring new stage logic so operational behaviour stays
// uniform across the pipeline.
package services
