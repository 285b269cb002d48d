// Package orchestrator sequences a batch run end to end: source enumeration,
// title grouping, download and merge, duplicate matching, and archival, with
// every disposition recorded in the ledger.
package orchestrator
