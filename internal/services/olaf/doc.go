// Package olaf wraps the external acoustic fingerprint engine as a narrow,
// two-operation interface: store (append a file into the engine's permanent
// index) and monitor (query with a short clip, yielding one best-match row
// per sub-window). The engine's text-table protocol is parsed in exactly one
// place so the engine could be swapped for an in-process library without
// touching the orchestrator.
package olaf
