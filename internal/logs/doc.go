// Package logs tails the run log with bounded memory. Negative offsets read
// the last N lines; follow mode polls for new lines until a wait deadline so
// `shellac logs --follow` shuts down cleanly with the CLI.
package logs
