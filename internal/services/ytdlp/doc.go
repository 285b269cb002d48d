// Package ytdlp wraps the external media downloader binary. It exposes two
// operations: single-item audio download with metadata tagging, and flat
// playlist enumeration through the tool's native JSON output mode. Command
// execution sits behind services.Executor so tests can inject fakes.
package ytdlp
