// Package textutil provides title normalization and filename sanitization
// shared by the grouper, the archive layout, and CLI output.
package textutil
