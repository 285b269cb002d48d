// Command shellac archives the episodes of a recurring radio show: it
// enumerates the configured sources, downloads and merges new episodes,
// rejects acoustic duplicates, and promotes unique recordings into the
// archive directory.
package main
