// Package ffmpeg wraps the ffmpeg/ffprobe binaries for the audio operations
// the pipeline needs: in-order concatenation of multi-part episodes, metadata
// re-tagging, query clip extraction for fingerprinting, and duration probing.
package ffmpeg
