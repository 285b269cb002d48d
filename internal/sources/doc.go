// Package sources enumerates raw tracks from the configured platforms: a
// broadcaster's paginated JSON catalogue and downloader-tool playlists. Each
// enumerator returns tracks in stable source order for the grouper to fold
// into episodes. An empty enumeration is a normal end-of-input, not an error.
package sources
