// Package episode defines the episode entity and the grouper that folds
// ordered source tracks into episodes.
//
// An episode's canonical title is derived deterministically from its first
// track (the text before the scene separator). Parts preserve source order,
// and episodes whose known total duration falls outside the configured
// plausible window are dropped before any download happens.
package episode
