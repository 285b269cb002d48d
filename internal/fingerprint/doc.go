// Package fingerprint turns acoustic engine answers into duplicate verdicts.
// A short clip from the middle of an assembled artifact is queried against
// the permanent index and the per-sub-window answers are reduced by majority
// vote. The vote is deliberately conservative: split or sparse answers are
// inconclusive and the episode is archived rather than discarded.
package fingerprint
