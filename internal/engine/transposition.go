package engine

import (
	"github.com/caissadev/caissa/internal/rules"
)

// TTEntry is a cached search result for one position.
type TTEntry struct {
	Key      uint64     // full key, verified on probe
	BestMove rules.Move // best move found, NoMove when none
	Score    int16      // score from the mover's perspective, TT-adjusted
	Depth    int8       // depth searched; trusted only for queries at depth <= Depth
}

// TranspositionTable caches search results keyed by position identity. It
// has a fixed capacity with always-replace on collision, so memory stays
// bounded across a session. Not safe for concurrent use; it is owned and
// mutated only by the search core.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64

	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a table of roughly sizeMB megabytes.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	const entrySize = 16
	numEntries := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / entrySize)
	if numEntries < 1024 {
		numEntries = 1024
	}
	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		mask:    numEntries - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position. The caller must check Depth against its own
// requested depth before trusting Score; BestMove is usable as an ordering
// hint regardless.
func (tt *TranspositionTable) Probe(key uint64) (TTEntry, bool) {
	tt.probes++
	entry := tt.entries[key&tt.mask]
	if entry.Depth > 0 && entry.Key == key {
		tt.hits++
		return entry, true
	}
	return TTEntry{}, false
}

// Store saves a result, unconditionally overwriting whatever occupied the
// slot. depth must be positive.
func (tt *TranspositionTable) Store(key uint64, depth int, score int, bestMove rules.Move) {
	entry := &tt.entries[key&tt.mask]
	entry.Key = key
	entry.BestMove = bestMove
	entry.Score = int16(score)
	entry.Depth = int8(depth)
}

// Clear empties the table and resets its counters, for callers that want a
// cold cache.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.hits = 0
	tt.probes = 0
}

// HitRate returns the fraction of probes answered, as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the table capacity in entries.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.entries))
}

// Mate scores are stored relative to the storing node and re-anchored to
// the probing node's ply, so "mate in N from here" survives transposition.

func scoreToTT(score, ply int) int {
	if score > MateValue-MaxPly {
		return score + ply
	}
	if score < -MateValue+MaxPly {
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	if score > MateValue-MaxPly {
		return score - ply
	}
	if score < -MateValue+MaxPly {
		return score + ply
	}
	return score
}
