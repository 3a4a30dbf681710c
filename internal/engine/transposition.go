package engine

import "github.com/hailam/chessplay/internal/board"

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTNone       TTFlag = iota // Slot unoccupied (the zero value)
	TTExact                    // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint32     // Upper 32 bits of Zobrist hash for verification
	BestMove board.Move // Best move found
	Score    int16      // Score (bounded by flag)
	Depth    int8       // Search depth
	Flag     TTFlag     // Type of bound
}

// TranspositionTable is a single-slot-per-bucket hash table for storing
// search results. Unlike a power-of-2 masked table, the slot count need
// not be a power of two: the index is a plain modulo, which lets the
// table size track the requested MB budget closely instead of rounding
// down to the nearest power of two.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64

	hits   uint64
	probes uint64
}

// NewTranspositionTable creates a transposition table sized to sizeMB
// megabytes, one TTEntry per slot, indexed by hash modulo slot count.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	const entrySize = 12 // bytes: unsafe.Sizeof(TTEntry{}), 10 bytes of fields padded to 4-byte alignment
	numEntries := uint64(sizeMB) * 1024 * 1024 / entrySize
	if numEntries == 0 {
		numEntries = 1
	}
	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
	}
}

func (tt *TranspositionTable) index(hash uint64) uint64 {
	return hash % tt.size
}

// Probe looks up a position in the transposition table.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++
	entry := tt.entries[tt.index(hash)]
	if entry.Key == uint32(hash>>32) && entry.Flag != TTNone {
		tt.hits++
		return entry, true
	}
	return TTEntry{}, false
}

// Store saves a position in the transposition table. The replacement
// policy is unconditional overwrite, with one exception: when the
// incoming best move is NoMove and the slot already holds this same
// key, the previously stored move is preserved rather than clobbered
// with nothing (this keeps the PV move available to the next probe
// after a fail-low re-store).
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move) {
	entry := &tt.entries[tt.index(hash)]
	key := uint32(hash >> 32)

	if bestMove == board.NoMove && entry.Key == key {
		bestMove = entry.BestMove
	}

	entry.Key = key
	entry.BestMove = bestMove
	entry.Score = int16(score)
	entry.Depth = int8(depth)
	entry.Flag = flag
}

// Clear wipes the transposition table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.hits = 0
	tt.probes = 0
}

// HashFull returns the permille of the table that holds a live entry
// (sampling the first 1000 slots, as most engines do to avoid scanning
// the whole table every `info` line).
func (tt *TranspositionTable) HashFull() int {
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}
	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Flag != TTNone {
			used++
		}
	}
	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of slots in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// AdjustScoreFromTT converts a stored mate score (counted from the node
// it was stored at) back into the search's root-relative form at the
// current ply, when reading an entry.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT converts a root-relative mate score at the current
// ply into one counted from this node, for storage, so the entry stays
// valid when the position is reached again at another ply.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
