package engine

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

func TestTranspositionStoreProbeRoundTrip(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(0x1234567890abcdef)
	move := board.NewMove(board.E2, board.E4, false)

	tt.Store(hash, 6, 55, TTExact, move)

	entry, found := tt.Probe(hash)
	if !found {
		t.Fatal("expected a hit after Store")
	}
	if entry.BestMove != move || entry.Score != 55 || entry.Depth != 6 || entry.Flag != TTExact {
		t.Errorf("got %+v, want move=%s score=55 depth=6 flag=Exact", entry, move)
	}
}

func TestTranspositionPreservesMoveOnNoMoveStore(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(42)
	move := board.NewMove(board.G1, board.F3, false)

	tt.Store(hash, 4, 10, TTExact, move)
	tt.Store(hash, 8, -10, TTUpperBound, board.NoMove)

	entry, found := tt.Probe(hash)
	if !found {
		t.Fatal("expected a hit")
	}
	if entry.BestMove != move {
		t.Errorf("best move was clobbered: got %s, want %s", entry.BestMove, move)
	}
	if entry.Depth != 8 || entry.Flag != TTUpperBound || entry.Score != -10 {
		t.Errorf("depth/flag/score not updated: got %+v", entry)
	}
}

func TestTranspositionMissOnKeyCollisionDifferentHash(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Store(1, 4, 0, TTExact, board.NoMove)

	// Same slot (index 1), different verification key (upper 32 bits).
	if _, found := tt.Probe(1 + tt.Size()<<32); found {
		t.Error("expected a miss for a different hash sharing the slot")
	}
}

func TestAdjustScoreRoundTripsThroughPly(t *testing.T) {
	const ply = 5
	mateScore := MateScore - 3

	stored := AdjustScoreToTT(mateScore, ply)
	back := AdjustScoreFromTT(stored, ply)
	if back != mateScore {
		t.Errorf("mate score did not round-trip: got %d, want %d", back, mateScore)
	}

	plain := 123
	if AdjustScoreToTT(plain, ply) != plain || AdjustScoreFromTT(plain, ply) != plain {
		t.Error("non-mate scores should pass through unchanged")
	}
}

func TestHashFullGrowsAsEntriesAreStored(t *testing.T) {
	tt := NewTranspositionTable(1)
	if tt.HashFull() != 0 {
		t.Fatal("expected an empty table initially")
	}
	for i := uint64(0); i < 500; i++ {
		tt.Store(i, 1, 0, TTExact, board.NoMove)
	}
	if tt.HashFull() == 0 {
		t.Error("expected hashfull to grow after storing entries")
	}
}
