package engine

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

func TestKillerSlotsShiftOnUpdate(t *testing.T) {
	mo := NewMoveOrderer()
	m1 := board.NewMove(board.E2, board.E4, false)
	m2 := board.NewMove(board.D2, board.D4, false)

	mo.UpdateKillers(m1, 3)
	if !mo.IsKiller(m1, 3) {
		t.Fatal("m1 should be a killer after the first update")
	}

	mo.UpdateKillers(m2, 3)
	if !mo.IsKiller(m1, 3) || !mo.IsKiller(m2, 3) {
		t.Error("both killers should be tracked after the second update")
	}

	m3 := board.NewMove(board.G1, board.F3, false)
	mo.UpdateKillers(m3, 3)
	if mo.IsKiller(m1, 3) {
		t.Error("oldest killer should have been evicted")
	}
	if !mo.IsKiller(m2, 3) || !mo.IsKiller(m3, 3) {
		t.Error("the two most recent killers should remain")
	}
}

func TestUpdateKillersIsIdempotentForSameMove(t *testing.T) {
	mo := NewMoveOrderer()
	m1 := board.NewMove(board.E2, board.E4, false)
	m2 := board.NewMove(board.D2, board.D4, false)

	mo.UpdateKillers(m1, 0)
	mo.UpdateKillers(m2, 0)
	mo.UpdateKillers(m1, 0) // already first killer: no-op

	if !mo.IsKiller(m2, 0) {
		t.Error("second killer should not have been evicted by a repeat of the first")
	}
}

func TestHistoryDecaysTowardBoundAndClamps(t *testing.T) {
	mo := NewMoveOrderer()

	for i := 0; i < 100; i++ {
		mo.UpdateHistory(board.White, board.Knight, board.F3, 400)
	}

	score := mo.HistoryScore(board.White, board.Knight, board.F3)
	if score <= 0 {
		t.Fatalf("expected a positive history score, got %d", score)
	}
	if score > historyMax {
		t.Errorf("history score %d exceeds historyMax %d", score, historyMax)
	}
}

func TestHistoryNegativeUpdatesPushScoreDown(t *testing.T) {
	mo := NewMoveOrderer()
	mo.UpdateHistory(board.Black, board.Rook, board.A1, 200)
	before := mo.HistoryScore(board.Black, board.Rook, board.A1)

	mo.UpdateHistory(board.Black, board.Rook, board.A1, -200)
	after := mo.HistoryScore(board.Black, board.Rook, board.A1)

	if after >= before {
		t.Errorf("expected history score to drop after a negative update: before=%d after=%d", before, after)
	}
}

func TestMovePickerYieldsHashMoveFirst(t *testing.T) {
	pos := board.NewPosition()
	mo := NewMoveOrderer()
	ttMove := board.NewMove(board.E2, board.E4, false)

	mp := NewMovePicker(pos, mo, ttMove, 0)
	first, ok := mp.Next()
	if !ok || first != ttMove {
		t.Fatalf("expected the hash move first, got %s, ok=%v", first, ok)
	}

	seen := map[board.Move]bool{first: true}
	for {
		m, ok := mp.Next()
		if !ok {
			break
		}
		if seen[m] {
			t.Errorf("move %s yielded twice (hash move should be deduplicated)", m)
		}
		seen[m] = true
	}

	legal := pos.GenerateLegalMoves()
	if len(seen) != legal.Len() {
		t.Errorf("picker yielded %d distinct moves, want %d", len(seen), legal.Len())
	}
}
