package engine

import (
	"testing"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

func TestSearchBasic(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	move := eng.Search(pos, UCILimits{Depth: 4}, nil)
	if move == board.NoMove {
		t.Fatal("search returned NoMove for the starting position")
	}
	t.Logf("best move: %s", move)
}

func TestSearchFindsBackRankMateInOne(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	eng := NewEngine(16)

	move := eng.Search(pos, UCILimits{Depth: 3}, nil)
	want, _ := board.ParseMove("a1a8", pos)
	if move != want {
		t.Errorf("got %s, want %s (Ra8#)", move, want)
	}
}

func TestSearchRespectsDepthLimit(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	var maxDepthSeen int
	eng.Search(pos, UCILimits{Depth: 3}, func(info SearchInfo) {
		if info.Depth > maxDepthSeen {
			maxDepthSeen = info.Depth
		}
	})

	if maxDepthSeen != 3 {
		t.Errorf("got max depth %d, want 3", maxDepthSeen)
	}
}

func TestSearchRespectsMoveTime(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	start := time.Now()
	move := eng.Search(pos, UCILimits{MoveTime: 200 * time.Millisecond}, nil)
	elapsed := time.Since(start)

	if move == board.NoMove {
		t.Fatal("search returned NoMove under a move-time budget")
	}
	if elapsed > 2*time.Second {
		t.Errorf("search overran its move-time budget: took %v", elapsed)
	}
}

func TestReconfigureResetsTable(t *testing.T) {
	// A 1 MB table, so a depth-4 search reaches the first 1000 slots that
	// HashFull samples.
	eng := NewEngine(1)
	pos := board.NewPosition()
	eng.Search(pos, UCILimits{Depth: 4}, nil)

	if eng.HashFull() == 0 {
		t.Fatal("expected a nonzero hashfull after a search")
	}

	eng.Reconfigure(1)
	if eng.HashFull() != 0 {
		t.Error("expected an empty table immediately after Reconfigure")
	}
}

func TestPerftStartPosition(t *testing.T) {
	eng := NewEngine(1)
	pos := board.NewPosition()

	const depth3Nodes = 8902
	if got := eng.Perft(pos, 3); got != depth3Nodes {
		t.Errorf("perft(3) = %d, want %d", got, depth3Nodes)
	}
}
