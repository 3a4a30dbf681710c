package engine

import (
	"log"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// Engine is the single-threaded chess search engine: one transposition
// table, one move orderer, one searcher, driven by iterative deepening
// under UCI time controls.
type Engine struct {
	tt       *TranspositionTable
	searcher *Searcher

	// OnInfo, if set, is called after each iterative-deepening
	// iteration with the current search statistics.
	OnInfo func(SearchInfo)

	// recorder, if set, persists bench/search results across process
	// runs (see internal/store). Optional: nil means no persistence.
	recorder BenchRecorder
}

// BenchRecorder persists search telemetry. Implemented by
// internal/store.Store; kept as an interface here so the engine
// package doesn't need to import badger directly.
type BenchRecorder interface {
	RecordBench(fen string, depth int, nodes uint64, elapsed time.Duration, score int) error
}

// NewEngine creates a new engine with a transposition table sized to
// ttSizeMB megabytes.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	return &Engine{
		tt:       tt,
		searcher: NewSearcher(tt),
	}
}

// Reconfigure reallocates the transposition table to ttSizeMB megabytes,
// discarding its previous contents.
func (e *Engine) Reconfigure(ttSizeMB int) {
	e.tt = NewTranspositionTable(ttSizeMB)
	e.searcher = NewSearcher(e.tt)
}

// SetRecorder attaches a persistent bench recorder. Pass nil to disable.
func (e *Engine) SetRecorder(r BenchRecorder) {
	e.recorder = r
}

// Search finds the best move for pos under the given UCI time controls,
// invoking onInfo (falling back to e.OnInfo if onInfo is nil) after each
// completed depth.
func (e *Engine) Search(pos *board.Position, limits UCILimits, onInfo func(SearchInfo)) board.Move {
	if onInfo == nil {
		onInfo = e.OnInfo
	}

	log.Printf("[engine] search start side=%v depth=%d movetime=%v", pos.SideToMove, limits.Depth, limits.MoveTime)

	start := time.Now()
	move, score := e.searcher.Search(pos, limits, onInfo)

	log.Printf("[engine] search done move=%s score=%d nodes=%d elapsed=%v", move, score, e.searcher.Nodes(), time.Since(start))

	if e.recorder != nil {
		if err := e.recorder.RecordBench(pos.ToFEN(), limits.Depth, e.searcher.Nodes(), time.Since(start), score); err != nil {
			log.Printf("[engine] bench record failed: %v", err)
		}
	}

	return move
}

// Stop stops the current search as soon as it next polls.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Clear resets the transposition table and move-ordering heuristics for
// a new game.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.searcher.orderer.Clear()
}

// Nodes returns the number of nodes searched in the most recent call to Search.
func (e *Engine) Nodes() uint64 {
	return e.searcher.Nodes()
}

// Evaluate returns the static evaluation of pos, from the side-to-move's
// perspective.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// HashFull returns the permille of the transposition table in use.
func (e *Engine) HashFull() int {
	return e.tt.HashFull()
}

// Perft counts leaf nodes reachable from pos at the given depth, for
// move-generator verification.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}
	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(move)
	}
	return nodes
}

// ScoreToString renders a centipawn or mate score the way UCI "info
// score" lines do, e.g. "+1.25" or "Mate in 3".
func ScoreToString(score int) string {
	if score > MateScore-MaxPly {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -MateScore+MaxPly {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	sign := "+"
	if score < 0 {
		sign = "-"
		score = -score
	}
	frac := itoa(score % 100)
	if score%100 < 10 {
		frac = "0" + frac
	}
	return sign + itoa(score/100) + "." + frac
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
