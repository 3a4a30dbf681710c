package engine

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// Search constants.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// PVTable stores the principal variation as it is built bottom-up
// during search: each ply's row holds the continuation from that ply
// to the end of the line.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// lmrTable[depth][moveNumber] is the late-move reduction, computed
// once at package init from a logarithmic formula so reductions grow
// gently with both search depth and how far down the move list we are.
var lmrTable [64][64]int

const (
	lmrBase    = 0.25
	lmrDivisor = 2.6
)

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			r := lmrBase + math.Log(float64(d))*math.Log(float64(m))/lmrDivisor
			if r < 0 {
				r = 0
			}
			lmrTable[d][m] = int(r)
		}
	}
}

// lmpTable[depth] is the late-move-pruning move-count threshold for
// depth <= 5: quiets beyond this count are skipped without searching.
var lmpTable = [6]int{0, 4, 7, 12, 19, 28}

// currMoveReportInterval gates how often the root node emits a "current
// move" progress report: only once this much wall-clock time has
// elapsed since the last one, so a fast iteration doesn't spam it.
const currMoveReportInterval = time.Second

// SearchInfo is emitted to the UCI layer after each completed
// iterative-deepening iteration, or (when CurrMove is set) as a
// root-only progress report while a long iteration is still running.
type SearchInfo struct {
	Depth    int
	SelDepth int
	Score    int
	Mate     bool
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move

	// CurrMove, when not board.NoMove, marks this as a "current move"
	// progress report rather than a completed-iteration report: only
	// Depth, CurrMove and CurrMoveNumber are meaningful.
	CurrMove       board.Move
	CurrMoveNumber int
}

// Searcher performs iterative-deepening negamax search with alpha-beta
// pruning, principal variation search, and the usual battery of
// selectivity heuristics (null move, LMR/LMP, reverse futility, IIR,
// aspiration windows).
type Searcher struct {
	pos     *board.Position
	tt      *TranspositionTable
	orderer *MoveOrderer
	tm      *TimeManager
	limits  UCILimits

	nodes    uint64
	selDepth int
	stopFlag atomic.Bool

	onInfo             func(SearchInfo)
	lastCurrMoveReport time.Duration

	pv PVTable

	// quietsTried[ply] buffers quiet moves searched before the cutoff
	// move, reused across nodes at that ply to avoid reallocating.
	quietsTried [MaxPly][]board.Move
}

// NewSearcher creates a new searcher sharing the given transposition table.
func NewSearcher(tt *TranspositionTable) *Searcher {
	return &Searcher{
		tt:      tt,
		orderer: NewMoveOrderer(),
		tm:      NewTimeManager(),
	}
}

// Stop signals the search to stop as soon as it next polls.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Nodes returns the number of nodes searched so far.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

func (s *Searcher) reset() {
	s.stopFlag.Store(false)
	s.nodes = 0
	s.selDepth = 0
	s.lastCurrMoveReport = 0
	s.orderer.Clear()
}

// drawScore returns a small jittered draw value (rather than a flat
// zero) derived from the node counter, so that otherwise-equal
// repeated positions aren't scored identically throughout a line —
// this nudges the search away from shuffling into a draw when an
// equal-scoring alternative exists.
func (s *Searcher) drawScore() int {
	return 3 - int(s.nodes&3)
}

// Search runs iterative deepening from the current root position until
// a time/depth/node limit is hit or Stop is called, invoking onInfo
// after each completed depth. pos is searched and restored in place:
// its move history is preserved so in-game repetition detection spans
// the whole game, not just the current search tree.
func (s *Searcher) Search(pos *board.Position, limits UCILimits, onInfo func(SearchInfo)) (board.Move, int) {
	s.pos = pos
	s.limits = limits
	s.onInfo = onInfo
	s.reset()
	s.tm.Init(limits, pos.SideToMove)

	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth > MaxPly-1 {
		maxDepth = MaxPly - 1
	}

	var bestMove board.Move
	var bestScore int

	score := 0
	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && s.tm.ShouldStopSoft() {
			break
		}
		if limits.Nodes > 0 && s.nodes >= limits.Nodes {
			break
		}

		iterScore, ok := s.aspirationSearch(depth, score)
		if !ok {
			break // stopped mid-iteration; keep the previous depth's result
		}
		score = iterScore

		if s.pv.length[0] > 0 {
			bestMove = s.pv.moves[0][0]
			bestScore = score
		}

		if onInfo != nil {
			onInfo(SearchInfo{
				Depth:    depth,
				SelDepth: s.selDepth,
				Score:    score,
				Mate:     score > MateScore-MaxPly || score < -MateScore+MaxPly,
				Nodes:    s.nodes,
				Time:     s.tm.Elapsed(),
				PV:       s.GetPV(),
			})
		}

		if score > MateScore-MaxPly && depth >= (MateScore-score)*2 {
			break // found a mate no deeper search can improve on
		}
	}

	return bestMove, bestScore
}

// aspirationSearch searches depth with a narrow window around the
// previous iteration's score once depth is deep enough to make that
// worthwhile, re-searching with a widened window on fail-high/fail-low
// and falling back to a full window once the margin grows past 500cp.
func (s *Searcher) aspirationSearch(depth, prevScore int) (int, bool) {
	isMate := prevScore > MateScore-MaxPly || prevScore < -MateScore+MaxPly
	if depth < 6 || isMate {
		score := s.negamax(depth, 0, -Infinity, Infinity, false)
		return score, !s.stopFlag.Load()
	}

	margin := 25
	alpha := prevScore - margin
	beta := prevScore + margin

	for {
		score := s.negamax(depth, 0, alpha, beta, false)
		if s.stopFlag.Load() {
			return score, false
		}
		if score <= alpha {
			alpha -= margin
			margin *= 2
		} else if score >= beta {
			beta += margin
			margin *= 2
		} else {
			return score, true
		}
		if margin > 500 {
			score := s.negamax(depth, 0, -Infinity, Infinity, false)
			return score, !s.stopFlag.Load()
		}
	}
}

// negamax searches one node with alpha-beta pruning and principal
// variation search, returning the score from the side-to-move's
// perspective.
func (s *Searcher) negamax(depth, ply int, alpha, beta int, cutNode bool) int {
	rootDepth := depth
	pvNode := beta-alpha > 1

	if s.nodes&4095 == 0 && (s.stopFlag.Load() || s.tm.ShouldStopHard() || (s.limits.Nodes > 0 && s.nodes >= s.limits.Nodes)) {
		s.stopFlag.Store(true)
		return 0
	}

	s.nodes++
	if ply > s.selDepth {
		s.selDepth = ply
	}
	s.pv.length[ply] = ply

	if ply > 0 {
		if s.pos.IsDraw(ply) {
			return s.drawScore()
		}
		// Mate distance pruning: a mate already found closer to the
		// root than any mate reachable from here can't be improved on.
		alpha = max(alpha, -MateScore+ply)
		beta = min(beta, MateScore-ply-1)
		if alpha >= beta {
			return alpha
		}
	}

	var ttMove board.Move
	ttEntry, found := s.tt.Probe(s.pos.Hash)
	if found {
		ttMove = ttEntry.BestMove
		// We don't return immediately in PV nodes: doing so would let a
		// shallower-or-equal stored bound cut a PV node short and
		// truncate the principal variation being built here.
		if ply > 0 && !pvNode && int(ttEntry.Depth) >= depth {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				alpha = max(alpha, score)
			case TTUpperBound:
				beta = min(beta, score)
			}
			if alpha >= beta {
				return score
			}
		}
	}

	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	inCheck := s.pos.InCheck()
	staticEval := 0
	if !inCheck {
		staticEval = Evaluate(s.pos)
	}

	if !pvNode && !inCheck {
		// Reverse futility pruning: if the static eval already beats
		// beta by more than depth*margin, assume a real search would
		// too and cut.
		if depth <= 6 && staticEval-150*depth >= beta {
			return staticEval - 150*depth
		}

		// Null move pruning: give the opponent a free move and see if
		// they still can't catch up to beta; skip in positions with
		// only king+pawns, where null moves are unsound (zugzwang).
		if depth >= 3 && !s.pos.WasNullMove() && s.pos.HasNonPawnMaterial() && staticEval >= beta {
			reduction := 4 + depth/4
			undo := s.pos.MakeNullMove()
			score := -s.negamax(depth-reduction, ply+1, -beta, -beta+1, !cutNode)
			s.pos.UnmakeNullMove(undo)
			if s.stopFlag.Load() {
				return 0
			}
			if score >= beta {
				return beta
			}
		}
	}

	// Internal iterative reduction: without a hash move to anchor move
	// ordering on, shrink the depth of PV/cut nodes rather than pay for
	// a full-depth search on an unordered move list.
	if depth >= 3 && ttMove == board.NoMove && (pvNode || cutNode) {
		depth--
	}

	picker := NewMovePicker(s.pos, s.orderer, ttMove, ply)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound
	moveCount := 0
	quietsPlayed := 0
	quiets := s.quietsTried[ply][:0]

	for {
		move, ok := picker.Next()
		if !ok {
			break
		}

		isQuiet := move.IsQuiet()

		// Late move pruning: beyond a depth-dependent quiet-move-count
		// threshold, stop generating further quiet tries at shallow
		// depth when not in check. The threshold counts quiets played,
		// not moves played overall — captures (which the picker always
		// yields first) don't consume the budget.
		if !pvNode && !inCheck && isQuiet && depth <= 5 && quietsPlayed >= lmpTable[depth] {
			continue
		}

		if !s.pos.MakeMove(move) {
			s.pos.UnmakeMove(move)
			continue
		}
		moveCount++
		if isQuiet {
			quietsPlayed++
		}

		// At the root, let the operator see progress on a slow-moving
		// iteration: report the move about to be searched, no more
		// often than currMoveReportInterval.
		if ply == 0 && s.onInfo != nil {
			elapsed := s.tm.Elapsed()
			if elapsed-s.lastCurrMoveReport >= currMoveReportInterval {
				s.lastCurrMoveReport = elapsed
				s.onInfo(SearchInfo{
					Depth:          rootDepth,
					CurrMove:       move,
					CurrMoveNumber: moveCount,
				})
			}
		}

		givesCheck := s.pos.InCheck()
		newDepth := depth - 1
		if givesCheck {
			newDepth++ // check extension
		}

		var score int
		if moveCount == 1 {
			score = -s.negamax(newDepth, ply+1, -beta, -alpha, false)
		} else {
			reduction := 0
			if depth >= 3 && isQuiet && !givesCheck && !inCheck {
				r := lmrTable[min(depth, 63)][min(moveCount, 63)]
				if !pvNode {
					r++
				}
				reduction = max(0, r)
			}
			score = -s.negamax(newDepth-reduction, ply+1, -alpha-1, -alpha, true)
			if score > alpha && (reduction > 0 || pvNode) {
				score = -s.negamax(newDepth, ply+1, -beta, -alpha, false)
			}
		}

		s.pos.UnmakeMove(move)

		if s.stopFlag.Load() {
			return 0
		}

		if isQuiet {
			quiets = append(quiets, move)
			s.quietsTried[ply] = quiets
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact

				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		if score >= beta {
			s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, bestMove)
			s.orderer.UpdateQuietStats(s.pos, move, quiets, depth, ply)
			return score
		}
	}

	if moveCount == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)
	return bestScore
}

const maxQuiescencePly = 32

// quiescence searches captures and promotions only, to avoid the
// horizon effect of stopping a search mid-exchange.
func (s *Searcher) quiescence(ply int, alpha, beta int) int {
	if s.nodes&4095 == 0 && (s.stopFlag.Load() || s.tm.ShouldStopHard() || (s.limits.Nodes > 0 && s.nodes >= s.limits.Nodes)) {
		s.stopFlag.Store(true)
		return 0
	}
	s.nodes++
	if ply > s.selDepth {
		s.selDepth = ply
	}
	s.pv.length[ply] = ply

	if ply >= MaxPly-1 || ply-MaxPly+maxQuiescencePly > maxQuiescencePly {
		return Evaluate(s.pos)
	}

	pvNode := beta-alpha > 1

	var ttMove board.Move
	ttEntry, found := s.tt.Probe(s.pos.Hash)
	if found {
		ttMove = ttEntry.BestMove
		// Stored depth is irrelevant here: every quiescence entry is
		// stored with depth 0, so any hit is "deep enough".
		if !pvNode {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			}
		}
	}

	standPat := Evaluate(s.pos)
	if standPat >= beta {
		s.tt.Store(s.pos.Hash, 0, AdjustScoreToTT(standPat, ply), TTLowerBound, board.NoMove)
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	bigDelta := QueenValue
	if standPat+bigDelta < alpha {
		return alpha
	}

	moves := s.pos.GenerateCaptures()
	scores := s.orderer.ScoreMoves(s.pos, moves, ply, ttMove)
	inCheck := s.pos.InCheck()

	bestScore := standPat
	bestMove := board.NoMove
	flag := TTUpperBound

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		if !inCheck {
			var captureValue int
			if move.IsEnPassant() {
				captureValue = PawnValue
			} else if captured := s.pos.PieceAt(move.To()); captured != board.NoPiece {
				captureValue = pieceValues[captured.Type()]
			}
			if move.IsPromotion() {
				captureValue += QueenValue - PawnValue
			}
			if standPat+captureValue+200 < alpha {
				continue
			}
		}

		if !s.pos.MakeMove(move) {
			s.pos.UnmakeMove(move)
			continue
		}
		score := -s.quiescence(ply+1, -beta, -alpha)
		s.pos.UnmakeMove(move)

		if score > bestScore {
			bestScore = score
			bestMove = move
		}

		if score >= beta {
			s.tt.Store(s.pos.Hash, 0, AdjustScoreToTT(score, ply), TTLowerBound, move)
			return beta
		}
		if score > alpha {
			alpha = score
			flag = TTExact
		}
	}

	s.tt.Store(s.pos.Hash, 0, AdjustScoreToTT(bestScore, ply), flag, bestMove)
	return alpha
}

// GetPV returns the principal variation from the most recent search.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	copy(pv, s.pv.moves[0][:s.pv.length[0]])
	return pv
}
