package engine

import "github.com/hailam/chessplay/internal/board"

// Move ordering priorities. Buckets are spaced far enough apart that a
// move in a higher bucket always sorts first (hash move, captures, quiet
// promotions, killers, quiets); MVV-LVA orders moves inside the capture
// bucket and history orders the plain quiets.
const (
	hashMoveScore  = 1 << 30
	captureBase    = 1 << 20
	killerScore1   = 1 << 19
	killerScore2   = killerScore1 - 1
	promotionBonus = 1 << 18
)

// historyMax bounds the history table; the exponential-decay update in
// UpdateHistory keeps entries inside [-historyMax, historyMax].
const historyMax = 1 << 14

// mvvLvaScore returns the Most-Valuable-Victim/Least-Valuable-Attacker score
// for a capture: the victim's value dominates, with the attacker's
// value providing a secondary tie-break favoring cheaper attackers.
func mvvLvaScore(victim, attacker board.PieceType) int {
	return board.PieceValue[victim]*100 + (100 - board.PieceValue[attacker]/10)
}

// MoveOrderer holds the per-search move-ordering heuristics: two killer
// slots per ply, and a history table indexed by side, moving piece type
// and destination square (not from/to — a piece's history of being a
// good quiet move to a given square generalizes better across the many
// squares it could have come from).
type MoveOrderer struct {
	killers [MaxPly][2]board.Move
	history [2][6][64]int32
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and history for a new search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for c := range mo.history {
		for pt := range mo.history[c] {
			for sq := range mo.history[c][pt] {
				mo.history[c][pt][sq] = 0
			}
		}
	}
}

// UpdateKillers records a quiet move that caused a beta cutoff at ply.
// The existing first killer shifts into the second slot unless m is
// already the first killer, in which case nothing changes.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// IsKiller reports whether m is one of the two killers stored at ply.
func (mo *MoveOrderer) IsKiller(m board.Move, ply int) bool {
	return ply < MaxPly && (mo.killers[ply][0] == m || mo.killers[ply][1] == m)
}

// UpdateHistory applies an exponential-decay update to the history
// entry for (side, piece, to): entries move toward +-historyMax, the
// net step shrinking as the entry nears the bound (the decay term grows
// with the entry), and the result is clamped to the bound.
func (mo *MoveOrderer) UpdateHistory(side board.Color, piece board.PieceType, to board.Square, delta int) {
	entry := &mo.history[side][piece][to]
	d := int32(delta)
	*entry += d - (*entry)*abs32(d)/historyMax
	if *entry > historyMax {
		*entry = historyMax
	}
	if *entry < -historyMax {
		*entry = -historyMax
	}
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

// HistoryScore returns the current history score for a quiet move.
func (mo *MoveOrderer) HistoryScore(side board.Color, piece board.PieceType, to board.Square) int {
	return int(mo.history[side][piece][to])
}

// UpdateQuietStats, on a cutoff by a quiet move, applies the depth^2
// bonus to the cutoff move and the depth^2 malus to every quiet move
// tried before it, per move ordering convention: rewarding the move that
// worked and punishing the ones that were tried and failed, so the next
// search at this position orders them better. A cutoff by a non-quiet
// move changes nothing.
func (mo *MoveOrderer) UpdateQuietStats(pos *board.Position, cutoffMove board.Move, triedQuiets []board.Move, depth, ply int) {
	if !cutoffMove.IsQuiet() {
		return
	}
	bonus := depth * depth
	if cutoffMove.IsQuiet() {
		mo.UpdateKillers(cutoffMove, ply)
		piece := pos.PieceAt(cutoffMove.From())
		mo.UpdateHistory(pos.SideToMove, piece.Type(), cutoffMove.To(), bonus)
	}
	for _, m := range triedQuiets {
		if m == cutoffMove {
			continue
		}
		piece := pos.PieceAt(m.From())
		mo.UpdateHistory(pos.SideToMove, piece.Type(), m.To(), -bonus)
	}
}

// pickerStage names the staged-generation state machine: yield the
// hash move first (once it is found in the pseudo-legal move list),
// then score that list, then hand moves out best-first.
type pickerStage int

const (
	stageHash pickerStage = iota
	stageGenerate
	stageMain
	stageDone
)

// MovePicker lazily yields pseudo-legal moves for one search node, best
// first, without sorting the whole list up front unless the search
// actually examines that many moves (most cutoffs happen in the first
// few).
type MovePicker struct {
	pos     *board.Position
	orderer *MoveOrderer
	ttMove  board.Move
	ply     int

	stage  pickerStage
	moves  *board.MoveList
	scores []int
	index  int
}

// NewMovePicker creates a move picker for the given node.
func NewMovePicker(pos *board.Position, orderer *MoveOrderer, ttMove board.Move, ply int) *MovePicker {
	return &MovePicker{pos: pos, orderer: orderer, ttMove: ttMove, ply: ply, stage: stageHash}
}

// Next returns the next move to try, or (NoMove, false) when exhausted.
// The hash move, if pseudo-legal, is yielded once up front and skipped
// again when encountered during the generated list.
func (mp *MovePicker) Next() (board.Move, bool) {
	for {
		switch mp.stage {
		case stageHash:
			mp.stage = stageGenerate
			if mp.ttMove != board.NoMove {
				mp.moves = mp.pos.GeneratePseudoLegalMoves()
				if mp.moves.Contains(mp.ttMove) {
					return mp.ttMove, true
				}
			}

		case stageGenerate:
			if mp.moves == nil {
				mp.moves = mp.pos.GeneratePseudoLegalMoves()
			}
			mp.scores = make([]int, mp.moves.Len())
			for i := 0; i < mp.moves.Len(); i++ {
				mp.scores[i] = mp.orderer.scoreMove(mp.pos, mp.moves.Get(i), mp.ply, mp.ttMove)
			}
			mp.index = 0
			mp.stage = stageMain

		case stageMain:
			if mp.index >= mp.moves.Len() {
				mp.stage = stageDone
				continue
			}
			PickMove(mp.moves, mp.scores, mp.index)
			m := mp.moves.Get(mp.index)
			mp.index++
			if m == mp.ttMove {
				continue
			}
			return m, true

		case stageDone:
			return board.NoMove, false
		}
	}
}

// scoreMove returns the ordering score for a single move: TT move
// highest, then captures by MVV-LVA, then promotions, then killers,
// then quiet history.
func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove {
		return hashMoveScore
	}

	if m.IsCapture() {
		attacker := pos.PieceAt(m.From()).Type()
		var victim board.PieceType
		if m.IsEnPassant() {
			victim = board.Pawn
		} else {
			victim = pos.PieceAt(m.To()).Type()
		}
		score := captureBase + mvvLvaScore(victim, attacker)
		if m.IsPromotion() {
			score += promotionBonus + int(m.PromotionPiece())*10
		}
		return score
	}

	if m.IsPromotion() {
		return captureBase - promotionBonus + int(m.PromotionPiece())*10
	}

	if m == mo.killers[ply][0] {
		return killerScore1
	}
	if m == mo.killers[ply][1] {
		return killerScore2
	}

	piece := pos.PieceAt(m.From())
	return mo.HistoryScore(pos.SideToMove, piece.Type(), m.To())
}

// SortMoves sorts moves by their scores (descending) in one full
// selection sort; the search itself orders lazily through PickMove.
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove selects the best remaining move and moves it to index,
// enabling lazy partial sort: only as much of the list is sorted as
// the caller actually consumes.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// ScoreMoves scores a caller-supplied move list (used by quiescence,
// which already has a captures-only list from GenerateCaptures).
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, ttMove board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = mo.scoreMove(pos, moves.Get(i), ply, ttMove)
	}
	return scores
}
