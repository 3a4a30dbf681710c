package board

import "fmt"

// CastlingRights is a 4-bit mask: WK, WQ, BK, BQ (bit order low to high).
type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide
	NoCastling  CastlingRights = 0
	AllCastling CastlingRights = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
)

// String returns the FEN castling rights field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSide != 0 {
		s += "K"
	}
	if cr&WhiteQueenSide != 0 {
		s += "Q"
	}
	if cr&BlackKingSide != 0 {
		s += "k"
	}
	if cr&BlackQueenSide != 0 {
		s += "q"
	}
	return s
}

// maxHistoryPly bounds the pre-sized undo stack, avoiding per-move
// allocation over the course of a game plus whatever search depth is
// layered on top of it.
const maxHistoryPly = 2048

// Position is a complete chess position: mailbox + bitboards kept in
// sync, incremental Zobrist hash, and a pre-sized history stack for
// make/undo.
type Position struct {
	Pieces      [2][6]Bitboard // [Color][PieceType]
	Occupied    [2]Bitboard    // per-color occupancy
	AllOccupied Bitboard
	mailbox     [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
	FiftyMove      int
	FullMoveNumber int
	HisPly         int

	Hash uint64

	KingSquare [2]Square
	Checkers   Bitboard

	history    [maxHistoryPly]HistoryEntry
	historyLen int
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// Copy returns a deep copy (history is reset, as copies are used for
// search roots that start their own game line).
func (p *Position) Copy() *Position {
	cp := *p
	cp.historyLen = 0
	cp.HisPly = 0
	return &cp
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	return p.mailbox[sq]
}

// IsEmpty reports whether sq is unoccupied.
func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

// placePiece puts piece on sq without touching the hash; callers that
// care about the hash toggle the Zobrist key themselves.
func (p *Position) placePiece(piece Piece, sq Square) {
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.mailbox[sq] = piece
	if pt == King {
		p.KingSquare[c] = sq
	}
}

// removePieceAt clears sq and returns what was there, without touching the hash.
func (p *Position) removePieceAt(sq Square) Piece {
	piece := p.mailbox[sq]
	if piece == NoPiece {
		return NoPiece
	}
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	p.mailbox[sq] = NoPiece
	return piece
}

// relocatePiece moves whatever sits on `from` to `to` (which must be
// empty), without touching the hash.
func (p *Position) relocatePiece(from, to Square) {
	piece := p.mailbox[from]
	c, pt := piece.Color(), piece.Type()
	moveBB := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pt] ^= moveBB
	p.Occupied[c] ^= moveBB
	p.AllOccupied ^= moveBB
	p.mailbox[from] = NoPiece
	p.mailbox[to] = piece
	if pt == King {
		p.KingSquare[c] = to
	}
}

func (p *Position) updateOccupied() {
	p.Occupied[White], p.Occupied[Black] = Empty, Empty
	for pt := Pawn; pt <= King; pt++ {
		p.Occupied[White] |= p.Pieces[White][pt]
		p.Occupied[Black] |= p.Pieces[Black][pt]
	}
	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
}

func (p *Position) findKings() {
	p.KingSquare[White] = p.Pieces[White][King].LSB()
	p.KingSquare[Black] = p.Pieces[Black][King].LSB()
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers != 0
}

// String renders the board for debugging.
func (p *Position) String() string {
	s := "\n"
	for rank := 7; rank >= 0; rank-- {
		s += fmt.Sprintf("%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				s += ". "
			} else {
				s += piece.String() + " "
			}
		}
		s += "\n"
	}
	s += "\n   a b c d e f g h\n"
	s += fmt.Sprintf("side=%s castle=%s ep=%s fifty=%d hash=%016x\n",
		p.SideToMove, p.CastlingRights, p.EnPassant, p.FiftyMove, p.Hash)
	return s
}

// MakeMove applies m in place. It returns false (and the caller must
// still call UnmakeMove) exactly when the move leaves the mover's own
// king in check — the move is applied regardless so that undo always
// has a matching make to reverse.
func (p *Position) MakeMove(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	piece := p.mailbox[from]

	entry := &p.history[p.historyLen]
	entry.Move = m
	entry.MovedPiece = piece
	entry.CapturedPiece = NoPiece
	entry.CastlingRights = p.CastlingRights
	entry.EnPassant = p.EnPassant
	entry.FiftyMove = p.FiftyMove
	entry.Hash = p.Hash
	p.historyLen++

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}

	switch {
	case m.IsCastle():
		p.relocatePiece(from, to)
		p.Hash ^= zobristPiece[us][King][from] ^ zobristPiece[us][King][to]
		rookFrom, rookTo := castleRookSquares(to)
		p.relocatePiece(rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom] ^ zobristPiece[us][Rook][rookTo]
		if us == White {
			p.dropCastlingRights(us, WhiteKingSide|WhiteQueenSide, 0)
		} else {
			p.dropCastlingRights(us, BlackKingSide|BlackQueenSide, 0)
		}

	case m.IsEnPassant():
		capSq := to - 8
		if us == Black {
			capSq = to + 8
		}
		entry.CapturedPiece = p.removePieceAt(capSq)
		p.Hash ^= zobristPiece[them][Pawn][capSq]
		p.relocatePiece(from, to)
		p.Hash ^= zobristPiece[us][Pawn][from] ^ zobristPiece[us][Pawn][to]

	case m.IsPromotion():
		if m.IsCapture() {
			entry.CapturedPiece = p.removePieceAt(to)
			p.Hash ^= zobristPiece[them][entry.CapturedPiece.Type()][to]
		}
		p.removePieceAt(from)
		p.Hash ^= zobristPiece[us][Pawn][from]
		promoted := NewPiece(m.PromotionPiece(), us)
		p.placePiece(promoted, to)
		p.Hash ^= zobristPiece[us][m.PromotionPiece()][to]
		p.updateCastlingOnRookCapture(to)

	default: // normal move, possibly a capture
		if m.IsCapture() {
			entry.CapturedPiece = p.removePieceAt(to)
			p.Hash ^= zobristPiece[them][entry.CapturedPiece.Type()][to]
		}
		p.relocatePiece(from, to)
		p.Hash ^= zobristPiece[us][piece.Type()][from] ^ zobristPiece[us][piece.Type()][to]

		if piece.Type() == Pawn && abs(int(to)-int(from)) == 16 {
			ep := Square((int(from) + int(to)) / 2)
			p.EnPassant = ep
			p.Hash ^= zobristEnPassant[ep.File()]
		}
		if piece.Type() == King {
			if us == White {
				p.dropCastlingRights(us, WhiteKingSide|WhiteQueenSide, 0)
			} else {
				p.dropCastlingRights(us, BlackKingSide|BlackQueenSide, 0)
			}
		}
		p.updateCastlingOnRookMove(from)
		p.updateCastlingOnRookCapture(to)
	}

	if piece.Type() == Pawn || entry.CapturedPiece != NoPiece {
		p.FiftyMove = 0
	} else {
		p.FiftyMove++
	}

	if us == Black {
		p.FullMoveNumber++
	}
	p.HisPly++

	p.SideToMove = them
	p.Hash ^= zobristSideToMove
	p.UpdateCheckers()

	return !p.AttackersByColor(p.KingSquare[us], them, p.AllOccupied).More()
}

// castleRookSquares returns the rook's from/to squares for a castle
// whose king destination is `kingTo`.
func castleRookSquares(kingTo Square) (from, to Square) {
	rank := kingTo.Rank()
	if kingTo.File() == 6 { // kingside, g-file
		return NewSquare(7, rank), NewSquare(5, rank)
	}
	return NewSquare(0, rank), NewSquare(3, rank) // queenside, c-file
}

// dropCastlingRights clears the rights in `clear` and folds the change
// into the hash at once (the old 16-way castling key out, the new one
// in). The Color and the third argument are not used.
func (p *Position) dropCastlingRights(_ Color, clear CastlingRights, _ CastlingRights) {
	if p.CastlingRights&clear == 0 {
		return
	}
	p.Hash ^= zobristCastling[p.CastlingRights]
	p.CastlingRights &^= clear
	p.Hash ^= zobristCastling[p.CastlingRights]
}

func (p *Position) updateCastlingOnRookMove(from Square) {
	var right CastlingRights
	switch from {
	case A1:
		right = WhiteQueenSide
	case H1:
		right = WhiteKingSide
	case A8:
		right = BlackQueenSide
	case H8:
		right = BlackKingSide
	default:
		return
	}
	p.dropCastlingRights(NoColor, right, 0)
}

func (p *Position) updateCastlingOnRookCapture(to Square) {
	p.updateCastlingOnRookMove(to)
}

// UnmakeMove reverses the most recent MakeMove call. It never
// recomputes hash deltas: the prior hash is restored verbatim from the
// history entry.
func (p *Position) UnmakeMove(m Move) {
	p.historyLen--
	entry := &p.history[p.historyLen]

	them := p.SideToMove
	us := them.Other()
	from, to := m.From(), m.To()

	p.SideToMove = us
	p.CastlingRights = entry.CastlingRights
	p.EnPassant = entry.EnPassant
	p.FiftyMove = entry.FiftyMove
	p.Hash = entry.Hash
	if us == Black {
		p.FullMoveNumber--
	}
	p.HisPly--

	switch {
	case m.IsCastle():
		p.relocatePiece(to, from)
		rookFrom, rookTo := castleRookSquares(to)
		p.relocatePiece(rookTo, rookFrom)

	case m.IsEnPassant():
		p.relocatePiece(to, from)
		capSq := to - 8
		if us == Black {
			capSq = to + 8
		}
		p.placePiece(entry.CapturedPiece, capSq)

	case m.IsPromotion():
		p.removePieceAt(to)
		p.placePiece(NewPiece(Pawn, us), from)
		if entry.CapturedPiece != NoPiece {
			p.placePiece(entry.CapturedPiece, to)
		}

	default:
		p.relocatePiece(to, from)
		if entry.CapturedPiece != NoPiece {
			p.placePiece(entry.CapturedPiece, to)
		}
	}

	p.UpdateCheckers()
}

// NullMoveUndo holds what MakeNullMove must restore.
type NullMoveUndo struct {
	EnPassant Square
	Hash      uint64
	FiftyMove int
}

// MakeNullMove passes the turn without moving a piece (search only).
func (p *Position) MakeNullMove() NullMoveUndo {
	undo := NullMoveUndo{EnPassant: p.EnPassant, Hash: p.Hash, FiftyMove: p.FiftyMove}
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
		p.EnPassant = NoSquare
	}
	p.history[p.historyLen].Move = NoMove
	p.historyLen++
	p.FiftyMove = 0
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSideToMove
	p.UpdateCheckers()
	return undo
}

// UnmakeNullMove reverses MakeNullMove.
func (p *Position) UnmakeNullMove(undo NullMoveUndo) {
	p.historyLen--
	p.EnPassant = undo.EnPassant
	p.Hash = undo.Hash
	p.FiftyMove = undo.FiftyMove
	p.SideToMove = p.SideToMove.Other()
	p.UpdateCheckers()
}

// WasNullMove reports whether the last half-move applied was a null move.
func (p *Position) WasNullMove() bool {
	return p.historyLen > 0 && p.history[p.historyLen-1].Move == NoMove
}

// HasNonPawnMaterial reports whether the side to move has any piece
// besides pawns and king (used to avoid null-move zugzwang).
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.Pieces[us][Knight]|p.Pieces[us][Bishop]|p.Pieces[us][Rook]|p.Pieces[us][Queen] != 0
}

// IsFiftyMoveDraw reports the fifty-move (100 half-move) rule.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.FiftyMove >= 100
}

// IsInsufficientMaterial reports draws where neither side can force
// mate: with no pawns, rooks or queens left, either each side has at
// most one minor piece, or there are no bishops and at most two knights.
// The second case reproduces the source engine's "bishop and <=2 knights"
// rule rather than the strictly correct KNN-vs-K exception (REDESIGN FLAGS).
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}
	if (p.Occupied[White]&^p.Pieces[White][King]).PopCount() <= 1 &&
		(p.Occupied[Black]&^p.Pieces[Black][King]).PopCount() <= 1 {
		return true
	}
	bishops := p.Pieces[White][Bishop] | p.Pieces[Black][Bishop]
	knights := (p.Pieces[White][Knight] | p.Pieces[Black][Knight]).PopCount()
	if bishops == 0 && knights <= 2 {
		return true
	}
	return false
}

// IsRepetitionDraw scans the history stack two half-moves at a time
// (same side to move) back no further than the last irreversible move.
// A single repetition found strictly above the search root (ply > 0)
// is sufficient; otherwise two repetitions are required.
func (p *Position) IsRepetitionDraw(ply int) bool {
	if p.historyLen < 4 {
		return false
	}
	floor := p.historyLen - p.FiftyMove
	if floor < 0 {
		floor = 0
	}
	repetitions := 0
	i := p.historyLen - 4
	for i >= floor {
		if p.history[i].Hash == p.Hash {
			repetitions++
			aboveRoot := p.historyLen-i < ply
			if aboveRoot {
				return true
			}
			if repetitions >= 2 {
				return true
			}
		}
		i -= 2
	}
	return false
}

// IsDraw reports fifty-move, insufficient-material or repetition draws
// (stalemate is detected by the search/move-generator, not here).
func (p *Position) IsDraw(ply int) bool {
	return p.IsFiftyMoveDraw() || p.IsInsufficientMaterial() || p.IsRepetitionDraw(ply)
}

// Material returns White-minus-Black material balance in centipawns.
func (p *Position) Material() int {
	score := 0
	for pt := Pawn; pt < King; pt++ {
		score += p.Pieces[White][pt].PopCount() * PieceValue[pt]
		score -= p.Pieces[Black][pt].PopCount() * PieceValue[pt]
	}
	return score
}
