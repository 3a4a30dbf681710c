package board

import "fmt"

// Move encodes a chess move in 16 bits:
// bits 0-5:   origin square (0-63)
// bits 6-11:  destination square (0-63)
// bits 12-15: flags
//
// Flag values: 0=quiet, 1=castle, 4=capture, 6=en passant,
// 8..11=promotion to {N,B,R,Q}. The capture bit (4) is OR'd with a
// promotion flag to encode a promotion-capture.
type Move uint16

// Move flags (bits 12-15).
const (
	FlagQuiet     uint16 = 0
	FlagCastle    uint16 = 1
	FlagCapture   uint16 = 4
	FlagEnPassant uint16 = 6
	FlagPromoN    uint16 = 8
	FlagPromoB    uint16 = 9
	FlagPromoR    uint16 = 10
	FlagPromoQ    uint16 = 11
)

// NoMove represents the absence of a move.
const NoMove Move = 0

var promoFlagForPiece = [4]uint16{FlagPromoN, FlagPromoB, FlagPromoR, FlagPromoQ}

// promoPieceForFlag maps a promotion flag (low 2 bits) to a PieceType.
var promoPieceForFlag = [4]PieceType{Knight, Bishop, Rook, Queen}

func newMove(from, to Square, flag uint16) Move {
	return Move(from) | Move(to)<<6 | Move(flag)<<12
}

// NewMove creates a quiet move, or a FlagCapture move when capture is
// true; the board is not consulted.
func NewMove(from, to Square, capture bool) Move {
	if capture {
		return newMove(from, to, FlagCapture)
	}
	return newMove(from, to, FlagQuiet)
}

// NewCastle creates a castling move (the king's motion; make() relocates the rook).
func NewCastle(from, to Square) Move {
	return newMove(from, to, FlagCastle)
}

// NewEnPassant creates an en passant capture.
func NewEnPassant(from, to Square) Move {
	return newMove(from, to, FlagEnPassant)
}

// NewPromotion creates a promotion move, capture or not.
func NewPromotion(from, to Square, promo PieceType, capture bool) Move {
	flag := promoFlagForPiece[promo-Knight]
	if capture {
		flag |= FlagCapture
	}
	return newMove(from, to, flag)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Flag returns the 4-bit flag field.
func (m Move) Flag() uint16 {
	return uint16(m>>12) & 0xF
}

// IsCastle reports whether the move is a castle.
func (m Move) IsCastle() bool {
	return m.Flag() == FlagCastle
}

// IsEnPassant reports whether the move is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsCapture reports whether the capture bit is set (includes promotion-captures).
func (m Move) IsCapture() bool {
	return m.Flag()&FlagCapture != 0 && m.Flag() != FlagCastle
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Flag() >= FlagPromoN
}

// PromotionPiece returns the promotion target; only valid if IsPromotion().
func (m Move) PromotionPiece() PieceType {
	return promoPieceForFlag[(m.Flag()&^FlagCapture)-FlagPromoN]
}

// IsQuiet reports whether the move is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the move in UCI long algebraic notation (e.g. "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		promoChars := "nbrq"
		s += string(promoChars[m.PromotionPiece()-Knight])
	}
	return s
}

// ParseMove interprets a UCI move string against the current position,
// inferring castle/en-passant/capture flags from board state.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece on %s", from)
	}
	capture := !pos.IsEmpty(to)

	if len(s) >= 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, promo, capture), nil
	}

	if piece.Type() == King && abs(int(to)-int(from)) == 2 {
		return NewCastle(from, to), nil
	}
	if piece.Type() == Pawn && to == pos.EnPassant && from.File() != to.File() {
		return NewEnPassant(from, to), nil
	}
	return NewMove(from, to, capture), nil
}

// MoveList is a fixed-capacity list of moves, sized to avoid allocation
// for any legal chess position (the true maximum is 218).
type MoveList struct {
	moves [256]Move
	count int
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int { return ml.count }

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move { return ml.moves[i] }

// Add appends a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Swap exchanges the moves at i and j.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Contains reports whether m is present in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// HistoryEntry records what is needed to undo one half-move: the state
// that make() mutated in place, plus the move and the piece it captured.
type HistoryEntry struct {
	Move           Move
	MovedPiece     Piece
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	FiftyMove      int
	Hash           uint64
}
