package engine

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
)

func TestEvaluateStartPositionIsTempoOnly(t *testing.T) {
	pos := board.NewPosition()
	if got := Evaluate(pos); got != tempoBonus {
		t.Errorf("Evaluate(start) = %d, want %d (material/PSQT/mobility are symmetric; only tempo differs)", got, tempoBonus)
	}
}

func TestEvaluateFavorsMaterialAdvantage(t *testing.T) {
	// White is up a rook.
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if got := Evaluate(pos); got <= RookValue/2 {
		t.Errorf("Evaluate(up a rook) = %d, want something well above %d", got, RookValue/2)
	}
}

func TestEvaluateSignFlipsWithSideToMove(t *testing.T) {
	posWhite, err := board.ParseFEN("4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	posBlack, err := board.ParseFEN("4k3/8/8/8/8/8/8/R3K3 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	white := Evaluate(posWhite)
	black := Evaluate(posBlack)
	if white+black != 2*tempoBonus {
		t.Errorf("Evaluate is not antisymmetric across side to move apart from the side-to-move tempo: white=%d black=%d", white, black)
	}
}

func TestBishopPairBonus(t *testing.T) {
	onePair, err := board.ParseFEN("4k3/8/8/8/8/8/8/2B1KB2 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	noPair, err := board.ParseFEN("4k3/8/8/8/8/8/8/2B1KN2 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	if Evaluate(onePair) <= Evaluate(noPair) {
		t.Error("two bishops should score higher than a bishop and a knight of equal nominal value")
	}
}
