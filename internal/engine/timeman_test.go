package engine

import (
	"testing"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

func TestTimeManagerFixedMoveTime(t *testing.T) {
	tm := NewTimeManager()
	tm.Init(UCILimits{MoveTime: 500 * time.Millisecond}, board.White)

	if tm.soft != 500*time.Millisecond || tm.hard != 500*time.Millisecond {
		t.Errorf("fixed movetime should set soft == hard == 500ms, got soft=%v hard=%v", tm.soft, tm.hard)
	}
}

func TestTimeManagerInfiniteIsUnbounded(t *testing.T) {
	tm := NewTimeManager()
	tm.Init(UCILimits{Infinite: true}, board.White)

	if tm.ShouldStopHard() || tm.ShouldStopSoft() {
		t.Error("an infinite search with no time control should never report a stop")
	}
}

func TestTimeManagerSplitsRemainingTime(t *testing.T) {
	tm := NewTimeManager()
	limits := UCILimits{
		Time:      [2]time.Duration{10 * time.Second, 10 * time.Second},
		MovesToGo: 18,
	}
	tm.Init(limits, board.White)

	if tm.hard <= 0 {
		t.Fatal("expected a positive hard bound")
	}
	if tm.soft >= tm.hard {
		t.Errorf("soft bound should be tighter than hard: soft=%v hard=%v", tm.soft, tm.hard)
	}
}

func TestTimeManagerHardBoundTripsAfterElapsed(t *testing.T) {
	tm := NewTimeManager()
	tm.Init(UCILimits{MoveTime: 10 * time.Millisecond}, board.White)

	time.Sleep(30 * time.Millisecond)
	if !tm.ShouldStopHard() {
		t.Error("expected the hard bound to have tripped")
	}
}
