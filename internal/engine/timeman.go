package engine

import (
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// UCILimits contains UCI time control parameters for one search.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = not given; 20 is assumed)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Depth     int              // maximum search depth (0 = unbounded)
	Nodes     uint64           // maximum nodes to search (0 = unbounded)
	Infinite  bool             // search until stopped
}

// TimeManager is a two-tier (soft/hard) time budget: the hard bound is
// polled frequently inside the search and is a true "must stop now",
// while the soft bound is only consulted between iterative-deepening
// iterations, so a depth already in progress is always allowed to
// finish.
type TimeManager struct {
	soft      time.Duration
	hard      time.Duration
	startTime time.Time
	unbounded bool
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init computes the soft and hard bounds for a search starting now.
func (tm *TimeManager) Init(limits UCILimits, us board.Color) {
	tm.startTime = time.Now()

	if limits.MoveTime > 0 {
		tm.soft = limits.MoveTime
		tm.hard = limits.MoveTime
		tm.unbounded = false
		return
	}

	if limits.Infinite || limits.Depth > 0 || limits.Nodes > 0 {
		tm.unbounded = true
		return
	}

	timeLeft := limits.Time[us]
	if timeLeft <= 0 {
		tm.unbounded = true
		return
	}
	inc := limits.Inc[us]
	mtg := limits.MovesToGo
	if mtg <= 0 {
		mtg = 20
	}

	tm.hard = timeLeft/time.Duration(mtg+2) + inc/2
	tm.soft = tm.hard / 2
	tm.unbounded = false
}

// Elapsed returns the time elapsed since the search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// ShouldStopHard reports whether the hard bound has been exceeded.
// Checked every few thousand nodes during the search itself.
func (tm *TimeManager) ShouldStopHard() bool {
	return !tm.unbounded && tm.Elapsed() >= tm.hard
}

// ShouldStopSoft reports whether the soft bound has been exceeded.
// Checked only at the top of each iterative-deepening iteration.
func (tm *TimeManager) ShouldStopSoft() bool {
	return !tm.unbounded && tm.Elapsed() >= tm.soft
}
