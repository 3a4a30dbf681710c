// Package uci implements a UCI-like text protocol over stdin/stdout.
package uci

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
)

// moveTimeOverhead is subtracted from an explicit "movetime" budget to
// leave headroom for I/O and GC pauses between the search returning and
// the bestmove line actually reaching the front-end.
const moveTimeOverhead = 50 * time.Millisecond

// UCI is a line-oriented command loop driving one engine.Engine.
type UCI struct {
	engine   *engine.Engine
	position *board.Position

	searching     bool
	searchDone    chan struct{}
	stopRequested atomic.Bool
}

// New creates a new UCI handler wrapping eng.
func New(eng *engine.Engine) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
	}
}

// Run reads commands from stdin until EOF or "quit".
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return
		case "setoption":
			u.handleSetOption(args)
		case "d":
			fmt.Println(u.position.String())
		case "perft":
			u.handlePerft(args)
		default:
			fmt.Println("unknown command")
		}
	}
}

func (u *UCI) handleUCI() {
	fmt.Println("id name gochess")
	fmt.Println("id author gochess contributors")
	fmt.Println()
	fmt.Println("option name Hash type spin default 64 min 1 max 2048")
	fmt.Println("uciok")
}

func (u *UCI) handleNewGame() {
	u.engine.Clear()
	u.position = board.NewPosition()
}

// handlePosition implements:
//
//	position startpos [moves m1 m2 …]
//	position fen <FEN> [moves m1 m2 …]
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var moveStart int
	switch args[0] {
	case "startpos":
		u.position = board.NewPosition()
		moveStart = 1
	case "fen":
		fenEnd := len(args)
		for i := 1; i < len(args); i++ {
			if args[i] == "moves" {
				fenEnd = i
				break
			}
		}
		pos, err := board.ParseFEN(strings.Join(args[1:fenEnd], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid FEN: %v\n", err)
			os.Exit(1) // malformed FEN is fatal
		}
		u.position = pos
		moveStart = fenEnd
	default:
		return
	}

	for i := moveStart; i < len(args); i++ {
		if args[i] == "moves" {
			continue
		}
		move, err := board.ParseMove(args[i], u.position)
		if err != nil || !u.position.IsLegal(move) {
			fmt.Fprintf(os.Stderr, "illegal move in position command: %s\n", args[i])
			os.Exit(1) // illegal move in the game line is fatal
		}
		u.position.MakeMove(move)
	}
}

// goOptions holds parsed "go" arguments.
type goOptions struct {
	depth     int
	nodes     uint64
	moveTime  time.Duration
	wtime     time.Duration
	btime     time.Duration
	winc      time.Duration
	binc      time.Duration
	movesToGo int
	infinite  bool
}

func (u *UCI) parseGoOptions(args []string) goOptions {
	var opts goOptions
	readInt := func(i int) (int, bool) {
		if i+1 >= len(args) {
			return 0, false
		}
		n, err := strconv.Atoi(args[i+1])
		if err != nil {
			return 0, false // parse failure: fall back to default (zero value)
		}
		return n, true
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if n, ok := readInt(i); ok {
				opts.depth = n
				i++
			}
		case "nodes":
			if n, ok := readInt(i); ok {
				opts.nodes = uint64(n)
				i++
			}
		case "movetime":
			if n, ok := readInt(i); ok {
				opts.moveTime = time.Duration(n) * time.Millisecond
				i++
			}
		case "wtime":
			if n, ok := readInt(i); ok {
				opts.wtime = time.Duration(n) * time.Millisecond
				i++
			}
		case "btime":
			if n, ok := readInt(i); ok {
				opts.btime = time.Duration(n) * time.Millisecond
				i++
			}
		case "winc":
			if n, ok := readInt(i); ok {
				opts.winc = time.Duration(n) * time.Millisecond
				i++
			}
		case "binc":
			if n, ok := readInt(i); ok {
				opts.binc = time.Duration(n) * time.Millisecond
				i++
			}
		case "movestogo":
			if n, ok := readInt(i); ok {
				opts.movesToGo = n
				i++
			}
		case "infinite":
			opts.infinite = true
		}
	}
	return opts
}

func (u *UCI) handleGo(args []string) {
	opts := u.parseGoOptions(args)

	limits := engine.UCILimits{
		Depth:    opts.depth,
		Nodes:    opts.nodes,
		Infinite: opts.infinite,
	}
	limits.Time[board.White] = opts.wtime
	limits.Time[board.Black] = opts.btime
	limits.Inc[board.White] = opts.winc
	limits.Inc[board.Black] = opts.binc
	limits.MovesToGo = opts.movesToGo

	if opts.moveTime > 0 {
		limits.MoveTime = opts.moveTime - moveTimeOverhead
		if limits.MoveTime < 0 {
			limits.MoveTime = 0
		}
	}

	u.searching = true
	u.stopRequested.Store(false)
	u.searchDone = make(chan struct{})

	pos := u.position
	go func() {
		defer close(u.searchDone)
		bestMove := u.engine.Search(pos, limits, u.sendInfo)
		u.searching = false
		fmt.Printf("bestmove %s\n", bestMove.String())
	}()
}

// sendInfo prints one "info depth ..." line per completed iteration, or
// an "info depth ... currmove ..." progress line while a slow iteration
// is still running at the root.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	if info.CurrMove != board.NoMove {
		fmt.Printf("info depth %d currmove %s currmovenumber %d\n", info.Depth, info.CurrMove.String(), info.CurrMoveNumber)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "info depth %d", info.Depth)
	if info.SelDepth > 0 {
		fmt.Fprintf(&b, " seldepth %d", info.SelDepth)
	}

	if info.Score > engine.MateScore-engine.MaxPly {
		fmt.Fprintf(&b, " score mate %d", (engine.MateScore-info.Score+1)/2)
	} else if info.Score < -engine.MateScore+engine.MaxPly {
		fmt.Fprintf(&b, " score mate %d", -(engine.MateScore+info.Score+1)/2)
	} else {
		fmt.Fprintf(&b, " score cp %d", info.Score)
	}

	fmt.Fprintf(&b, " nodes %d time %d", info.Nodes, info.Time.Milliseconds())
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		fmt.Fprintf(&b, " nps %d", nps)
	}
	fmt.Fprintf(&b, " hashfull %d", u.engine.HashFull())

	if len(info.PV) > 0 {
		moves := make([]string, len(info.PV))
		for i, m := range info.PV {
			moves[i] = m.String()
		}
		fmt.Fprintf(&b, " pv %s", strings.Join(moves, " "))
	}

	fmt.Println(b.String())
}

func (u *UCI) handleStop() {
	if u.searching {
		u.stopRequested.Store(true)
		u.engine.Stop()
		<-u.searchDone
	}
}

func (u *UCI) handleSetOption(args []string) {
	var name, value string
	readingValue := false
	for _, arg := range args {
		switch arg {
		case "name":
			readingValue = false
		case "value":
			readingValue = true
		default:
			if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			} else {
				if name != "" {
					name += " "
				}
				name += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil {
			return
		}
		if mb < 1 {
			mb = 1
		}
		if mb > 2048 {
			mb = 2048
		}
		u.engine.Reconfigure(mb)
	case "clear hash":
		u.engine.Clear()
	}
}

func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			depth = n
		}
	}

	start := time.Now()
	nodes := u.engine.Perft(u.position, depth)
	elapsed := time.Since(start)

	fmt.Printf("Nodes: %d\n", nodes)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("NPS: %.0f\n", float64(nodes)/elapsed.Seconds())
	}
}
