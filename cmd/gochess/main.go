// Command gochess runs the engine's UCI-like text protocol on stdin/stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/store"
	"github.com/hailam/chessplay/internal/uci"
)

var (
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	benchDepth = flag.Int("bench", 0, "run a fixed-depth bench from the start position and exit (0 = run the UCI loop instead)")
	withStore  = flag.Bool("persist-bench", false, "persist -bench results to the on-disk bench history store")
)

func main() {
	flag.Parse()

	if profilePath := *cpuprofile; profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	eng := engine.NewEngine(*hashMB)

	if *benchDepth > 0 {
		runBench(eng, *benchDepth)
		return
	}

	protocol := uci.New(eng)
	protocol.Run()
}

// runBench is an offline (non-UCI) command: it searches the start
// position to a fixed depth and prints the result, optionally recording
// it to the persistent bench-history store. The interactive UCI
// protocol itself never touches disk; this path is the sole place that
// does, and only on explicit request.
func runBench(eng *engine.Engine, depth int) {
	if *withStore {
		s, err := store.Open()
		if err != nil {
			log.Fatalf("could not open bench store: %v", err)
		}
		defer s.Close()
		eng.SetRecorder(s)
	}

	pos := board.NewPosition()
	start := time.Now()
	move := eng.Search(pos, engine.UCILimits{Depth: depth}, nil)
	elapsed := time.Since(start)

	fmt.Printf("bestmove %s\n", move.String())
	fmt.Printf("nodes %d\n", eng.Nodes())
	fmt.Printf("time %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("nps %.0f\n", float64(eng.Nodes())/elapsed.Seconds())
	}
}
