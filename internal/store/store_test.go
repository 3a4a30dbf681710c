package store

import (
	"runtime"
	"testing"
	"time"
)

// withTempDataDir points the platform-specific data dir lookup at a
// fresh temp directory for the duration of the test.
func withTempDataDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()

	var envVar string
	switch runtime.GOOS {
	case "darwin":
		t.Setenv("HOME", dir)
		return
	case "windows":
		envVar = "APPDATA"
	default:
		envVar = "XDG_DATA_HOME"
	}
	t.Setenv(envVar, dir)
}

func TestOpenCreatesDatabase(t *testing.T) {
	withTempDataDir(t)

	s, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
}

func TestRecordAndHistoryRoundTrip(t *testing.T) {
	withTempDataDir(t)

	s, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if err := s.RecordBench("startpos", 6, 12345, 250*time.Millisecond, 35); err != nil {
		t.Fatalf("RecordBench: %v", err)
	}
	if err := s.RecordBench("startpos", 7, 54321, 500*time.Millisecond, 40); err != nil {
		t.Fatalf("RecordBench: %v", err)
	}

	history, err := s.History(10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d entries, want 2", len(history))
	}

	// Newest first.
	if history[0].Depth != 7 || history[1].Depth != 6 {
		t.Errorf("expected newest-first ordering, got depths %d, %d", history[0].Depth, history[1].Depth)
	}
	if history[0].Nodes != 54321 {
		t.Errorf("got nodes %d, want 54321", history[0].Nodes)
	}
}

func TestHistoryRespectsLimit(t *testing.T) {
	withTempDataDir(t)

	s, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	for i := 0; i < 5; i++ {
		if err := s.RecordBench("startpos", i+1, uint64(i), time.Millisecond, 0); err != nil {
			t.Fatalf("RecordBench: %v", err)
		}
	}

	history, err := s.History(2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("got %d entries, want 2", len(history))
	}
}
