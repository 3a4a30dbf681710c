package store

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keySeqCounter = "seq"

// BenchEntry records one completed search made by the offline
// `-bench -persist-bench` path, kept across process restarts and read
// back through History.
type BenchEntry struct {
	Seq        uint64 `json:"seq"`
	FEN        string `json:"fen"`
	Depth      int    `json:"depth"`
	Nodes      uint64 `json:"nodes"`
	ElapsedMs  int64  `json:"elapsed_ms"`
	Score      int    `json:"score"`
	RecordedAt int64  `json:"recorded_at"` // unix seconds
}

// Store wraps BadgerDB for persisting bench history.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the bench-history database in the
// platform data directory.
func Open() (*Store, error) {
	dir, err := DatabaseDir()
	if err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func benchKey(seq uint64) []byte {
	key := make([]byte, len("bench/")+8)
	copy(key, "bench/")
	binary.BigEndian.PutUint64(key[len("bench/"):], seq)
	return key
}

// RecordBench persists one completed search's statistics, implementing
// engine.BenchRecorder.
func (s *Store) RecordBench(fen string, depth int, nodes uint64, elapsed time.Duration, score int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		seq, err := s.nextSeq(txn)
		if err != nil {
			return err
		}

		entry := BenchEntry{
			Seq:        seq,
			FEN:        fen,
			Depth:      depth,
			Nodes:      nodes,
			ElapsedMs:  elapsed.Milliseconds(),
			Score:      score,
			RecordedAt: time.Now().Unix(),
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return txn.Set(benchKey(seq), data)
	})
}

func (s *Store) nextSeq(txn *badger.Txn) (uint64, error) {
	var seq uint64
	item, err := txn.Get([]byte(keySeqCounter))
	switch {
	case err == badger.ErrKeyNotFound:
		seq = 0
	case err != nil:
		return 0, err
	default:
		if err := item.Value(func(val []byte) error {
			seq = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return 0, err
		}
	}

	seq++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	if err := txn.Set([]byte(keySeqCounter), buf); err != nil {
		return 0, err
	}
	return seq, nil
}

// History returns up to limit most recent bench entries, newest first.
func (s *Store) History(limit int) ([]BenchEntry, error) {
	var entries []BenchEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte("bench/")
		seekFrom := append(append([]byte{}, prefix...), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)

		for it.Seek(seekFrom); it.ValidForPrefix(prefix) && len(entries) < limit; it.Next() {
			item := it.Item()
			var entry BenchEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})

	return entries, err
}
