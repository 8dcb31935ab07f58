package storage

import (
	"context"
	"log"
	"sync"
	"time"

	"chessroom/internal/game"
	"chessroom/internal/logging"
)

var _ game.Archive = (*Archiver)(nil)

type job struct {
	name string
	run  func(ctx context.Context, s *Store) error
}

// Archiver implements game.Archive on top of a Store. The hub hands records
// over without blocking; a single writer goroutine applies them in order.
type Archiver struct {
	store   *Store
	jobs    chan job
	timeout time.Duration
	done    chan struct{}

	mu     sync.Mutex // guards closed and sends on jobs
	closed bool
}

// NewArchiver starts the writer goroutine. buffer bounds the records waiting
// for the database; beyond it records are dropped.
func NewArchiver(store *Store, buffer int) *Archiver {
	if buffer <= 0 {
		buffer = 256
	}
	a := &Archiver{
		store:   store,
		jobs:    make(chan job, buffer),
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Archiver) run() {
	defer close(a.done)
	for j := range a.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := j.run(ctx, a.store); err != nil {
			log.Printf("archive %s: %v", j.name, err)
		}
		cancel()
	}
}

func (a *Archiver) enqueue(name string, fn func(ctx context.Context, s *Store) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		logging.Debugf("archive closed, dropped %s", name)
		return
	}
	select {
	case a.jobs <- job{name: name, run: fn}:
	default:
		logging.Warnf("archive queue full, dropped %s", name)
	}
}

func (a *Archiver) MatchStarted(m game.MatchStart) {
	a.enqueue("match start", func(ctx context.Context, s *Store) error {
		return s.CreateMatch(ctx, m)
	})
}

func (a *Archiver) MoveRelayed(mv game.MoveRecord) {
	a.enqueue("move", func(ctx context.Context, s *Store) error {
		return s.RecordMove(ctx, mv)
	})
}

func (a *Archiver) ChatPosted(c game.ChatRecord) {
	a.enqueue("chat", func(ctx context.Context, s *Store) error {
		return s.RecordChat(ctx, c)
	})
}

func (a *Archiver) MatchEnded(e game.MatchEnd) {
	a.enqueue("match end", func(ctx context.Context, s *Store) error {
		return s.EndMatch(ctx, e)
	})
}

// Close stops accepting records and waits for queued ones to be written or
// for ctx to expire.
func (a *Archiver) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.jobs)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
