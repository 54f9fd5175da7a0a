package job

import (
	"log"
	"time"
)

// Sweeper periodically evicts stale jobs from a Store. Unlike a bare
// goroutine loop it has an explicit lifecycle: Start launches it, Stop blocks
// until the loop has exited.
type Sweeper struct {
	store    *Store
	interval time.Duration
	maxAge   time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(store *Store, interval, maxAge time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.run()
}

func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweepOnce()
		case <-s.stop:
			return
		}
	}
}

// sweepOnce recovers from panics so a single bad cycle never kills the loop.
func (s *Sweeper) sweepOnce() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("sweep cycle panicked: %v", r)
		}
	}()
	if n := s.store.Sweep(s.maxAge); n > 0 {
		log.Printf("swept %d expired job(s)", n)
	}
}
