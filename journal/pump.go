package journal

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pump decouples the engine from a journal. Publish never blocks: entries
// queue in memory without bound and a single goroutine writes them, so the
// journal may fall arbitrarily far behind. Write errors are logged and the
// entry dropped.
type Pump struct {
	j   Journal
	log zerolog.Logger
	now func() time.Time

	mu      sync.Mutex
	queue   []Entry
	closed  bool
	written int
	failed  int

	wake chan struct{}
	done chan struct{}
}

func NewPump(j Journal, log zerolog.Logger) *Pump {
	p := &Pump{
		j:    j,
		log:  log.With().Str("component", "journal").Logger(),
		now:  time.Now,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish queues e. Entries published after Close are dropped.
func (p *Pump) Publish(e Entry) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = p.now()
	}
	p.queue = append(p.queue, e)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued entries not yet written.
func (p *Pump) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Stats returns how many entries were written and how many failed.
func (p *Pump) Stats() (written, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written, p.failed
}

func (p *Pump) run() {
	defer close(p.done)
	for {
		p.mu.Lock()
		batch := p.queue
		p.queue = nil
		closed := p.closed
		p.mu.Unlock()

		for _, e := range batch {
			err := p.j.Record(e)
			p.mu.Lock()
			if err != nil {
				p.failed++
			} else {
				p.written++
			}
			p.mu.Unlock()
			if err != nil {
				p.log.Error().Err(err).Uint64("seq", e.Seq).Msg("journal write failed")
			}
		}

		if closed && len(batch) == 0 {
			return
		}
		if len(batch) == 0 {
			<-p.wake
		}
	}
}

// Close drains the queue, stops the writer and closes the journal.
func (p *Pump) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	<-p.done
	return p.j.Close()
}
