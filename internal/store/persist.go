package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// persister writes snapshots to storage from a single goroutine. Only the
// newest unwritten snapshot is kept, so an older snapshot can never land
// after a newer one.
type persister struct {
	storage Storage
	key     string
	timeout time.Duration
	log     *zap.SugaredLogger

	mu      sync.Mutex
	pending *string
	busy    bool
	idle    chan struct{} // closed while nothing is queued or being written

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newPersister(storage Storage, key string, timeout time.Duration, log *zap.SugaredLogger) *persister {
	idle := make(chan struct{})
	close(idle)
	p := &persister{
		storage: storage,
		key:     key,
		timeout: timeout,
		log:     log,
		idle:    idle,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// enqueue replaces any unwritten snapshot with data
func (p *persister) enqueue(data string) {
	p.mu.Lock()
	p.pending = &data
	if !p.busy {
		p.busy = true
		p.idle = make(chan struct{})
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// flush waits until every enqueued snapshot has been written or dropped
func (p *persister) flush(ctx context.Context) error {
	p.mu.Lock()
	idle := p.idle
	p.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains the queue and stops the writer goroutine
func (p *persister) close(ctx context.Context) error {
	err := p.flush(ctx)
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
	return err
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.drain()
		case <-p.stop:
			p.drain()
			return
		}
	}
}

func (p *persister) drain() {
	for {
		p.mu.Lock()
		data := p.pending
		p.pending = nil
		if data == nil {
			if p.busy {
				p.busy = false
				close(p.idle)
			}
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		p.write(*data)
	}
}

func (p *persister) write(data string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.storage.Set(ctx, p.key, data); err != nil {
		p.log.Errorw("failed to save tasks", "error", &PersistenceError{Op: "set", Key: p.key, Err: err})
		return
	}
	p.log.Debugw("tasks saved", "bytes", len(data))
}
