package appointment

import (
	"context"
	"log"
	"sync"
	"time"
)

const finalFlushTimeout = 5 * time.Second

// persister saves the latest offered snapshot in the background. Only the
// newest blob is kept, so a burst of mutations costs a single write.
type persister struct {
	snap   Snapshotter
	logger *log.Logger

	mu     sync.Mutex
	latest []byte
	dirty  bool

	// saveMu keeps Save calls from interleaving.
	saveMu sync.Mutex
	kick   chan struct{}
}

func newPersister(snap Snapshotter, logger *log.Logger) *persister {
	return &persister{
		snap:   snap,
		logger: logger,
		kick:   make(chan struct{}, 1),
	}
}

func (p *persister) offer(data []byte) {
	p.mu.Lock()
	p.latest = data
	p.dirty = true
	p.mu.Unlock()

	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *persister) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
			if err := p.flush(flushCtx); err != nil {
				p.logger.Printf("snapshot final flush failed: %v", err)
			}
			cancel()
			return
		case <-p.kick:
			if err := p.flush(ctx); err != nil {
				p.logger.Printf("snapshot save failed: %v", err)
			}
		}
	}
}

func (p *persister) flush(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	p.mu.Lock()
	if !p.dirty {
		p.mu.Unlock()
		return nil
	}
	data := p.latest
	p.dirty = false
	p.mu.Unlock()

	if err := p.snap.Save(ctx, data); err != nil {
		p.mu.Lock()
		// A newer offer supersedes the failed blob.
		if !p.dirty {
			p.latest = data
			p.dirty = true
		}
		p.mu.Unlock()
		return err
	}
	return nil
}
