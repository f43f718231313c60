// Package worker runs the write-behind persistence pipeline. Ops are
// applied strictly in enqueue order by a single goroutine, so two quick
// writes to the same field can never complete out of order.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/player-progress/internal/config"
	"github.com/player-progress/internal/domain"
)

// Op is one queued persistence step: a merge-patch for the remote
// document plus a full snapshot for the local fallback path.
type Op struct {
	UID      string
	Patch    domain.ProfilePatch
	Snapshot *domain.PlayerProfile
	Remote   bool
}

// RemoteStore applies merge-patches to the remote profile document.
type RemoteStore interface {
	Apply(ctx context.Context, uid string, patch domain.ProfilePatch) error
}

// SnapshotStore persists a full profile snapshot locally.
type SnapshotStore interface {
	Save(profile *domain.PlayerProfile) error
}

// Flusher drains queued ops in order and keeps a periodic local snapshot
// as crash insurance while remote writes are in flight.
type Flusher struct {
	remote RemoteStore
	local  SnapshotStore
	config *config.FlushConfig
	logger *slog.Logger

	ops    chan Op
	stopCh chan struct{}
	doneCh chan struct{}

	mu      sync.Mutex
	running bool
	latest  *domain.PlayerProfile
}

// NewFlusher creates a flusher. remote may be nil, forcing every op onto
// the local path.
func NewFlusher(remote RemoteStore, local SnapshotStore, cfg *config.FlushConfig, logger *slog.Logger) *Flusher {
	return &Flusher{
		remote: remote,
		local:  local,
		config: cfg,
		logger: logger,
		ops:    make(chan Op, cfg.QueueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background flush loop.
func (f *Flusher) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return nil
	}
	f.running = true
	f.mu.Unlock()

	f.logger.Info("flush worker started", "queue_size", f.config.QueueSize)

	go f.run(ctx)
	return nil
}

// Stop drains the remaining ops and stops the loop.
func (f *Flusher) Stop() error {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	close(f.stopCh)
	<-f.doneCh

	f.mu.Lock()
	f.running = false
	f.mu.Unlock()

	f.logger.Info("flush worker stopped")
	return nil
}

// Enqueue hands an op to the pipeline. Returns false when the queue is
// full; the caller then persists locally itself so nothing is lost.
func (f *Flusher) Enqueue(op Op) bool {
	select {
	case f.ops <- op:
		return true
	default:
		return false
	}
}

// run is the main worker loop.
func (f *Flusher) run(ctx context.Context) {
	defer close(f.doneCh)

	ticker := time.NewTicker(f.config.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.drain()
			return
		case <-f.stopCh:
			f.drain()
			return
		case op := <-f.ops:
			f.apply(op)
		case <-ticker.C:
			f.snapshot()
		}
	}
}

// drain applies whatever is still queued, then writes a final snapshot.
func (f *Flusher) drain() {
	for {
		select {
		case op := <-f.ops:
			f.apply(op)
		default:
			f.snapshot()
			return
		}
	}
}

func (f *Flusher) apply(op Op) {
	f.mu.Lock()
	f.latest = op.Snapshot
	f.mu.Unlock()

	if op.Remote && f.remote != nil && op.UID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), f.config.WriteTimeout)
		err := f.remote.Apply(ctx, op.UID, op.Patch)
		cancel()
		if err == nil {
			return
		}
		// Not retried here: memory stays authoritative and the local
		// snapshot below keeps the state recoverable.
		f.logger.Warn("remote write failed, saving snapshot locally", "uid", op.UID, "error", err)
	}

	if err := f.local.Save(op.Snapshot); err != nil {
		f.logger.Warn("local save failed", "error", err)
	}
}

// snapshot writes the most recent profile to the local store.
func (f *Flusher) snapshot() {
	f.mu.Lock()
	latest := f.latest
	f.mu.Unlock()
	if latest == nil {
		return
	}
	if err := f.local.Save(latest); err != nil {
		f.logger.Warn("periodic local snapshot failed", "error", err)
	}
}

// IsRunning returns whether the worker is currently running.
func (f *Flusher) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}
