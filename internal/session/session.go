// Package session holds the authoritative in-memory copy of the active
// player's profile. Every mutation lands in memory synchronously and is
// persisted asynchronously: to the remote document store while online,
// to the local save file otherwise. In-memory state stays authoritative
// for the rest of the session even when a persistence step fails.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/player-progress/internal/connectivity"
	"github.com/player-progress/internal/domain"
	"github.com/player-progress/internal/worker"
)

// ProfileStore reads and merge-patches the remote profile document.
type ProfileStore interface {
	Load(ctx context.Context, uid string) (*domain.PlayerProfile, error)
	Apply(ctx context.Context, uid string, patch domain.ProfilePatch) error
}

// UsernameIndex is the global username reservation index.
type UsernameIndex interface {
	Available(ctx context.Context, name string) (bool, error)
	Reserve(ctx context.Context, name, uid string) error
}

// RankingStore reads and conditionally updates the shared rankings document.
type RankingStore interface {
	All(ctx context.Context) (map[int]domain.RankingEntry, error)
	UpdateIfBetter(ctx context.Context, levelIndex int, entry domain.RankingEntry) (bool, error)
}

// LocalStore is the single-file fallback store.
type LocalStore interface {
	Load() *domain.PlayerProfile
	Save(profile *domain.PlayerProfile) error
}

// IdentityProvider supplies the stable per-user identifier.
type IdentityProvider interface {
	UserID() string
	LogOut()
}

// Writer accepts write-behind persistence operations.
type Writer interface {
	Enqueue(op worker.Op) bool
}

// Session is the process-lifetime cache of one player's profile.
// Exactly one instance lives per process; it is constructed at startup
// and wired into consumers by reference.
type Session struct {
	remote     ProfileStore
	rankstore  RankingStore
	local      LocalStore
	writer     Writer
	probe      connectivity.Probe
	identity   IdentityProvider
	levelCount int
	skinCount  int
	// loadRankings is false on platforms that use a native leaderboard
	// service; the rankings cache then stays empty.
	loadRankings bool
	logger       *slog.Logger

	mu          sync.RWMutex
	profile     *domain.PlayerProfile
	rankings    map[int]domain.RankingEntry
	ready       bool
	initialized bool
}

// Options carries the collaborators a Session is wired with. Remote and
// Rankings may be nil, which forces the local-only path.
type Options struct {
	Remote       ProfileStore
	Rankings     RankingStore
	Local        LocalStore
	Writer       Writer
	Probe        connectivity.Probe
	Identity     IdentityProvider
	LevelCount   int
	SkinCount    int
	LoadRankings bool
	Logger       *slog.Logger
}

// New creates a session. Reads before Initialize completes observe a
// default profile.
func New(opts Options) *Session {
	if opts.Probe == nil {
		opts.Probe = connectivity.Always(false)
	}
	if opts.LevelCount <= 0 {
		opts.LevelCount = domain.DefaultLevelCount
	}
	if opts.SkinCount <= 0 {
		opts.SkinCount = domain.DefaultSkinCount
	}
	return &Session{
		remote:       opts.Remote,
		rankstore:    opts.Rankings,
		local:        opts.Local,
		writer:       opts.Writer,
		probe:        opts.Probe,
		identity:     opts.Identity,
		levelCount:   opts.LevelCount,
		skinCount:    opts.SkinCount,
		loadRankings: opts.LoadRankings,
		logger:       opts.Logger,
		profile:      domain.NewProfile(opts.LevelCount),
		rankings:     make(map[int]domain.RankingEntry),
	}
}

// Initialize performs the one-time initial load: remote profile plus
// rankings while online, local save otherwise or on any remote failure.
// onReady fires exactly once after the load completes. Calling
// Initialize twice is a precondition violation.
func (s *Session) Initialize(ctx context.Context, onReady func()) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return errors.New("session already initialized")
	}
	s.initialized = true
	s.mu.Unlock()

	if !s.Online() {
		s.loadLocal()
		if onReady != nil {
			onReady()
		}
		return nil
	}

	uid := s.identity.UserID()
	profile, err := s.remote.Load(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			s.logger.Info("no remote profile yet, using local save", "uid", uid)
		} else {
			s.logger.Warn("remote profile load failed, using local save", "error", err)
		}
		s.loadLocal()
		if onReady != nil {
			onReady()
		}
		return nil
	}

	rankings := make(map[int]domain.RankingEntry)
	if s.loadRankings && s.rankstore != nil {
		rankings, err = s.rankstore.All(ctx)
		if err != nil {
			s.logger.Warn("rankings load failed, starting with empty cache", "error", err)
			rankings = make(map[int]domain.RankingEntry)
		}
	}

	s.mu.Lock()
	s.profile = profile
	s.rankings = rankings
	s.ready = true
	s.mu.Unlock()

	s.logger.Info("session ready", "source", "remote", "uid", uid)
	if onReady != nil {
		onReady()
	}
	return nil
}

func (s *Session) loadLocal() {
	profile := s.local.Load()
	s.mu.Lock()
	s.profile = profile
	s.ready = true
	s.mu.Unlock()
	s.logger.Info("session ready", "source", "local")
}

// Ready reports whether the initial load has completed.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Online reports whether remote persistence is currently possible. The
// connectivity probe is re-evaluated on every call.
func (s *Session) Online() bool {
	if s.remote == nil || s.identity == nil {
		return false
	}
	return s.identity.UserID() != "" && s.probe()
}

// LogOut clears the authenticated identity. The in-memory profile stays
// live; subsequent writes take the local path.
func (s *Session) LogOut() {
	if s.identity != nil {
		s.identity.LogOut()
	}
}

// Flush writes the current in-memory profile to the local store. Used
// for the best-effort save at process exit.
func (s *Session) Flush() error {
	s.mu.RLock()
	snapshot := s.profile.Clone()
	s.mu.RUnlock()
	return s.local.Save(snapshot)
}

// writeTarget evaluates the persistence route for the next mutation.
// Must be called before taking s.mu: the dial probe inside Online can
// stall for its full timeout on a dead network and would otherwise hold
// up every reader.
func (s *Session) writeTarget() (uid string, online bool) {
	if s.identity != nil {
		uid = s.identity.UserID()
	}
	return uid, s.Online()
}

// persist enqueues the write-behind step for a mutation that already
// landed in memory. The caller must hold s.mu and must have resolved
// the write target via writeTarget beforehand. Failures never
// propagate: if the queue rejects the op the snapshot is saved locally
// right away.
func (s *Session) persist(patch domain.ProfilePatch, uid string, online bool) {
	snapshot := s.profile.Clone()
	op := worker.Op{
		UID:      uid,
		Patch:    patch,
		Snapshot: snapshot,
		Remote:   online,
	}
	if s.writer == nil || !s.writer.Enqueue(op) {
		if err := s.local.Save(snapshot); err != nil {
			s.logger.Warn("fallback local save failed", "error", err)
		}
	}
}
