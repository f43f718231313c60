// Package progress is the domain-level API gameplay collaborators use:
// finishing a level, buying a skin, claiming a username. It expresses
// each operation as session-cache mutations plus the cascading side
// effects (global record reporting, telemetry, live broadcast).
package progress

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/player-progress/internal/domain"
	"github.com/player-progress/internal/session"
)

// RankingSink receives record candidates for one level. Exactly one sink
// is active per build target: the shared rankings document, or the
// platform's native leaderboard service.
type RankingSink interface {
	Report(ctx context.Context, levelIndex int, entry domain.RankingEntry) (bool, error)
}

// EventPublisher emits telemetry events, fire-and-forget.
type EventPublisher interface {
	Publish(event domain.ProgressEvent)
}

// RecordBroadcaster pushes confirmed global records to connected clients.
type RecordBroadcaster interface {
	BroadcastRecord(levelIndex int, entry domain.RankingEntry)
}

// Service is the progress facade.
type Service struct {
	session     *session.Session
	names       session.UsernameIndex
	sink        RankingSink
	events      EventPublisher
	broadcaster RecordBroadcaster
	userID      func() string
	logger      *slog.Logger
}

// NewService creates the facade. names, sink, events and broadcaster may
// each be nil; the corresponding side effect is then skipped.
func NewService(
	sess *session.Session,
	names session.UsernameIndex,
	sink RankingSink,
	events EventPublisher,
	broadcaster RecordBroadcaster,
	userID func() string,
	logger *slog.Logger,
) *Service {
	if userID == nil {
		userID = func() string { return "" }
	}
	return &Service{
		session:     sess,
		names:       names,
		sink:        sink,
		events:      events,
		broadcaster: broadcaster,
		userID:      userID,
		logger:      logger,
	}
}

// Session exposes the underlying cache for read access.
func (s *Service) Session() *session.Session {
	return s.session
}

// CompleteLevel records a finished run: merges the result into the level
// record, credits earned coins, unlocks the next level and, when the
// time is a candidate record, reports it to the active ranking sink.
func (s *Service) CompleteLevel(ctx context.Context, index, stars int, bestTime float64, coinsEarned int, trophyCollected bool) error {
	merged, err := s.session.CompleteLevel(index, stars, bestTime, coinsEarned, trophyCollected)
	if err != nil {
		return err
	}

	s.publish(domain.ProgressEvent{
		UserID:     s.userID(),
		EventType:  domain.EventLevelCompleted,
		LevelIndex: index,
		Stars:      stars,
		BestTime:   bestTime,
		Coins:      coinsEarned,
		Timestamp:  time.Now(),
	})

	if s.sink != nil && merged.BestTime > 0 && s.session.Username() != "" {
		s.reportRecord(ctx, index, merged.BestTime)
	}
	return nil
}

// reportRecord submits a candidate best time. Sink failures are absorbed
// here; a missed record report is not an error the player ever sees.
func (s *Service) reportRecord(ctx context.Context, index int, bestTime float64) {
	entry := domain.RankingEntry{
		PlayerName: s.session.Username(),
		BestTime:   bestTime,
	}
	written, err := s.sink.Report(ctx, index, entry)
	if err != nil {
		s.logger.Warn("failed to report global record", "level", index, "error", err)
		return
	}
	if !written {
		return
	}

	s.logger.Info("new global record", "level", index, "best_time", bestTime)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRecord(index, entry)
	}
	s.publish(domain.ProgressEvent{
		UserID:     s.userID(),
		EventType:  domain.EventGlobalRecord,
		LevelIndex: index,
		BestTime:   bestTime,
		Timestamp:  time.Now(),
	})
}

// RecordAttempt bumps the attempt counter when a run starts.
func (s *Service) RecordAttempt(index int) error {
	return s.session.AddTry(index)
}

// SaveTries persists the attempt counter once a run ends.
func (s *Service) SaveTries(index int) error {
	return s.session.SaveTries(index)
}

// BuySkin purchases and selects a skin.
func (s *Service) BuySkin(id, price int) error {
	err := s.session.BuySkin(id, price)
	if err != nil {
		return err
	}
	s.publish(domain.ProgressEvent{
		UserID:    s.userID(),
		EventType: domain.EventSkinPurchased,
		SkinID:    id,
		Coins:     price,
		Timestamp: time.Now(),
	})
	return nil
}

// SelectSkin switches to an already unlocked skin.
func (s *Service) SelectSkin(id int) error {
	return s.session.SelectSkin(id)
}

// TrySetUsername claims a display name. While online the name must pass
// the availability check and the reservation insert; a name someone else
// holds is rejected with ErrNameTaken and no mutation. Offline the name
// is applied locally without a reservation.
func (s *Service) TrySetUsername(ctx context.Context, name string) error {
	if name == "" {
		return domain.ErrInvalidRequest
	}

	if s.session.Online() && s.names != nil {
		uid := s.userID()
		if uid == "" {
			return domain.ErrNotSignedIn
		}
		available, err := s.names.Available(ctx, name)
		if err != nil {
			s.logger.Warn("username availability check failed", "error", err)
			return domain.ErrNameTaken
		}
		if !available {
			return domain.ErrNameTaken
		}
		if err := s.names.Reserve(ctx, name, uid); err != nil {
			if errors.Is(err, domain.ErrNameTaken) {
				return domain.ErrNameTaken
			}
			s.logger.Warn("username reservation failed", "error", err)
			return domain.ErrNameTaken
		}
	}

	s.session.SetUsername(name)
	return nil
}

// AddCoins credits coins outside of level completion (rewards, ads).
func (s *Service) AddCoins(amount int) {
	s.session.AddCoins(amount)
}

// SpendCoins debits the balance; returns false when insufficient.
func (s *Service) SpendCoins(amount int) bool {
	return s.session.SpendCoins(amount)
}

// MarkSupporter sets the supporter flag.
func (s *Service) MarkSupporter() {
	s.session.MarkSupporter()
}

// MarkGameEnded records completion of the final level.
func (s *Service) MarkGameEnded() {
	s.session.MarkGameEnded()
	s.publish(domain.ProgressEvent{
		UserID:    s.userID(),
		EventType: domain.EventGameEnded,
		Timestamp: time.Now(),
	})
}

// AddPlayedTime accumulates play time in seconds.
func (s *Service) AddPlayedTime(seconds float64) {
	s.session.AddPlayedTime(seconds)
}

// LogOut clears the authenticated identity.
func (s *Service) LogOut() {
	s.session.LogOut()
}

func (s *Service) publish(event domain.ProgressEvent) {
	if s.events != nil {
		s.events.Publish(event)
	}
}
