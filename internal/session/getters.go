package session

import "github.com/player-progress/internal/domain"

// Snapshot returns a deep copy of the current in-memory profile.
func (s *Session) Snapshot() *domain.PlayerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// Username returns the player's display name.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Username
}

// Coins returns the spendable coin balance.
func (s *Session) Coins() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Coins
}

// TotalCollectedCoins returns the lifetime coin counter.
func (s *Session) TotalCollectedCoins() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.TotalCollectedCoins
}

// IsSupporter reports whether the supporter flag is set.
func (s *Session) IsSupporter() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.IsSupporter
}

// GameEnded reports whether the final level has been completed.
func (s *Session) GameEnded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.GameEnded
}

// TotalPlayedTime returns the accumulated play time in seconds.
func (s *Session) TotalPlayedTime() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.TotalPlayedTime
}

// SelectedSkinID returns the currently selected skin.
func (s *Session) SelectedSkinID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.CurrentSkinID
}

// UnlockedSkins returns a copy of the unlocked skin ids.
func (s *Session) UnlockedSkins() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int(nil), s.profile.UnlockedSkinIDs...)
}

// Levels returns a copy of every level record.
func (s *Session) Levels() []domain.LevelRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.LevelRecord(nil), s.profile.Levels...)
}

// Level returns the record at index.
func (s *Session) Level(index int) (domain.LevelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	level := s.profile.Level(index)
	if level == nil {
		return domain.LevelRecord{}, domain.ErrLevelOutOfRange
	}
	return *level, nil
}

// TotalStars sums the stars earned across all levels.
func (s *Session) TotalStars() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.TotalStars()
}

// Tries returns the attempt counter for a level.
func (s *Session) Tries(index int) (int, error) {
	level, err := s.Level(index)
	if err != nil {
		return 0, err
	}
	return level.Tries, nil
}

// TrophyCollected reports whether the level's trophy has been picked up.
func (s *Session) TrophyCollected(index int) (bool, error) {
	level, err := s.Level(index)
	if err != nil {
		return false, err
	}
	return level.TrophyCollected, nil
}

// Rankings returns a copy of the cached global rankings snapshot.
func (s *Session) Rankings() map[int]domain.RankingEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]domain.RankingEntry, len(s.rankings))
	for k, v := range s.rankings {
		out[k] = v
	}
	return out
}

// Ranking returns the cached global record for one level.
func (s *Session) Ranking(index int) (domain.RankingEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.rankings[index]
	return entry, ok
}
