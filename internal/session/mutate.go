package session

import "github.com/player-progress/internal/domain"

// Every mutator follows the same two-phase pattern: apply the change to
// the in-memory profile under the lock, honoring the non-regression
// invariants, then enqueue asynchronous persistence. The write target
// (uid, connectivity) is resolved before the lock is taken because the
// probe may block. Callers never block on the persistence step.

// AddCoins increases both the balance and the lifetime counter.
// Negative amounts are ignored.
func (s *Session) AddCoins(amount int) {
	if amount <= 0 {
		return
	}
	uid, online := s.writeTarget()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Coins += amount
	s.profile.TotalCollectedCoins += amount
	s.persist(domain.ProfilePatch{
		Coins:               iptr(s.profile.Coins),
		TotalCollectedCoins: iptr(s.profile.TotalCollectedCoins),
	}, uid, online)
}

// SpendCoins decreases the balance, leaving the lifetime counter alone.
// Returns false without mutating when the balance is insufficient.
func (s *Session) SpendCoins(amount int) bool {
	if amount < 0 {
		return false
	}
	uid, online := s.writeTarget()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile.Coins < amount {
		return false
	}
	s.profile.Coins -= amount
	s.persist(domain.ProfilePatch{Coins: iptr(s.profile.Coins)}, uid, online)
	return true
}

// BuySkin charges the price, unlocks the skin and selects it. An id
// outside the catalog rejects with ErrInvalidRequest; a skin that is
// already unlocked is rejected with ErrSkinAlreadyOwned and only
// selected; insufficient coins reject with ErrInsufficientCoins and no
// mutation at all.
func (s *Session) BuySkin(id, price int) error {
	if id < 0 || id >= s.skinCount {
		return domain.ErrInvalidRequest
	}
	uid, online := s.writeTarget()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile.HasSkin(id) {
		if s.profile.CurrentSkinID != id {
			s.profile.CurrentSkinID = id
			s.persist(domain.ProfilePatch{CurrentSkin: iptr(id)}, uid, online)
		}
		return domain.ErrSkinAlreadyOwned
	}
	if s.profile.Coins < price {
		return domain.ErrInsufficientCoins
	}

	s.profile.Coins -= price
	s.profile.UnlockedSkinIDs = append(s.profile.UnlockedSkinIDs, id)
	s.profile.CurrentSkinID = id
	s.persist(domain.ProfilePatch{
		Coins:         iptr(s.profile.Coins),
		CurrentSkin:   iptr(id),
		UnlockedSkins: append([]int(nil), s.profile.UnlockedSkinIDs...),
	}, uid, online)
	return nil
}

// SelectSkin switches the current skin to an already unlocked one.
func (s *Session) SelectSkin(id int) error {
	if id < 0 || id >= s.skinCount {
		return domain.ErrInvalidRequest
	}
	uid, online := s.writeTarget()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.profile.HasSkin(id) {
		return domain.ErrSkinLocked
	}
	if s.profile.CurrentSkinID == id {
		return nil
	}
	s.profile.CurrentSkinID = id
	s.persist(domain.ProfilePatch{CurrentSkin: iptr(id)}, uid, online)
	return nil
}

// SetUsername updates the display name. Availability checking and
// reservation are the facade's responsibility.
func (s *Session) SetUsername(name string) {
	uid, online := s.writeTarget()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Username = name
	s.persist(domain.ProfilePatch{Username: sptr(name)}, uid, online)
}

// AddTry bumps the attempt counter in memory only; SaveTries persists it
// once the run is over.
func (s *Session) AddTry(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	level := s.profile.Level(index)
	if level == nil {
		return domain.ErrLevelOutOfRange
	}
	level.Tries++
	return nil
}

// SaveTries persists the current attempt counter for a level.
func (s *Session) SaveTries(index int) error {
	uid, online := s.writeTarget()
	s.mu.Lock()
	defer s.mu.Unlock()
	level := s.profile.Level(index)
	if level == nil {
		return domain.ErrLevelOutOfRange
	}
	patch := domain.ProfilePatch{}
	patch.SetLevel(index, domain.LevelPatch{Tries: iptr(level.Tries)})
	s.persist(patch, uid, online)
	return nil
}

// CompleteLevel merges a finished run into the level record: stars keep
// their maximum, best time its minimum (zero meaning never completed),
// the trophy flag sticks, earned coins are credited and the next level
// unlocks. Returns the merged record.
func (s *Session) CompleteLevel(index, stars int, bestTime float64, coinsEarned int, trophyCollected bool) (domain.LevelRecord, error) {
	uid, online := s.writeTarget()
	s.mu.Lock()
	defer s.mu.Unlock()
	level := s.profile.Level(index)
	if level == nil {
		return domain.LevelRecord{}, domain.ErrLevelOutOfRange
	}

	if stars > level.Stars {
		level.Stars = stars
	}
	if bestTime > 0 && (level.BestTime == 0 || bestTime < level.BestTime) {
		level.BestTime = bestTime
	}
	if trophyCollected {
		level.TrophyCollected = true
	}
	if coinsEarned > 0 {
		s.profile.Coins += coinsEarned
		s.profile.TotalCollectedCoins += coinsEarned
	}

	patch := domain.ProfilePatch{
		Coins:               iptr(s.profile.Coins),
		TotalCollectedCoins: iptr(s.profile.TotalCollectedCoins),
	}
	patch.SetLevel(index, domain.LevelPatch{
		Stars:           iptr(level.Stars),
		BestTime:        fptr(level.BestTime),
		Tries:           iptr(level.Tries),
		TrophyCollected: bptr(level.TrophyCollected),
	})

	if next := s.profile.Level(index + 1); next != nil {
		next.Unlocked = true
		patch.SetLevel(index+1, domain.LevelPatch{Unlocked: bptr(true)})
	}

	s.persist(patch, uid, online)
	return *level, nil
}

// MarkSupporter sets the one-way supporter flag.
func (s *Session) MarkSupporter() {
	uid, online := s.writeTarget()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile.IsSupporter {
		return
	}
	s.profile.IsSupporter = true
	s.persist(domain.ProfilePatch{IsSupporter: bptr(true)}, uid, online)
}

// MarkGameEnded sets the one-way game-ended flag.
func (s *Session) MarkGameEnded() {
	uid, online := s.writeTarget()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile.GameEnded {
		return
	}
	s.profile.GameEnded = true
	s.persist(domain.ProfilePatch{GameEnded: bptr(true)}, uid, online)
}

// AddPlayedTime accumulates seconds onto the running total.
func (s *Session) AddPlayedTime(seconds float64) {
	if seconds <= 0 {
		return
	}
	uid, online := s.writeTarget()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.TotalPlayedTime += seconds
	s.persist(domain.ProfilePatch{TotalPlayedTime: fptr(s.profile.TotalPlayedTime)}, uid, online)
}

// SetRankingEntry refreshes the cached global record after a confirmed
// remote update.
func (s *Session) SetRankingEntry(index int, entry domain.RankingEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankings[index] = entry
}

func iptr(v int) *int         { return &v }
func sptr(v string) *string   { return &v }
func bptr(v bool) *bool       { return &v }
func fptr(v float64) *float64 { return &v }
