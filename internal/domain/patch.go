package domain

import "strconv"

// ProfilePatch is a typed partial update of a player profile document.
// Only non-nil fields are written; everything else on the stored document
// is preserved, so concurrent writes to disjoint fields cannot clobber
// each other.
type ProfilePatch struct {
	Username            *string               `json:"username,omitempty"`
	Coins               *int                  `json:"coins,omitempty"`
	TotalCollectedCoins *int                  `json:"totalCollectedCoins,omitempty"`
	IsSupporter         *bool                 `json:"isSupporter,omitempty"`
	CurrentSkin         *int                  `json:"currentSkin,omitempty"`
	UnlockedSkins       []int                 `json:"unlockedSkins,omitempty"`
	Levels              map[string]LevelPatch `json:"levels,omitempty"`
	GameEnded           *bool                 `json:"gameEnded,omitempty"`
	TotalPlayedTime     *float64              `json:"totalPlayedTime,omitempty"`
}

// LevelPatch is a partial update of a single level entry.
type LevelPatch struct {
	Unlocked        *bool    `json:"unlocked,omitempty"`
	Stars           *int     `json:"stars,omitempty"`
	BestTime        *float64 `json:"bestTime,omitempty"`
	Tries           *int     `json:"tries,omitempty"`
	TrophyCollected *bool    `json:"trophyCollected,omitempty"`
}

// SetLevel adds a level patch keyed by the level's index.
func (p *ProfilePatch) SetLevel(index int, lp LevelPatch) {
	if p.Levels == nil {
		p.Levels = make(map[string]LevelPatch, 2)
	}
	p.Levels[strconv.Itoa(index)] = lp
}

// IsEmpty reports whether the patch carries no fields at all.
func (p ProfilePatch) IsEmpty() bool {
	return p.Username == nil && p.Coins == nil && p.TotalCollectedCoins == nil &&
		p.IsSupporter == nil && p.CurrentSkin == nil && p.UnlockedSkins == nil &&
		len(p.Levels) == 0 && p.GameEnded == nil && p.TotalPlayedTime == nil
}
