package domain

// DefaultLevelCount and DefaultSkinCount are the sizes of the fixed
// level and skin catalogs.
const (
	DefaultLevelCount = 45
	DefaultSkinCount  = 12
)

// PlayerProfile is the full persistent state of one player.
type PlayerProfile struct {
	Username            string        `json:"username"`
	Coins               int           `json:"coins"`
	TotalCollectedCoins int           `json:"totalCollectedCoins"`
	IsSupporter         bool          `json:"isSupporter"`
	CurrentSkinID       int           `json:"currentSkin"`
	UnlockedSkinIDs     []int         `json:"unlockedSkins"`
	Levels              []LevelRecord `json:"levels"`
	GameEnded           bool          `json:"gameEnded"`
	TotalPlayedTime     float64       `json:"totalPlayedTime"`
}

// LevelRecord holds per-level progress. BestTime zero means never completed.
type LevelRecord struct {
	Index           int     `json:"index"`
	Unlocked        bool    `json:"unlocked"`
	Stars           int     `json:"stars"`
	BestTime        float64 `json:"bestTime"`
	Tries           int     `json:"tries"`
	TrophyCollected bool    `json:"trophyCollected"`
}

// NewProfile creates a default profile: no coins, only skin 0 unlocked,
// levelCount levels all locked except the first.
func NewProfile(levelCount int) *PlayerProfile {
	if levelCount <= 0 {
		levelCount = DefaultLevelCount
	}
	p := &PlayerProfile{
		UnlockedSkinIDs: []int{0},
		Levels:          make([]LevelRecord, levelCount),
	}
	for i := range p.Levels {
		p.Levels[i].Index = i
	}
	p.Levels[0].Unlocked = true
	return p
}

// Level returns the record at index, or nil if index is out of range.
func (p *PlayerProfile) Level(index int) *LevelRecord {
	if index < 0 || index >= len(p.Levels) {
		return nil
	}
	return &p.Levels[index]
}

// HasSkin reports whether the skin is unlocked. Skin 0 is always unlocked.
func (p *PlayerProfile) HasSkin(id int) bool {
	return id == 0 || containsInt(p.UnlockedSkinIDs, id)
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// TotalStars sums the stars earned across all levels.
func (p *PlayerProfile) TotalStars() int {
	total := 0
	for _, l := range p.Levels {
		total += l.Stars
	}
	return total
}

// Clone returns a deep copy of the profile.
func (p *PlayerProfile) Clone() *PlayerProfile {
	c := *p
	c.UnlockedSkinIDs = append([]int(nil), p.UnlockedSkinIDs...)
	c.Levels = append([]LevelRecord(nil), p.Levels...)
	return &c
}

// Normalize repairs a loaded profile so the session invariants hold:
// the catalog has exactly levelCount entries, level 0 and skin 0 are
// unlocked, and the selected skin is a member of the unlocked set.
func (p *PlayerProfile) Normalize(levelCount int) {
	if levelCount <= 0 {
		levelCount = DefaultLevelCount
	}
	for len(p.Levels) < levelCount {
		p.Levels = append(p.Levels, LevelRecord{Index: len(p.Levels)})
	}
	p.Levels = p.Levels[:levelCount]
	for i := range p.Levels {
		p.Levels[i].Index = i
	}
	p.Levels[0].Unlocked = true

	if !containsInt(p.UnlockedSkinIDs, 0) {
		p.UnlockedSkinIDs = append([]int{0}, p.UnlockedSkinIDs...)
	}
	if !p.HasSkin(p.CurrentSkinID) {
		p.CurrentSkinID = 0
	}
}
