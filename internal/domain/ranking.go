package domain

import "time"

// RankingEntry is the best recorded time for one level across all players.
type RankingEntry struct {
	PlayerName string  `json:"playerName"`
	BestTime   float64 `json:"bestTime"`
}

// Better reports whether candidate beats the stored time. Lower is better;
// a zero entry (no record yet) loses to any candidate.
func (e RankingEntry) Better(candidate float64) bool {
	return e.BestTime == 0 || candidate < e.BestTime
}

// Progress event types published to the telemetry topic.
const (
	EventLevelCompleted = "level_completed"
	EventSkinPurchased  = "skin_purchased"
	EventGlobalRecord   = "global_record"
	EventGameEnded      = "game_ended"
)

// ProgressEvent is a telemetry record emitted by the progress facade.
type ProgressEvent struct {
	UserID     string    `json:"user_id"`
	EventType  string    `json:"event_type"`
	LevelIndex int       `json:"level_index,omitempty"`
	Stars      int       `json:"stars,omitempty"`
	BestTime   float64   `json:"best_time,omitempty"`
	Coins      int       `json:"coins,omitempty"`
	SkinID     int       `json:"skin_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
