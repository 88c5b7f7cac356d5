package leaderboard

import "time"

// Entry is one score a user holds on a leaderboard.
type Entry struct {
	ID            string                 `json:"id"`
	LeaderboardID string                 `json:"leaderboardId"`
	Username      string                 `json:"username"`
	Score         float64                `json:"score"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}
