package leaderboard

// TopN bounds the projection. No pagination.
const TopN = 10

type LeaderboardEntry struct {
	UserID      string `json:"id"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
	TotalTokens int64  `json:"totalTokens"`
	Rank        int    `json:"rank"`
}

type Leaderboard struct {
	Entries    []*LeaderboardEntry `json:"entries"`
	TotalUsers int                 `json:"total_users"`
}
