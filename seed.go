package main

import (
	"time"

	"friendsClient/internal/mockbackend"
	"friendsClient/internal/types/leaderboard"
	"friendsClient/internal/types/user"
)

// seedMockUsers loads a small fixture set so the mock backend is usable
// interactively right away. Tokens are printed so a client session can
// be pointed at any of them.
func seedMockUsers(backend *mockbackend.Server) {
	fixtures := []user.User{
		{ID: "u-alice", Username: "alice", FirstName: "Alice", LastName: "Nguyen", Email: "alice@example.com"},
		{ID: "u-bob", Username: "bob", FirstName: "Bob", LastName: "Okafor", Email: "bob@example.com"},
		{ID: "u-carol", Username: "carol", FirstName: "Carol", LastName: "Silva", Email: "carol@example.com"},
		{ID: "u-dave", Username: "dave", FirstName: "Dave", LastName: "Ito", Email: "dave@example.com"},
	}

	for _, u := range fixtures {
		token := backend.AddUser(u)
		log.Infof("seeded @%-6s token=%s", u.Username, token)
	}

	now := time.Now().UTC()
	for i, username := range []string{"alice", "bob"} {
		backend.AddLeaderboardEntry(username, leaderboard.Entry{
			LeaderboardID: "weekly-trivia",
			Score:         float64(1200 - 100*i),
			Timestamp:     now,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
}
