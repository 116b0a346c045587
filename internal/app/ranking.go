package app

import (
	"sort"

	"club-trivia-service/internal/domain"
)

// winnersCutoff is the number of top ranks classified as winners.
const winnersCutoff = 3

// Rank merges the player's final score into the peer scoreboard and produces
// the finalized results: peers with the same nickname are replaced (the player
// never counts twice), the merged list is sorted by score descending with ties
// resolved by insertion order, and the top three form the winners prefix.
func Rank(player domain.PlayerScore, peers []domain.PlayerScore) domain.Results {
	merged := make([]domain.PlayerScore, 0, len(peers)+1)
	replaced := false
	for _, peer := range peers {
		if peer.Nickname == player.Nickname {
			merged = append(merged, player)
			replaced = true
			continue
		}
		merged = append(merged, peer)
	}
	if !replaced {
		merged = append(merged, player)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	rank := 0
	for i := range merged {
		if merged[i].Nickname == player.Nickname {
			rank = i + 1
			break
		}
	}

	cutoff := winnersCutoff
	if cutoff > len(merged) {
		cutoff = len(merged)
	}
	winners := make([]domain.PlayerScore, cutoff)
	copy(winners, merged[:cutoff])

	return domain.Results{
		Players:  merged,
		Winners:  winners,
		UserRank: rank,
	}
}
