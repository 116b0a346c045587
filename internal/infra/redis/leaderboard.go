package redis

import (
	"context"
	"fmt"

	"club-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// maxPeers caps how many scoreboard rows a session is ranked against.
const maxPeers = 50

// Leaderboard keeps final session scores in a sorted set per club
// (ZADD trivia:leaderboard:{clubID} score nickname) so later sessions
// compete against everyone who has already played.
type Leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client}
}

// Publish records a finished session's score. A nickname that plays again
// keeps its best score.
func (l *Leaderboard) Publish(ctx context.Context, clubID string, entry domain.PlayerScore) error {
	err := l.client.ZAddGT(ctx, l.key(clubID), redis.Z{
		Score:  float64(entry.Score),
		Member: entry.Nickname,
	}).Err()
	if err != nil {
		return fmt.Errorf("publish score: %w", err)
	}
	return nil
}

// Peers returns the club scoreboard in descending score order.
func (l *Leaderboard) Peers(ctx context.Context, clubID string) ([]domain.PlayerScore, error) {
	rows, err := l.client.ZRevRangeWithScores(ctx, l.key(clubID), 0, maxPeers-1).Result()
	if err != nil {
		return nil, fmt.Errorf("load peers: %w", err)
	}
	peers := make([]domain.PlayerScore, 0, len(rows))
	for _, row := range rows {
		nickname, ok := row.Member.(string)
		if !ok {
			continue
		}
		peers = append(peers, domain.PlayerScore{
			Nickname: nickname,
			Score:    int(row.Score),
		})
	}
	return peers, nil
}

func (l *Leaderboard) key(clubID string) string {
	return "trivia:leaderboard:" + clubID
}
