package memory

import (
	"context"

	"club-trivia-service/internal/domain"
)

// PeerSource serves a fixed peer scoreboard. Stands in for a real ranking
// service; sessions are ranked against these entries regardless of club.
type PeerSource struct {
	peers []domain.PlayerScore
}

func NewPeerSource(peers []domain.PlayerScore) *PeerSource {
	return &PeerSource{peers: peers}
}

func (s *PeerSource) Peers(context.Context, string) ([]domain.PlayerScore, error) {
	out := make([]domain.PlayerScore, len(s.peers))
	copy(out, s.peers)
	return out, nil
}
