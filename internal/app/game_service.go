package app

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"club-trivia-service/internal/domain"
	"github.com/google/uuid"
)

// QuestionRepository loads question sets (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// PeerSource supplies the scoreboard a finished session is ranked against.
type PeerSource interface {
	Peers(ctx context.Context, clubID string) ([]domain.PlayerScore, error)
}

// ScoreSink receives final scores so later sessions see them as peers.
type ScoreSink interface {
	Publish(ctx context.Context, clubID string, entry domain.PlayerScore) error
}

// SessionRegistry tracks live machines by session id.
type SessionRegistry interface {
	Put(sessionID string, m *Machine)
	Get(sessionID string) (*Machine, bool)
	Delete(sessionID string)
}

const (
	// DefaultCountdownSeconds is the pre-game countdown length.
	DefaultCountdownSeconds = 10
	// DefaultFeedbackDelay holds the answer feedback on screen before the next
	// question is committed.
	DefaultFeedbackDelay = 1500 * time.Millisecond

	peerFetchTimeout = 3 * time.Second
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ValidatePlayer checks the onboarding form fields. These are the only
// recoverable errors in the flow; the caller reports them and the player
// resubmits.
func ValidatePlayer(p domain.Player) error {
	nickname := strings.TrimSpace(p.Nickname)
	if nickname == "" {
		return domain.ErrNicknameRequired
	}
	if n := utf8.RuneCountInString(nickname); n < 2 || n > 20 {
		return domain.ErrNicknameLength
	}
	if !emailPattern.MatchString(strings.TrimSpace(p.Email)) {
		return domain.ErrInvalidEmail
	}
	return nil
}

// GameService wires the session store, state machine and ranking stage to the
// question and scoreboard infrastructure.
type GameService struct {
	questions     QuestionRepository
	peers         PeerSource
	scores        ScoreSink // optional
	registry      SessionRegistry
	countdown     int
	feedbackDelay time.Duration
}

func NewGameService(questions QuestionRepository, peers PeerSource, scores ScoreSink, registry SessionRegistry) *GameService {
	return &GameService{
		questions:     questions,
		peers:         peers,
		scores:        scores,
		registry:      registry,
		countdown:     DefaultCountdownSeconds,
		feedbackDelay: DefaultFeedbackDelay,
	}
}

// SetTiming overrides the countdown and feedback delay (config/tests).
func (g *GameService) SetTiming(countdownSeconds int, feedbackDelay time.Duration) {
	g.countdown = countdownSeconds
	g.feedbackDelay = feedbackDelay
}

// StartSession validates the player, loads the question set and registers a
// new machine for it. The machine is returned in the idle state; the caller
// invokes Begin once it is ready to stream updates.
func (g *GameService) StartSession(ctx context.Context, setID string, player domain.Player) (string, *Machine, error) {
	if err := ValidatePlayer(player); err != nil {
		return "", nil, err
	}
	set, err := g.questions.GetQuestionSet(ctx, setID)
	if err != nil {
		return "", nil, err
	}

	player.Nickname = strings.TrimSpace(player.Nickname)
	player.Email = strings.TrimSpace(player.Email)

	session := NewSession()
	session.SetPlayer(player)

	sessionID := uuid.NewString()
	machine := NewMachine(session, set.Questions, g.countdown, g.finisher(set.ClubID),
		WithAutoAdvance(g.feedbackDelay),
		WithIDGenerator(func() string { return sessionID }),
	)
	g.registry.Put(sessionID, machine)
	return sessionID, machine, nil
}

// Session looks up a live machine.
func (g *GameService) Session(sessionID string) (*Machine, error) {
	machine, ok := g.registry.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return machine, nil
}

// EndSession stops a machine's timers and drops it from the registry.
func (g *GameService) EndSession(sessionID string) {
	if machine, ok := g.registry.Get(sessionID); ok {
		machine.Stop()
	}
	g.registry.Delete(sessionID)
}

// finisher builds the completion callback: rank the final score against the
// club's peer set and publish it so later sessions compete against it. Both
// scoreboard calls are best-effort; a failed fetch ranks against an empty
// peer set rather than blocking completion.
func (g *GameService) finisher(clubID string) FinishFunc {
	return func(player domain.Player, score int) domain.Results {
		ctx, cancel := context.WithTimeout(context.Background(), peerFetchTimeout)
		defer cancel()

		var peers []domain.PlayerScore
		if g.peers != nil {
			var err error
			peers, err = g.peers.Peers(ctx, clubID)
			if err != nil {
				log.Printf("peer fetch failed for club %s: %v", clubID, err)
				peers = nil
			}
		}

		entry := domain.PlayerScore{Nickname: player.Nickname, Email: player.Email, Score: score}
		results := Rank(entry, peers)

		if g.scores != nil {
			if err := g.scores.Publish(ctx, clubID, entry); err != nil {
				log.Printf("score publish failed for club %s: %v", clubID, err)
			}
		}
		return results
	}
}
