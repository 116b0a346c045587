package app

import (
	"sync"
	"time"

	"club-trivia-service/internal/domain"
)

// CorrectAnswerPoints is the base score for a correct answer, before time bonus.
const CorrectAnswerPoints = 10

// Session holds one play-through's mutable state. All mutators take the lock
// and leave the session in a consistent state; readers get copies via Snapshot.
type Session struct {
	mu        sync.RWMutex
	id        string
	player    domain.Player
	startedAt time.Time
	endedAt   time.Time
	now       func() time.Time

	currentIndex int
	answers      []*domain.AnswerRecord
	score        int
	active       bool
	results      *domain.Results
}

func NewSession() *Session {
	return NewSessionWithClock(time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(now func() time.Time) *Session {
	return &Session{now: now}
}

// SetPlayer merges non-empty fields into the session's player. No validation
// happens here; callers validate before the session starts.
func (s *Session) SetPlayer(p domain.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		// Identity is immutable once the session starts.
		return
	}
	if p.Nickname != "" {
		s.player.Nickname = p.Nickname
	}
	if p.Email != "" {
		s.player.Email = p.Email
	}
}

// Start assigns the session id, records the start timestamp and resets the quiz
// sub-state. Calling Start while a session is active is a silent no-op so that
// recorded answers can never be lost to a re-entrant start.
func (s *Session) Start(sessionID string, questionCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.id = sessionID
	s.startedAt = s.now()
	s.endedAt = time.Time{}
	s.currentIndex = 0
	s.answers = make([]*domain.AnswerRecord, questionCount)
	s.score = 0
	s.active = true
	s.results = nil
}

// RecordAnswer stores the answer for questionIndex and advances the current
// question by exactly one. The call is accepted only for the current question
// with no answer recorded yet; anything else is a no-op returning false, so a
// duplicate call can neither double-count score nor double-advance the index.
func (s *Session) RecordAnswer(questionIndex, selectedOption int, isCorrect bool, timeBonus int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	if questionIndex != s.currentIndex {
		return false
	}
	if questionIndex < 0 || questionIndex >= len(s.answers) {
		return false
	}
	if s.answers[questionIndex] != nil {
		return false
	}
	if timeBonus < 0 {
		timeBonus = 0
	}
	s.answers[questionIndex] = &domain.AnswerRecord{
		QuestionIndex:  questionIndex,
		SelectedOption: selectedOption,
		IsCorrect:      isCorrect,
		TimeBonus:      timeBonus,
	}
	if isCorrect {
		s.score += CorrectAnswerPoints + timeBonus
	}
	s.currentIndex++
	return true
}

// End marks the session inactive and records the end timestamp. Idempotent.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	s.endedAt = s.now()
}

// SetResults stores the finalized results verbatim.
func (s *Session) SetResults(r domain.Results) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = &r
}

// Player returns the session's player identity.
func (s *Session) Player() domain.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player
}

// Score returns the running score.
func (s *Session) Score() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.score
}

// Snapshot returns a consistent copy of the full session state.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	answers := make([]domain.AnswerRecord, 0, len(s.answers))
	for _, a := range s.answers {
		if a != nil {
			answers = append(answers, *a)
		}
	}

	snap := domain.SessionSnapshot{
		ID:           s.id,
		Player:       s.player,
		StartedAt:    s.startedAt,
		EndedAt:      s.endedAt,
		CurrentIndex: s.currentIndex,
		Answers:      answers,
		Score:        s.score,
		Active:       s.active,
	}
	if s.results != nil {
		r := *s.results
		snap.Results = &r
	}
	return snap
}
