package app

import (
	"sync/atomic"
	"testing"

	"club-trivia-service/internal/domain"
)

func fiveQuestions() []domain.Question {
	qs := make([]domain.Question, 5)
	for i := range qs {
		qs[i] = domain.Question{
			ID:               i + 1,
			Prompt:           "question",
			Options:          []string{"a", "b", "c", "d"},
			CorrectOption:    1,
			TimeLimitSeconds: 30,
		}
	}
	return qs
}

func newTestMachine(questions []domain.Question, finish FinishFunc) *Machine {
	session := NewSession()
	session.SetPlayer(domain.Player{Nickname: "Alice", Email: "alice@example.com"})
	return NewMachine(session, questions, 0, finish,
		WithIDGenerator(func() string { return "test-session" }))
}

// burn ticks the machine until remaining seconds hit the target.
func burn(t *testing.T, m *Machine, target int) {
	t.Helper()
	for i := 0; i < 120; i++ {
		snap := m.Tick()
		if snap.Remaining == target {
			return
		}
	}
	t.Fatalf("never reached %d seconds remaining", target)
}

func TestCountdownRunsToFirstQuestion(t *testing.T) {
	session := NewSession()
	m := NewMachine(session, fiveQuestions(), 3, nil)

	snap := m.Begin()
	if snap.State != StateCountdown || snap.Countdown != 3 {
		t.Fatalf("expected 3s countdown, got %+v", snap)
	}

	m.Tick()
	m.Tick()
	snap = m.Tick()
	if snap.State != StateAnswering || snap.QuestionIndex != 0 {
		t.Fatalf("expected first question after countdown, got %+v", snap)
	}
	if snap.Remaining != 30 {
		t.Fatalf("expected fresh time limit, got %d", snap.Remaining)
	}
	if !session.Snapshot().Active {
		t.Fatalf("expected session started at countdown end")
	}
}

func TestSelectAwardsTimeBonus(t *testing.T) {
	m := newTestMachine(fiveQuestions(), nil)
	m.Begin()

	burn(t, m, 25)
	fb, ok := m.Select(1)
	if !ok {
		t.Fatalf("expected selection accepted")
	}
	if !fb.IsCorrect || fb.TimeBonus != 15 || fb.Awarded != 25 {
		t.Fatalf("expected 10+15 points at 25s remaining, got %+v", fb)
	}
	if m.Session().Score() != 25 {
		t.Fatalf("expected session score 25, got %d", m.Session().Score())
	}
}

func TestSelectLateHasNoBonus(t *testing.T) {
	m := newTestMachine(fiveQuestions(), nil)
	m.Begin()

	burn(t, m, 5)
	fb, _ := m.Select(1)
	if fb.TimeBonus != 0 || fb.Awarded != 10 {
		t.Fatalf("expected base 10 points at 5s remaining, got %+v", fb)
	}
}

func TestTimeoutSynthesizesNoAnswer(t *testing.T) {
	m := newTestMachine(fiveQuestions(), nil)
	m.Begin()

	var last Snapshot
	for i := 0; i < 30; i++ {
		last = m.Tick()
	}
	if last.State != StateFeedback {
		t.Fatalf("expected feedback after time ran out, got %v", last.State)
	}
	if last.Feedback.SelectedOption != domain.NoAnswer || last.Feedback.IsCorrect || last.Feedback.Awarded != 0 {
		t.Fatalf("expected zero-point no-answer record, got %+v", last.Feedback)
	}

	// Selection during feedback is ignored, not an error.
	if _, ok := m.Select(1); ok {
		t.Fatalf("expected selection rejected after timeout")
	}
	// Further ticks must not synthesize a second record.
	m.Tick()
	if got := len(m.Session().Snapshot().Answers); got != 1 {
		t.Fatalf("expected single answer record, got %d", got)
	}
}

func TestDuplicateSelectIgnored(t *testing.T) {
	m := newTestMachine(fiveQuestions(), nil)
	m.Begin()

	if _, ok := m.Select(1); !ok {
		t.Fatalf("expected first selection accepted")
	}
	if _, ok := m.Select(2); ok {
		t.Fatalf("expected second selection rejected")
	}
	snap := m.Session().Snapshot()
	if snap.Score != 30 || snap.CurrentIndex != 1 {
		t.Fatalf("expected single scored answer, got score=%d index=%d", snap.Score, snap.CurrentIndex)
	}
}

func TestOutOfRangeOptionTreatedAsNoAnswer(t *testing.T) {
	m := newTestMachine(fiveQuestions(), nil)
	m.Begin()

	fb, ok := m.Select(9)
	if !ok {
		t.Fatalf("expected defensive acceptance")
	}
	if fb.SelectedOption != domain.NoAnswer || fb.IsCorrect || fb.Awarded != 0 {
		t.Fatalf("expected no-answer feedback, got %+v", fb)
	}
}

func TestCompletionHappensExactlyOnce(t *testing.T) {
	var finishes int32
	finish := func(player domain.Player, score int) domain.Results {
		atomic.AddInt32(&finishes, 1)
		return Rank(domain.PlayerScore{Nickname: player.Nickname, Score: score}, nil)
	}
	m := newTestMachine(fiveQuestions(), finish)
	m.Begin()

	var snap Snapshot
	for i := 0; i < 5; i++ {
		m.Select(1)
		snap = m.Advance()
	}
	if snap.State != StateComplete {
		t.Fatalf("expected complete after 5 questions, got %v", snap.State)
	}
	if snap.Results == nil || snap.Results.UserRank != 1 {
		t.Fatalf("expected results attached, got %+v", snap.Results)
	}

	// Terminal state: advancing and ticking again change nothing.
	m.Advance()
	m.Tick()
	if got := atomic.LoadInt32(&finishes); got != 1 {
		t.Fatalf("expected finish called once, got %d", got)
	}

	session := m.Session().Snapshot()
	if session.Active {
		t.Fatalf("expected session inactive at completion")
	}
	if session.EndedAt.IsZero() {
		t.Fatalf("expected end timestamp recorded")
	}
}

// Scenario: Q1 correct at 20s (+10 bonus), Q2 timeout, Q3 wrong, Q4 correct at
// 8s (no bonus), Q5 correct at 15s (+5 bonus). Final score 45.
func TestFullSessionScenario(t *testing.T) {
	m := newTestMachine(fiveQuestions(), func(player domain.Player, score int) domain.Results {
		return Rank(domain.PlayerScore{Nickname: player.Nickname, Email: player.Email, Score: score}, demoPeers())
	})
	m.Begin()

	burn(t, m, 20)
	m.Select(1) // correct: 10+10
	m.Advance()

	for i := 0; i < 30; i++ { // timeout: 0
		m.Tick()
	}
	m.Advance()

	m.Select(0) // wrong: 0
	m.Advance()

	burn(t, m, 8)
	m.Select(1) // correct, late: 10
	m.Advance()

	burn(t, m, 15)
	m.Select(1) // correct: 10+5
	snap := m.Advance()

	if snap.State != StateComplete {
		t.Fatalf("expected complete, got %v", snap.State)
	}
	session := m.Session().Snapshot()
	if session.Score != 45 {
		t.Fatalf("expected final score 45, got %d", session.Score)
	}
	if session.CurrentIndex != 5 {
		t.Fatalf("expected index 5, got %d", session.CurrentIndex)
	}
	if session.Active {
		t.Fatalf("expected session inactive")
	}
	if session.Results == nil || session.Results.UserRank != 4 {
		t.Fatalf("expected Alice ranked 4th against demo peers, got %+v", session.Results)
	}
	if session.Results.IsWinner() {
		t.Fatalf("expected rank 4 not classified as winner")
	}
}

func TestSubscribeStreamsTransitions(t *testing.T) {
	m := newTestMachine(fiveQuestions(), nil)
	ch, cancel := m.Subscribe()
	defer cancel()

	initial := <-ch
	if initial.State != StateIdle {
		t.Fatalf("expected idle snapshot first, got %v", initial.State)
	}

	m.Begin()
	snap := <-ch
	if snap.State != StateAnswering || snap.Question == nil {
		t.Fatalf("expected answering snapshot with question, got %+v", snap)
	}

	m.Select(1)
	snap = <-ch
	if snap.State != StateFeedback || snap.Feedback == nil {
		t.Fatalf("expected feedback snapshot, got %+v", snap)
	}
}
