package app

import (
	"sync"
	"time"

	"club-trivia-service/internal/domain"
	"github.com/google/uuid"
)

// State is the machine's position in the session flow.
type State int

const (
	StateIdle State = iota
	StateCountdown
	StateAnswering
	StateFeedback
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCountdown:
		return "countdown"
	case StateAnswering:
		return "answering"
	case StateFeedback:
		return "feedback"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// AnswerFeedback summarizes the outcome of one question for the client.
type AnswerFeedback struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedOption int  `json:"selectedOption"`
	CorrectOption  int  `json:"correctOption"`
	IsCorrect      bool `json:"isCorrect"`
	TimeBonus      int  `json:"timeBonus"`
	Awarded        int  `json:"awarded"`
	TotalScore     int  `json:"totalScore"`
}

// Snapshot is the machine state published to subscribers after every transition.
type Snapshot struct {
	State          State            `json:"-"`
	StateName      string           `json:"state"`
	Countdown      int              `json:"countdown,omitempty"`
	QuestionIndex  int              `json:"questionIndex"`
	TotalQuestions int              `json:"totalQuestions"`
	Question       *domain.Question `json:"question,omitempty"`
	Remaining      int              `json:"remaining,omitempty"`
	Score          int              `json:"score"`
	Feedback       *AnswerFeedback  `json:"feedback,omitempty"`
	Results        *domain.Results  `json:"results,omitempty"`
}

// FinishFunc assembles the finalized results for a completed session.
type FinishFunc func(player domain.Player, score int) domain.Results

// Machine drives one session through countdown, the question sequence and
// completion. It consumes three discrete events: Tick (once per scheduler
// second), Select (player input) and Advance (feedback delay expiry). All
// transitions serialize on the machine mutex; the recorded-answer guard makes
// a racing tick and selection resolve to whichever event lands first.
type Machine struct {
	mu          sync.Mutex
	session     *Session
	questions   []domain.Question
	finish      FinishFunc
	newID       func() string
	subscribers map[chan Snapshot]struct{}

	state     State
	countdown int
	index     int
	remaining int
	answered  bool
	feedback  *AnswerFeedback
	results   *domain.Results

	feedbackDelay time.Duration
	autoAdvance   bool
	advanceTimer  *time.Timer
}

// MachineOption customizes machine construction.
type MachineOption func(*Machine)

// WithAutoAdvance makes the machine commit the next question on its own after
// the feedback delay. Without it the caller drives Advance explicitly.
func WithAutoAdvance(delay time.Duration) MachineOption {
	return func(m *Machine) {
		m.autoAdvance = true
		m.feedbackDelay = delay
	}
}

// WithIDGenerator overrides session id generation (tests).
func WithIDGenerator(gen func() string) MachineOption {
	return func(m *Machine) { m.newID = gen }
}

func NewMachine(session *Session, questions []domain.Question, countdownSeconds int, finish FinishFunc, opts ...MachineOption) *Machine {
	m := &Machine{
		session:     session,
		questions:   questions,
		finish:      finish,
		newID:       uuid.NewString,
		subscribers: make(map[chan Snapshot]struct{}),
		state:       StateIdle,
		countdown:   countdownSeconds,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session exposes the underlying session store.
func (m *Machine) Session() *Session { return m.session }

// QuestionCount returns how many questions the session plays through.
func (m *Machine) QuestionCount() int { return len(m.questions) }

// State returns the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Begin moves the machine from idle into the pre-game countdown. A countdown
// of zero seconds starts the first question immediately.
func (m *Machine) Begin() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return m.snapshotLocked()
	}
	if m.countdown > 0 {
		m.state = StateCountdown
	} else {
		m.startQuizLocked()
	}
	return m.broadcastLocked()
}

// Tick consumes one scheduler second. During the countdown it counts toward
// the quiz start; while answering it burns question time and synthesizes a
// no-answer record when the limit is reached before any selection.
func (m *Machine) Tick() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateCountdown:
		m.countdown--
		if m.countdown <= 0 {
			m.startQuizLocked()
		}
	case StateAnswering:
		m.remaining--
		if m.remaining <= 0 && !m.answered {
			m.remaining = 0
			m.recordLocked(domain.NoAnswer, false, 0)
		}
	default:
		// Ticks are harmless in feedback and terminal states.
		return m.snapshotLocked()
	}
	return m.broadcastLocked()
}

// Select applies the player's option choice for the current question. Returns
// false when no question is accepting input (already answered, between
// questions, or the session is over); the duplicate attempt is ignored, not an
// error. An out-of-range index is treated as no answer.
func (m *Machine) Select(option int) (AnswerFeedback, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAnswering || m.answered {
		return AnswerFeedback{}, false
	}

	question := m.questions[m.index]
	selected := option
	correct := false
	bonus := 0
	if option < 0 || option >= len(question.Options) {
		selected = domain.NoAnswer
	} else {
		correct = option == question.CorrectOption
		bonus = m.remaining - 10
		if bonus < 0 {
			bonus = 0
		}
	}
	m.recordLocked(selected, correct, bonus)
	fb := *m.feedback
	m.broadcastLocked()
	return fb, true
}

// Advance commits the pending transition out of the feedback window: the next
// question, or completion after the last one. A no-op in any other state.
func (m *Machine) Advance() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateFeedback {
		return m.snapshotLocked()
	}
	if m.advanceTimer != nil {
		m.advanceTimer.Stop()
		m.advanceTimer = nil
	}

	m.index++
	m.feedback = nil
	if m.index >= len(m.questions) {
		m.completeLocked()
	} else {
		m.state = StateAnswering
		m.remaining = m.questions[m.index].TimeLimitSeconds
		m.answered = false
	}
	return m.broadcastLocked()
}

// Stop cancels any pending feedback timer and drops all subscribers. Called
// when the client goes away mid-session.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.advanceTimer != nil {
		m.advanceTimer.Stop()
		m.advanceTimer = nil
	}
	for ch := range m.subscribers {
		delete(m.subscribers, ch)
		close(ch)
	}
}

// Subscribe returns a channel receiving machine snapshots, starting with the
// current one. The caller must invoke the returned cancel function.
func (m *Machine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	initial := m.snapshotLocked()
	m.mu.Unlock()

	ch <- initial

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

func (m *Machine) startQuizLocked() {
	m.session.Start(m.newID(), len(m.questions))
	m.state = StateAnswering
	m.index = 0
	m.answered = false
	m.feedback = nil
	if len(m.questions) == 0 {
		// Nothing to ask; finish immediately so the flow stays total.
		m.completeLocked()
		return
	}
	m.remaining = m.questions[m.index].TimeLimitSeconds
}

// recordLocked writes the answer through to the session store and enters the
// feedback window. The store's own guard still applies, so even a racing
// duplicate cannot change the recorded answer or score.
func (m *Machine) recordLocked(selected int, correct bool, bonus int) {
	m.session.RecordAnswer(m.index, selected, correct, bonus)
	m.answered = true

	awarded := 0
	if correct {
		awarded = CorrectAnswerPoints + bonus
	}
	m.feedback = &AnswerFeedback{
		QuestionIndex:  m.index,
		SelectedOption: selected,
		CorrectOption:  m.questions[m.index].CorrectOption,
		IsCorrect:      correct,
		TimeBonus:      bonus,
		Awarded:        awarded,
		TotalScore:     m.session.Score(),
	}
	m.state = StateFeedback
	if m.autoAdvance {
		m.advanceTimer = time.AfterFunc(m.feedbackDelay, func() { m.Advance() })
	}
}

func (m *Machine) completeLocked() {
	m.state = StateComplete
	m.session.End()
	if m.finish != nil {
		results := m.finish(m.session.Player(), m.session.Score())
		m.session.SetResults(results)
		m.results = &results
	}
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:          m.state,
		StateName:      m.state.String(),
		QuestionIndex:  m.index,
		TotalQuestions: len(m.questions),
		Score:          m.session.Score(),
	}
	switch m.state {
	case StateCountdown:
		snap.Countdown = m.countdown
	case StateAnswering:
		q := m.questions[m.index]
		snap.Question = &q
		snap.Remaining = m.remaining
	case StateFeedback:
		fb := *m.feedback
		snap.Feedback = &fb
	case StateComplete:
		if m.results != nil {
			r := *m.results
			snap.Results = &r
		}
	}
	return snap
}

func (m *Machine) broadcastLocked() Snapshot {
	snap := m.snapshotLocked()
	for ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale update so a slow client cannot block transitions.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}
