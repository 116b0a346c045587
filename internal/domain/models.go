package domain

import "time"

// NoAnswer is the selected-option sentinel recorded when a question times out
// (or an out-of-range option index is submitted).
const NoAnswer = -1

// Player identifies the person playing a session. Immutable once the session starts.
type Player struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// Question is a single timed multiple-choice question. Options are ordered; the
// correct option is referenced by index.
type Question struct {
	ID               int      `json:"id"`
	Prompt           string   `json:"prompt"`
	Options          []string `json:"options"`
	CorrectOption    int      `json:"correctOption"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// QuestionSet is the fixed ordered list of questions a session plays through.
type QuestionSet struct {
	ID        string     `json:"id"`
	ClubID    string     `json:"clubId"`
	Questions []Question `json:"questions"`
}

// AnswerRecord is produced once per question, in question order.
type AnswerRecord struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedOption int  `json:"selectedOption"` // NoAnswer on timeout
	IsCorrect      bool `json:"isCorrect"`
	TimeBonus      int  `json:"timeBonus"`
}

// PlayerScore is one row of a ranked scoreboard.
type PlayerScore struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email,omitempty"`
	Score    int    `json:"score"`
}

// Results is the finalized outcome of a session against its peer set.
// Players is sorted by score descending; Winners is its top-3 prefix.
type Results struct {
	Players  []PlayerScore `json:"players"`
	Winners  []PlayerScore `json:"winners"`
	UserRank int           `json:"userRank"` // 1-based
}

// IsWinner reports whether the session's player finished in the top three.
func (r Results) IsWinner() bool {
	return r.UserRank >= 1 && r.UserRank <= 3
}

// SessionSnapshot is a consistent copy of one play-through's state.
type SessionSnapshot struct {
	ID           string
	Player       Player
	StartedAt    time.Time
	EndedAt      time.Time // zero until finished
	CurrentIndex int
	Answers      []AnswerRecord
	Score        int
	Active       bool
	Results      *Results
}

// ClubConfig carries the branding delivered to clients. Pure data; it has no
// effect on session behavior.
type ClubConfig struct {
	Name           string   `json:"name" yaml:"name"`
	Logo           string   `json:"logo" yaml:"logo"`
	PrimaryColor   string   `json:"primaryColor" yaml:"primary_color"`
	SecondaryColor string   `json:"secondaryColor" yaml:"secondary_color"`
	SponsorLogos   []string `json:"sponsorLogos" yaml:"sponsor_logos"`
}
