package domain

import "time"

type TestMode string

const (
	ModeTime   TestMode = "time"
	ModeWords  TestMode = "words"
	ModeQuote  TestMode = "quote"
	ModeCustom TestMode = "custom"
)

func (m TestMode) Valid() bool {
	switch m {
	case ModeTime, ModeWords, ModeQuote, ModeCustom:
		return true
	}
	return false
}

type TestResult struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	WPM             float64   `json:"wpm"`
	RawWPM          float64   `json:"raw_wpm"`
	Accuracy        float64   `json:"accuracy"`
	DurationSeconds int       `json:"duration_seconds"`
	Mode            TestMode  `json:"mode"`
	WordsTyped      int       `json:"words_typed"`
	CharsTyped      int       `json:"chars_typed"`
	ErrorCount      int       `json:"error_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// LeaderboardEntry is one user's best result.
type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	BestWPM        float64   `json:"best_wpm"`
	Accuracy       float64   `json:"accuracy"`
	AchievedAt     time.Time `json:"achieved_at"`
}
