package results

import "typingspeed/internal/domain"

type CreateResultRequest struct {
	WPM             float64 `json:"wpm" binding:"gte=0,lte=500"`
	RawWPM          float64 `json:"raw_wpm" binding:"gte=0,lte=500"`
	Accuracy        float64 `json:"accuracy" binding:"gte=0,lte=100"`
	DurationSeconds int     `json:"duration_seconds" binding:"required,gte=1,lte=3600"`
	Mode            string  `json:"mode" binding:"required,testmode"`
	WordsTyped      int     `json:"words_typed" binding:"gte=0"`
	CharsTyped      int     `json:"chars_typed" binding:"gte=0"`
	ErrorCount      int     `json:"error_count" binding:"gte=0"`
}

type ListQuery struct {
	Page  int `form:"page" binding:"omitempty,gte=1,lte=10000"`
	Limit int `form:"limit" binding:"omitempty,gte=1,lte=100"`
}

type LeaderboardQuery struct {
	Mode  string `form:"mode" binding:"omitempty,testmode"`
	Limit int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
}

type ResultPage struct {
	Results []domain.TestResult `json:"results"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	Limit   int                 `json:"limit"`
}

type LeaderboardResponse struct {
	Entries      []domain.LeaderboardEntry `json:"entries"`
	PersonalBest *domain.TestResult        `json:"personal_best,omitempty"`
}
