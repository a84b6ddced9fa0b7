package password

import (
	"strings"
	"unicode"
)

const (
	MinLength = 8
	// bcrypt ignores everything past 72 bytes.
	MaxBytes = 72
)

var commonPatterns = []string{"password", "123456", "qwerty", "admin", "letmein", "welcome", "abc123"}

type Strength struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
	Score  int      `json:"score"`
}

// Validate checks length and character classes, then applies penalties for
// weak patterns. Score is clamped to [0,100].
func Validate(pw string) Strength {
	errs := []string{}
	score := 0

	n := len([]rune(pw))
	switch {
	case n < MinLength:
		errs = append(errs, "Password must be at least 8 characters long")
	default:
		score += 20
		if n >= 12 {
			score += 10
		}
		if n >= 16 {
			score += 10
		}
	}
	if len(pw) > MaxBytes {
		errs = append(errs, "Password must not exceed 72 bytes")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsSpace(r):
			hasSpecial = true
		}
	}

	if hasUpper {
		score += 15
	} else {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if hasLower {
		score += 15
	} else {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if hasDigit {
		score += 15
	} else {
		errs = append(errs, "Password must contain at least one number")
	}
	if hasSpecial {
		score += 15
	}

	lower := strings.ToLower(pw)
	for _, p := range commonPatterns {
		if strings.Contains(lower, p) {
			score -= 30
			errs = append(errs, "Password contains common patterns")
			break
		}
	}
	if hasRepeatedRun(pw, 3) {
		score -= 20
		errs = append(errs, "Password must not contain 3 or more repeated characters")
	}
	if pw != "" && (isAll(pw, unicode.IsLetter) || isAll(pw, unicode.IsDigit)) {
		score -= 20
		errs = append(errs, "Password must not consist of only letters or only numbers")
	}

	return Strength{
		Valid:  len(errs) == 0,
		Errors: errs,
		Score:  clamp(score, 0, 100),
	}
}

func hasRepeatedRun(s string, n int) bool {
	run := 0
	var prev rune
	for i, r := range []rune(s) {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

func isAll(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
