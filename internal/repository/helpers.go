package repository

import "math"

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
