package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const maxInputLength = 1000

// SanitizeInput drops the characters < > " ' , trims surrounding whitespace
// and truncates to 1000 characters. Parameterized queries do the real
// injection defense.
func SanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'':
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxInputLength {
		s = string([]rune(s)[:maxInputLength])
	}
	return s
}

var (
	logSaltOnce sync.Once
	logSalt     []byte
)

func salt() []byte {
	logSaltOnce.Do(func() {
		logSalt = make([]byte, 16)
		if _, err := rand.Read(logSalt); err != nil {
			logSalt = []byte("typingspeed-log-salt")
		}
	})
	return logSalt
}

// HashForLogging returns a salted 12 hex character digest so raw client IPs
// never reach the logs. The salt lives for the process lifetime, so the same
// value hashes the same way until restart.
func HashForLogging(value string) string {
	h := sha256.New()
	h.Write(salt())
	h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// Context is captured per request for auditing. It never influences
// authorization.
type Context struct {
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `json:"timestamp"`
}

func CreateContext(r *http.Request) Context {
	return Context{
		IPAddress: ClientIP(r),
		UserAgent: r.UserAgent(),
		Timestamp: time.Now().UTC(),
	}
}

// ClientIP is best effort for audit records only: first X-Forwarded-For
// entry, then the socket address, then "unknown". Anything that enforces a
// limit must use the proxy-aware gin client IP instead.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}
