package jwt

import "strings"

const bearerPrefix = "Bearer "

// ExtractTokenFromHeader returns the token from a header of the exact form
// "Bearer <token>". Any other shape yields "" and false.
func ExtractTokenFromHeader(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := header[len(bearerPrefix):]
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
