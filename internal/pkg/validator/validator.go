package validator

import (
	"errors"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// init registers the custom tags on gin's binding engine.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("testmode", testModeTag)
	}
}

// Describe turns a binding/validation error into field -> tag pairs. Errors
// that are not validation errors (bad JSON, wrong types) come back under
// "body".
func Describe(err error) map[string]string {
	if err == nil {
		return nil
	}

	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = fe.Tag()
		}
		return out
	}
	out["body"] = "invalid"
	return out
}

const (
	UsernameMinLength = 3
	UsernameMaxLength = 20
)

var (
	usernamePattern   = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	reservedUsernames = map[string]bool{
		"admin":     true,
		"root":      true,
		"api":       true,
		"test":      true,
		"null":      true,
		"undefined": true,
		"system":    true,
	}
)

type UsernameResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ValidateUsername checks length 3-20, the [A-Za-z0-9_] charset and the
// reserved word list (case-insensitive).
func ValidateUsername(username string) UsernameResult {
	errs := []string{}

	if len(username) < UsernameMinLength {
		errs = append(errs, "Username must be at least 3 characters long")
	}
	if len(username) > UsernameMaxLength {
		errs = append(errs, "Username must not exceed 20 characters")
	}
	if username != "" && !usernamePattern.MatchString(username) {
		errs = append(errs, "Username can only contain letters, numbers, and underscores")
	}
	if IsReservedUsername(username) {
		errs = append(errs, "Username is reserved")
	}

	return UsernameResult{Valid: len(errs) == 0, Errors: errs}
}

func IsReservedUsername(username string) bool {
	return reservedUsernames[strings.ToLower(username)]
}

func testModeTag(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "time", "words", "quote", "custom":
		return true
	}
	return false
}
