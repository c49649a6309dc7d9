// Package validate centralizes input validation and sanitization for
// user-supplied text: length bounds, character allowlists, SQL keyword
// screening, and HTML escaping.
package validate

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrSQLKeyword        = errors.New("string contains SQL keywords")
	ErrEmpty             = errors.New("string is empty")
)

// SQL keywords are matched on word boundaries so names that merely contain
// one as a substring ("Executive") pass. Queries are parameterized; this
// screen only rejects the obviously hostile.
var sqlKeywordPattern = regexp.MustCompile(
	`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|EXEC|EXECUTE|UNION)\b`,
)

// Metacharacter sequences matched as raw substrings anywhere in the input.
var sqlMetaSequences = []string{
	"--", "/*", "*/", ";--", "xp_", "sp_",
}

var venueNamePattern = regexp.MustCompile(`^[A-Za-z0-9 _\-\.'&]+$`)

// StringConstraints describes what an input field accepts. Zero-value
// lengths mean unbounded; lengths count runes, not bytes.
type StringConstraints struct {
	MinLength        int
	MaxLength        int
	AllowedPattern   *regexp.Regexp // character allowlist, applied to the whole string
	DisallowedWords  []string       // case-insensitive substring matches
	CheckSQLKeywords bool
	AllowEmpty       bool
	TrimSpace        bool
}

// String checks s against the constraints and returns it, trimmed when
// TrimSpace is set.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	length := utf8.RuneCountInString(s)
	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}

	if constraints.AllowedPattern != nil && !constraints.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}

	if constraints.CheckSQLKeywords {
		if err := checkSQLKeywords(s); err != nil {
			return "", err
		}
	}

	if len(constraints.DisallowedWords) > 0 {
		upper := strings.ToUpper(s)
		for _, word := range constraints.DisallowedWords {
			if strings.Contains(upper, strings.ToUpper(word)) {
				return "", fmt.Errorf("string contains disallowed word: %q", word)
			}
		}
	}

	return s, nil
}

func checkSQLKeywords(s string) error {
	if m := sqlKeywordPattern.FindString(s); m != "" {
		return fmt.Errorf("%w: contains %q", ErrSQLKeyword, m)
	}
	for _, seq := range sqlMetaSequences {
		if strings.Contains(s, seq) {
			return fmt.Errorf("%w: contains %q", ErrSQLKeyword, seq)
		}
	}
	return nil
}

// SanitizeHTML escapes HTML special characters. Call it on any
// user-generated text that could end up rendered in a page.
func SanitizeHTML(s string) string {
	return html.EscapeString(s)
}

// SanitizeString validates then HTML-escapes in one step.
func SanitizeString(s string, constraints StringConstraints) (string, error) {
	validated, err := String(s, constraints)
	if err != nil {
		return "", err
	}
	return SanitizeHTML(validated), nil
}

// VenueName accepts 1-100 characters of letters, digits, spaces, and the
// punctuation real venue names use (dash, underscore, period, apostrophe,
// ampersand).
//
// The SQL keyword screen stays off here: venues really are called things
// like "Drop Zone" or "The Select Bar". The allowlist already excludes
// metacharacters.
func VenueName(name string) (string, error) {
	return SanitizeString(name, StringConstraints{
		MinLength:      1,
		MaxLength:      100,
		AllowedPattern: venueNamePattern,
		TrimSpace:      true,
	})
}

// Neighborhood accepts 1-100 characters, any charset.
func Neighborhood(name string) (string, error) {
	return SanitizeString(name, StringConstraints{
		MinLength: 1,
		MaxLength: 100,
		TrimSpace: true,
	})
}

// ReviewNote accepts up to 1000 characters and may be empty.
func ReviewNote(note string) (string, error) {
	return SanitizeString(note, StringConstraints{
		MaxLength:  1000,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}

// Description accepts up to 5000 characters and may be empty.
func Description(desc string) (string, error) {
	return SanitizeString(desc, StringConstraints{
		MaxLength:  5000,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}
