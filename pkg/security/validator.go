package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSearchQueryLength is the maximum number of characters in a search query
const MaxSearchQueryLength = 100

var (
	ErrQueryTooLong     = errors.New("search query too long")
	ErrQueryInvalidChar = errors.New("search query contains invalid characters")
)

// dangerousPatterns match SQL injection and script injection attempts
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(union|select|insert|update|delete|drop|create|alter|exec|execute)\b`),
	regexp.MustCompile(`(?i)\b(or|and)\s+\d+\s*=\s*\d+`),
	regexp.MustCompile(`(?i)\b(or|and)\s+['"].*['"]\s*=\s*['"].*['"]`),
	regexp.MustCompile(`(--|/\*|\*/)`),
	regexp.MustCompile(`(?i)\b(waitfor|delay|benchmark|sleep)\b`),
	regexp.MustCompile(`(?i)(<script|</script|javascript:|vbscript:|onload=|onerror=)`),
}

// ValidateSearchQuery trims a search query and rejects it when it is too long or
// looks like an injection attempt.
func ValidateSearchQuery(query string) (string, error) {
	if query == "" {
		return "", nil
	}
	if utf8.RuneCountInString(query) > MaxSearchQueryLength {
		return "", ErrQueryTooLong
	}

	query = strings.TrimSpace(query)

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(query) {
			return "", ErrQueryInvalidChar
		}
	}
	for _, char := range query {
		if !isValidSearchChar(char) {
			return "", ErrQueryInvalidChar
		}
	}

	return query, nil
}

// isValidSearchChar allows letters, digits, spaces and the punctuation found in
// names and email addresses.
func isValidSearchChar(char rune) bool {
	if unicode.IsLetter(char) || unicode.IsNumber(char) {
		return true
	}
	switch char {
	case ' ', '-', '_', '.', '@', '+', '%', '\'':
		return true
	}
	return false
}

// SanitizeSearchString escapes LIKE wildcards so they match literally.
func SanitizeSearchString(query string) string {
	if query == "" {
		return ""
	}
	query = strings.ReplaceAll(query, `\`, `\\`)
	query = strings.ReplaceAll(query, "%", `\%`)
	query = strings.ReplaceAll(query, "_", `\_`)
	return query
}

// LikePattern returns a lower-cased "contains" pattern for a LIKE ... ESCAPE '\' clause.
func LikePattern(query string) string {
	return "%" + SanitizeSearchString(strings.ToLower(query)) + "%"
}
