package util

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var unsafeTokenChars = regexp.MustCompile(`[<>:"/\\|?*\s]+`)

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// SafeToken collapses characters that are unsafe in file names into "_" and trims leading
// and trailing "_" and ".". The result may be empty.
func SafeToken(raw string) string {
	s := unsafeTokenChars.ReplaceAllString(raw, "_")
	return strings.Trim(s, "_.")
}

// TruncateRunes shortens s to at most max runes.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
